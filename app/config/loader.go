package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of the jobs file
type Loader struct {
	path string
}

func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

func (l *Loader) Load() (*Config, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	config, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", l.path, err)
	}

	slog.Debug("Loaded jobs file",
		"path", l.path,
		"destinations", len(config.Destinations),
		"feeds", len(config.Feeds),
		"schedule", config.Schedule != nil)

	return config, nil
}

// Parse decodes a jobs file, applies defaults and validates it.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	setDefaults(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(config *Config) {
	for i := range config.Feeds {
		f := &config.Feeds[i]
		if f.MaxCount == 0 {
			f.MaxCount = 1
		}
		if f.Lookback == 0 {
			f.Lookback = 3600 // seconds
		}
		if f.MaxAgeDays == 0 {
			f.MaxAgeDays = 7
		}
	}

	if s := config.Schedule; s != nil {
		if s.Source == "" {
			s.Source = SourceCSV
		}
		if s.MaxCount == 0 {
			s.MaxCount = 1
		}
	}

	if config.Settings.Timeout == 0 {
		config.Settings.Timeout = 30 // seconds
	}
	if config.Settings.EnrichConcurrency == 0 {
		config.Settings.EnrichConcurrency = 4
	}
	if config.Settings.SeenRetentionDays == 0 {
		config.Settings.SeenRetentionDays = 90
	}
}

func validate(config *Config) error {
	if len(config.Destinations) == 0 {
		return fmt.Errorf("at least one destination is required")
	}

	names := make(map[string]bool, len(config.Destinations))
	for i, d := range config.Destinations {
		if d.Name == "" {
			return fmt.Errorf("destination at index %d has no name", i)
		}
		if names[d.Name] {
			return fmt.Errorf("duplicate destination name: %s", d.Name)
		}
		names[d.Name] = true

		switch d.Type {
		case DestinationWebhook:
			if d.URL == "" {
				return fmt.Errorf("destination %s: webhook URL is required", d.Name)
			}
		case DestinationLog:
		default:
			return fmt.Errorf("destination %s: invalid type %q", d.Name, d.Type)
		}

		if d.RatePerMinute < 0 {
			return fmt.Errorf("destination %s: rate per minute must be non-negative", d.Name)
		}
	}

	feeds := make(map[string]bool, len(config.Feeds))
	for i, f := range config.Feeds {
		if f.Name == "" {
			return fmt.Errorf("feed at index %d has no name", i)
		}
		if feeds[f.Name] {
			return fmt.Errorf("duplicate feed name: %s", f.Name)
		}
		feeds[f.Name] = true

		if f.URL == "" {
			return fmt.Errorf("feed %s: URL is required", f.Name)
		}
		if err := checkDestinations(names, f.Destinations); err != nil {
			return fmt.Errorf("feed %s: %w", f.Name, err)
		}

		for j, filter := range f.Filters {
			if filter.Field != "title" && filter.Field != "link" {
				return fmt.Errorf("feed %s: invalid filter field at index %d: %s", f.Name, j, filter.Field)
			}
			if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
				return fmt.Errorf("feed %s: filter at index %d must have at least one include or exclude rule", f.Name, j)
			}
		}
	}

	if s := config.Schedule; s != nil {
		switch s.Source {
		case SourceCSV:
			if s.Path == "" {
				return fmt.Errorf("schedule: path is required for csv source")
			}
		case SourceSQLite:
		default:
			return fmt.Errorf("schedule: invalid source %q", s.Source)
		}
		if err := checkDestinations(names, s.Destinations); err != nil {
			return fmt.Errorf("schedule: %w", err)
		}
	}

	if config.Settings.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	if config.Settings.EnrichConcurrency < 0 {
		return fmt.Errorf("enrich concurrency must be non-negative")
	}
	if config.Settings.SeenRetentionDays < 0 {
		return fmt.Errorf("seen retention days must be non-negative")
	}

	return nil
}

func checkDestinations(known map[string]bool, names []string) error {
	for _, name := range names {
		if !known[name] {
			return fmt.Errorf("unknown destination: %s", name)
		}
	}
	return nil
}
