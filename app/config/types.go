package config

// Config is the jobs file: where to publish and what to publish.
type Config struct {
	Destinations []Destination `yaml:"destinations"`
	Feeds        []Feed        `yaml:"feeds"`
	Schedule     *Schedule     `yaml:"schedule"`
	Settings     Settings      `yaml:"settings"`
}

const (
	DestinationWebhook = "webhook"
	DestinationLog     = "log"
)

type Destination struct {
	Name          string            `yaml:"name"`
	Type          string            `yaml:"type"`
	URL           string            `yaml:"url"`
	Headers       map[string]string `yaml:"headers"`
	RatePerMinute int               `yaml:"rate_per_minute"`
}

// Feed is one feed job. Destinations lists destination names; empty means
// every destination.
type Feed struct {
	Name         string   `yaml:"name"`
	URL          string   `yaml:"url"`
	MaxCount     uint     `yaml:"max_count"`
	Lookback     uint     `yaml:"lookback"` // seconds
	MaxAgeDays   uint     `yaml:"max_age_days"`
	Enrich       bool     `yaml:"enrich"`
	Dedup        bool     `yaml:"dedup"`
	Filters      []Filter `yaml:"filters"`
	Destinations []string `yaml:"destinations"`
}

// Filter represents a content filter rule
type Filter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

const (
	SourceCSV    = "csv"
	SourceSQLite = "sqlite"
)

type Schedule struct {
	Source       string   `yaml:"source"`
	Path         string   `yaml:"path"`
	Header       *bool    `yaml:"header"`
	MaxCount     uint     `yaml:"max_count"`
	CatchUp      bool     `yaml:"catch_up"`
	Destinations []string `yaml:"destinations"`
}

type Settings struct {
	Timeout           int `yaml:"timeout"` // seconds
	EnrichConcurrency int `yaml:"enrich_concurrency"`
	SeenRetentionDays int `yaml:"seen_retention_days"`
}
