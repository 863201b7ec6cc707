package cfg

import (
	"cmp"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	ConfigPath string `long:"config" env:"CONFIG_PATH" default:"./jobs.yml" description:"Jobs file declaring destinations, feeds and the schedule"`
	DBPath     string `long:"db-path" env:"DB_PATH" default:"./courier.db" description:"SQLite database for the schedule table and seen items"`
	RedisURL   string `long:"redis-url" env:"REDIS_URL" description:"Redis URL for seen items (optional, overrides SQLite)"`
	ImportCSV  string `long:"import-csv" env:"IMPORT_CSV" description:"Import schedule rows from a CSV file into SQLite before running"`

	// Application configuration
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port (serve mode)"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	UserAgent    string `long:"user-agent" env:"USER_AGENT" default:"RSS Courier/1.0" description:"User agent string for HTTP requests"`

	// Run overrides
	DryRun     bool   `long:"dry-run" env:"DRY_RUN" description:"Log content instead of publishing and write nothing back"`
	Feed       string `long:"feed" env:"FEED" description:"Feed job name from the jobs file"`
	FeedURL    string `long:"feed-url" env:"FEED_URL" description:"Feed URL (overrides the job URL)"`
	MaxCount   uint   `long:"max-count" description:"Maximum candidates per run (overrides the job)"`
	Lookback   uint   `long:"lookback" description:"Lookback window in seconds for feed:last (overrides the job)"`
	MaxAgeDays uint   `long:"max-age-days" description:"Maximum item age in days for feed:random (overrides the job)"`
	Seed       uint64 `long:"seed" env:"SEED" description:"Random seed for feed:random (0 seeds from the clock)"`

	// Application metadata
	Timezone string `long:"timezone" env:"SCHEDULE_TIMEZONE" default:"UTC" description:"Timezone of schedule dates and hours (e.g., UTC, Europe/Berlin)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`

	Args struct {
		Mode string `positional-arg-name:"MODE" description:"feed:last | feed:random | schedule | serve"`
	} `positional-args:"yes" required:"yes"`
}

// Load parses os.Args and the environment. It returns nil, nil when help was
// requested.
func Load() (*Cfg, error) {
	return load(os.Args[1:], flags.Default)
}

// LoadArgs parses args without printing errors.
func LoadArgs(args []string) (*Cfg, error) {
	return load(args, flags.HelpFlag|flags.PassDoubleDash)
}

func load(args []string, options flags.Options) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, options)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	switch raw.Args.Mode {
	case "feed:last", "feed:random", "schedule", ModeServe:
	default:
		return nil, fmt.Errorf("unknown mode %q", raw.Args.Mode)
	}

	location, err := loadLocation(raw.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", raw.Timezone, err)
	}

	cfg := &Cfg{
		Mode:         raw.Args.Mode,
		ConfigPath:   raw.ConfigPath,
		DBPath:       raw.DBPath,
		RedisURL:     raw.RedisURL,
		ImportCSV:    raw.ImportCSV,
		Port:         raw.Port,
		APIAccessKey: raw.APIAccessKey,
		UserAgent:    raw.UserAgent,
		DryRun:       raw.DryRun,
		Feed:         raw.Feed,
		FeedURL:      raw.FeedURL,
		MaxCount:     raw.MaxCount,
		Lookback:     raw.Lookback,
		MaxAgeDays:   raw.MaxAgeDays,
		Seed:         raw.Seed,
		Timezone:     raw.Timezone,
		Location:     location,
		Debug:        raw.Debug,
		Version:      GetVersion(),
	}

	return cfg, nil
}

func loadLocation(timezone string) (*time.Location, error) {
	if timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(timezone)
}
