package cfg

import (
	"time"
)

const ModeServe = "serve"

type Cfg struct {
	Mode string

	// Storage
	ConfigPath string
	DBPath     string
	RedisURL   string
	ImportCSV  string

	// HTTP
	Port         string
	APIAccessKey string
	UserAgent    string

	// Run overrides
	DryRun     bool
	Feed       string
	FeedURL    string
	MaxCount   uint
	Lookback   uint
	MaxAgeDays uint
	Seed       uint64

	Timezone string
	Location *time.Location
	Debug    bool
	Version  string
}
