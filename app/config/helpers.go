package config

import (
	"time"
)

// GetTimeout returns the timeout as time.Duration
func (s *Settings) GetTimeout() time.Duration {
	if s.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.Timeout) * time.Second
}

func (s *Settings) GetSeenRetention() time.Duration {
	if s.SeenRetentionDays <= 0 {
		return 90 * 24 * time.Hour
	}
	return time.Duration(s.SeenRetentionDays) * 24 * time.Hour
}

// HasHeader reports whether the first CSV line is a header. Defaults to true.
func (s *Schedule) HasHeader() bool {
	return s.Header == nil || *s.Header
}

func (c *Config) GetFeed(name string) (*Feed, bool) {
	for i := range c.Feeds {
		if c.Feeds[i].Name == name {
			return &c.Feeds[i], true
		}
	}
	return nil, false
}

// SelectDestinations returns the named destinations in the given order, or
// every destination when names is empty.
func (c *Config) SelectDestinations(names []string) []Destination {
	if len(names) == 0 {
		return c.Destinations
	}

	byName := make(map[string]Destination, len(c.Destinations))
	for _, d := range c.Destinations {
		byName[d.Name] = d
	}

	selected := make([]Destination, 0, len(names))
	for _, name := range names {
		if d, ok := byName[name]; ok {
			selected = append(selected, d)
		}
	}
	return selected
}
