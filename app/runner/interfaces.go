package runner

import (
	"context"
	"time"

	"github.com/lysyi3m/rss-courier/app/feed"
	"github.com/lysyi3m/rss-courier/app/publish"
	"github.com/lysyi3m/rss-courier/app/schedule"
)

type FeedSource interface {
	Fetch(ctx context.Context, url string) ([]feed.Item, error)
}

type ScheduleStore interface {
	ReadAll(ctx context.Context) ([]schedule.Record, error)
	WriteStatus(ctx context.Context, index int, status schedule.Status) error
}

// SeenStore remembers feed item ids that were already published.
// Implemented by database.SeenRepository and cache.Cache.
type SeenStore interface {
	FilterSeen(ctx context.Context, feedURL string, ids []string) (map[string]bool, error)
	MarkSeen(ctx context.Context, feedURL, id string, at time.Time) error
}

type Enricher interface {
	Enrich(ctx context.Context, items []feed.Item) []feed.Item
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// Destination is a named publisher.
type Destination struct {
	Name      string
	Publisher publish.Publisher
}
