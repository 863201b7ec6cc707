package feed

import (
	"time"
)

// Item is one entry of a fetched feed. Items are rebuilt on every fetch and
// never stored.
type Item struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"published_at"` // UTC; zero when the feed gave no usable date
	MediaURLs   []string  `json:"media_urls,omitempty"`
}

// Policy selects which items of a feed are published in one run. It is a
// closed set: LastWithinLookback or RandomWithinMaxAge.
type Policy interface {
	policy()
}

// LastWithinLookback publishes up to MaxCount of the newest items published
// within the last LookbackSeconds, newest first.
type LastWithinLookback struct {
	MaxCount        uint
	LookbackSeconds uint
}

// RandomWithinMaxAge publishes one item chosen uniformly among those
// published within the last MaxAgeDays.
type RandomWithinMaxAge struct {
	MaxAgeDays uint
}

func (LastWithinLookback) policy() {}
func (RandomWithinMaxAge) policy() {}

// RandomSource returns an index in [0, n). n is always > 0.
type RandomSource interface {
	Pick(n int) int
}
