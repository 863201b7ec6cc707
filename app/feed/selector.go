package feed

import (
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"time"
)

const secondsPerDay = 86400

// Selector applies a Policy to the items of one fetch. It keeps no state
// between runs: not publishing an item twice relies on the run cadence
// staying inside the policy window.
type Selector struct {
	random RandomSource
}

func NewSelector(random RandomSource) *Selector {
	if random == nil {
		random = NewRandomSource(uint64(time.Now().UnixNano()))
	}
	return &Selector{random: random}
}

// Select returns the items to publish, in publish order.
func (s *Selector) Select(items []Item, policy Policy, now time.Time) []Item {
	switch p := policy.(type) {
	case LastWithinLookback:
		window := newestFirst(withinWindow(Dedupe(items), now, seconds(uint64(p.LookbackSeconds))))
		if uint(len(window)) > p.MaxCount {
			window = window[:p.MaxCount]
		}
		return window

	case RandomWithinMaxAge:
		window := newestFirst(withinWindow(Dedupe(items), now, seconds(uint64(p.MaxAgeDays)*secondsPerDay)))
		if len(window) == 0 {
			return []Item{}
		}
		return []Item{window[s.random.Pick(len(window))]}
	}

	return []Item{}
}

// Dedupe keeps one item per ID, the one with the latest PublishedAt. The
// position of the first occurrence is kept.
func Dedupe(items []Item) []Item {
	index := make(map[string]int, len(items))
	result := make([]Item, 0, len(items))

	for _, item := range items {
		if i, ok := index[item.ID]; ok {
			if item.PublishedAt.After(result[i].PublishedAt) {
				result[i] = item
			}
			continue
		}
		index[item.ID] = len(result)
		result = append(result, item)
	}

	return result
}

func withinWindow(items []Item, now time.Time, window time.Duration) []Item {
	filtered := make([]Item, 0, len(items))
	for _, item := range items {
		if item.PublishedAt.IsZero() || item.PublishedAt.After(now) {
			continue
		}
		if now.Sub(item.PublishedAt) <= window {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// seconds converts without overflowing; windows beyond ~292 years saturate.
func seconds(n uint64) time.Duration {
	if n > uint64(math.MaxInt64/int64(time.Second)) {
		return math.MaxInt64
	}
	return time.Duration(n) * time.Second
}

func newestFirst(items []Item) []Item {
	slices.SortStableFunc(items, func(a, b Item) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})
	return items
}

type seededSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomSource returns a deterministic RandomSource for the given seed.
func NewRandomSource(seed uint64) RandomSource {
	return &seededSource{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *seededSource) Pick(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.IntN(n)
}
