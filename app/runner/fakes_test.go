package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lysyi3m/rss-courier/app/feed"
	"github.com/lysyi3m/rss-courier/app/publish"
	"github.com/lysyi3m/rss-courier/app/schedule"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() Clock {
	return ClockFunc(func() time.Time { return testNow })
}

type fakeSource struct {
	items []feed.Item
	err   error
	urls  []string
}

func (s *fakeSource) Fetch(ctx context.Context, url string) ([]feed.Item, error) {
	s.urls = append(s.urls, url)
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

type fakeStore struct {
	mu       sync.Mutex
	records  []schedule.Record
	readErr  error
	writeErr error
	writes   []int
}

func (s *fakeStore) ReadAll(ctx context.Context) ([]schedule.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readErr != nil {
		return nil, s.readErr
	}

	records := make([]schedule.Record, len(s.records))
	for i, r := range s.records {
		records[i] = schedule.Record{Index: r.Index, Cells: append([]string(nil), r.Cells...)}
	}
	return records, nil
}

func (s *fakeStore) WriteStatus(ctx context.Context, index int, status schedule.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writes = append(s.writes, index)
	if s.writeErr != nil {
		return s.writeErr
	}

	for i := range s.records {
		if s.records[i].Index == index {
			s.records[i].Cells[schedule.ColStatus] = string(status)
			return nil
		}
	}
	return fmt.Errorf("row %d not found", index)
}

func (s *fakeStore) status(index int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if r.Index == index {
			return r.Cells[schedule.ColStatus]
		}
	}
	return ""
}

// fakePublisher fails the calls whose 1-based number is in failOn.
type fakePublisher struct {
	name     string
	failOn   map[int]error
	block    bool
	contents []publish.Content
}

func (p *fakePublisher) Publish(ctx context.Context, content publish.Content) (string, error) {
	p.contents = append(p.contents, content)
	n := len(p.contents)

	if p.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err, ok := p.failOn[n]; ok {
		return "", err
	}
	return fmt.Sprintf("%s-%d", p.name, n), nil
}

type fakeSeen struct {
	seen     map[string]bool
	marked   []string
	readErr  error
	writeErr error
}

func (s *fakeSeen) FilterSeen(ctx context.Context, feedURL string, ids []string) (map[string]bool, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	result := make(map[string]bool)
	for _, id := range ids {
		if s.seen[feedURL+"|"+id] {
			result[id] = true
		}
	}
	return result, nil
}

func (s *fakeSeen) MarkSeen(ctx context.Context, feedURL, id string, at time.Time) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	s.seen[feedURL+"|"+id] = true
	s.marked = append(s.marked, id)
	return nil
}

type fakeEnricher struct {
	calls int
}

func (e *fakeEnricher) Enrich(ctx context.Context, items []feed.Item) []feed.Item {
	e.calls++
	out := make([]feed.Item, len(items))
	for i, item := range items {
		item.MediaURLs = append(item.MediaURLs, "https://img.example.com/"+item.ID+".jpg")
		out[i] = item
	}
	return out
}

type fixedRandom int

func (f fixedRandom) Pick(n int) int {
	return int(f) % n
}

var errBoom = errors.New("boom")

func item(id string, age time.Duration, media ...string) feed.Item {
	return feed.Item{
		ID:          id,
		Title:       "Title " + id,
		Link:        "https://example.com/" + id,
		PublishedAt: testNow.Add(-age),
		MediaURLs:   media,
	}
}

func row(index int, text, date, hour, status string) schedule.Record {
	return schedule.Record{
		Index: index,
		Cells: []string{text, "https://example.com/" + text, "", "", "", "", date, hour, status},
	}
}
