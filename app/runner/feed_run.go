package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/rss-courier/app/feed"
	"github.com/lysyi3m/rss-courier/app/metrics"
	"github.com/lysyi3m/rss-courier/app/publish"
)

// RunFeed fetches url, selects items with policy and publishes them in the
// selector's order. Fetch failures abort the run with a *FatalError.
func (r *Runner) RunFeed(ctx context.Context, url string, policy feed.Policy) (*RunResult, error) {
	mode := ModeFeedLast
	if _, ok := policy.(feed.RandomWithinMaxAge); ok {
		mode = ModeFeedRandom
	}

	result := newResult(mode, r.opts.Clock.Now())

	if r.source == nil {
		return nil, r.fatal(result, KindFetch, fmt.Errorf("no feed source configured"))
	}

	items, err := r.fetch(ctx, url)
	if err != nil {
		return nil, r.fatal(result, KindFetch, err)
	}

	valid := make([]feed.Item, 0, len(items))
	for _, item := range items {
		switch {
		case item.ID == "":
			r.skip(result, feedCandidate(item), Failure{Kind: KindParse, Message: "item has no guid or link"})
		case item.PublishedAt.IsZero():
			r.skip(result, feedCandidate(item), Failure{Kind: KindParse, Message: "item has no publication date"})
		default:
			valid = append(valid, item)
		}
	}

	valid, dropped := r.filterer.Run(valid)
	for id, reason := range dropped {
		slog.Debug("Item filtered out", "mode", mode, "id", id, "reason", reason)
		metrics.RecordSkipped(string(mode), "filtered")
	}

	if r.opts.Seen != nil {
		valid, err = r.dropSeen(ctx, url, valid)
		if err != nil {
			return nil, r.fatal(result, KindStore, err)
		}
	}

	selected := r.selector.Select(valid, policy, r.opts.Clock.Now())

	if r.opts.Enricher != nil && len(selected) > 0 {
		selected = r.opts.Enricher.Enrich(ctx, selected)
	}

	for _, item := range selected {
		candidate := feedCandidate(item)

		if !r.publishAll(ctx, result, candidate, feedContent(item)) {
			continue
		}

		if r.opts.Seen == nil || r.opts.DryRun {
			continue
		}

		if err := r.markSeen(ctx, url, item.ID); err != nil {
			r.writeBackFailed(result, candidate, err)
		}
	}

	r.finish(result)

	return result, nil
}

func (r *Runner) fetch(ctx context.Context, url string) ([]feed.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	items, err := r.source.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %s: %w", url, err)
	}

	return items, nil
}

func (r *Runner) dropSeen(ctx context.Context, url string, items []feed.Item) ([]feed.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}

	seen, err := r.opts.Seen.FilterSeen(ctx, url, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to read seen items: %w", err)
	}

	unseen := make([]feed.Item, 0, len(items))
	for _, item := range items {
		if !seen[item.ID] {
			unseen = append(unseen, item)
		}
	}

	return unseen, nil
}

func (r *Runner) markSeen(ctx context.Context, url, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	return r.opts.Seen.MarkSeen(ctx, url, id, r.opts.Clock.Now())
}

func feedCandidate(item feed.Item) Candidate {
	return Candidate{
		Kind:  CandidateFeedItem,
		ID:    item.ID,
		Title: item.Title,
		Link:  item.Link,
	}
}

// feedContent builds publish content from the title, link and first media URL.
func feedContent(item feed.Item) publish.Content {
	content := publish.Content{Text: item.Title, Link: item.Link}
	if len(item.MediaURLs) > 0 {
		content.ImageURLs = []string{item.MediaURLs[0]}
	}
	return content
}
