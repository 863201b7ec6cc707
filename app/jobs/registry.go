package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/lysyi3m/rss-courier/app/config"
	"github.com/lysyi3m/rss-courier/app/feed"
	"github.com/lysyi3m/rss-courier/app/publish"
	"github.com/lysyi3m/rss-courier/app/runner"
	"github.com/lysyi3m/rss-courier/app/schedule"
)

var (
	ErrUnknownFeed = errors.New("unknown feed")
	ErrNoSchedule  = errors.New("no schedule configured")
)

type Options struct {
	UserAgent string
	Location  *time.Location
	DryRun    bool
	// Seed makes feed:random picks reproducible. 0 seeds from the clock.
	Seed uint64
	// Schedule overrides the store built from the jobs file.
	Schedule runner.ScheduleStore
	// Seen backs feeds with dedup enabled.
	Seen       runner.SeenStore
	HTTPClient *http.Client
	Clock      runner.Clock
}

// FeedOverrides replaces job values when non-zero.
type FeedOverrides struct {
	URL        string
	MaxCount   uint
	Lookback   uint
	MaxAgeDays uint
}

type pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// Registry turns jobs file entries into runs. Runs are serialized: a second
// call waits for the one in progress.
type Registry struct {
	config     *config.Config
	opts       Options
	publishers map[string]publish.Publisher
	fetcher    *feed.Fetcher
	enricher   *feed.Enricher
	store      runner.ScheduleStore

	mu sync.Mutex
}

func NewRegistry(cfg *config.Config, opts Options) *Registry {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 2 * cfg.Settings.GetTimeout()}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	publishers := make(map[string]publish.Publisher, len(cfg.Destinations))
	for _, d := range cfg.Destinations {
		switch d.Type {
		case config.DestinationWebhook:
			publishers[d.Name] = publish.NewWebhook(publish.WebhookOptions{
				Name:          d.Name,
				URL:           d.URL,
				Headers:       d.Headers,
				RatePerMinute: d.RatePerMinute,
				UserAgent:     opts.UserAgent,
			}, opts.HTTPClient)
		case config.DestinationLog:
			publishers[d.Name] = publish.NewLog(d.Name)
		}
	}

	store := opts.Schedule
	if store == nil && cfg.Schedule != nil && cfg.Schedule.Source == config.SourceCSV {
		store = schedule.NewCSVStore(cfg.Schedule.Path, cfg.Schedule.HasHeader())
	}

	return &Registry{
		config:     cfg,
		opts:       opts,
		publishers: publishers,
		fetcher:    feed.NewFetcher(opts.HTTPClient, feed.NewParser(), opts.UserAgent),
		enricher:   feed.NewEnricher(opts.HTTPClient, opts.UserAgent, cfg.Settings.GetTimeout(), cfg.Settings.EnrichConcurrency),
		store:      store,
	}
}

// Feeds returns the configured feed job names.
func (r *Registry) Feeds() []string {
	names := make([]string, len(r.config.Feeds))
	for i, f := range r.config.Feeds {
		names[i] = f.Name
	}
	return names
}

func (r *Registry) HasSchedule() bool {
	return r.store != nil
}

// RunFeed runs the feed job name in mode. An empty name selects the only
// configured feed, or an ad-hoc job when overrides carry a URL.
func (r *Registry) RunFeed(ctx context.Context, name string, mode runner.Mode, overrides FeedOverrides) (*runner.RunResult, error) {
	job, err := r.resolveFeed(name, overrides)
	if err != nil {
		return nil, err
	}

	var policy feed.Policy
	switch mode {
	case runner.ModeFeedLast:
		policy = feed.LastWithinLookback{MaxCount: job.MaxCount, LookbackSeconds: job.Lookback}
	case runner.ModeFeedRandom:
		policy = feed.RandomWithinMaxAge{MaxAgeDays: job.MaxAgeDays}
	default:
		return nil, fmt.Errorf("mode %s is not a feed mode", mode)
	}

	opts := r.runnerOptions(job.Destinations)

	if job.Enrich {
		opts.Enricher = r.enricher
	}
	for _, f := range job.Filters {
		opts.Filters = append(opts.Filters, feed.Filter{Field: f.Field, Includes: f.Includes, Excludes: f.Excludes})
	}
	if job.Dedup {
		if r.opts.Seen == nil {
			slog.Warn("Dedup requested but no seen store is configured", "feed", job.Name)
		}
		opts.Seen = r.opts.Seen
	}
	if r.opts.Seed != 0 {
		opts.Random = feed.NewRandomSource(r.opts.Seed)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Info("Starting feed run", "feed", job.Name, "mode", mode, "url", job.URL, "dry_run", r.opts.DryRun)

	result, err := runner.New(r.fetcher, nil, opts).RunFeed(ctx, job.URL, policy)
	if err != nil {
		return nil, err
	}

	if job.Dedup && !r.opts.DryRun {
		r.pruneSeen(ctx)
	}

	return result, nil
}

// RunSchedule runs the schedule job. maxCount 0 keeps the job's value.
func (r *Registry) RunSchedule(ctx context.Context, maxCount uint) (*runner.RunResult, error) {
	if r.store == nil || r.config.Schedule == nil {
		return nil, ErrNoSchedule
	}

	job := r.config.Schedule
	if maxCount == 0 {
		maxCount = job.MaxCount
	}

	opts := r.runnerOptions(job.Destinations)
	opts.Eligibility = schedule.Eligibility{CatchUp: job.CatchUp, Location: r.opts.Location}

	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Info("Starting schedule run", "source", job.Source, "max_count", maxCount, "catch_up", job.CatchUp, "dry_run", r.opts.DryRun)

	return runner.New(nil, r.store, opts).RunSchedule(ctx, maxCount)
}

func (r *Registry) resolveFeed(name string, overrides FeedOverrides) (config.Feed, error) {
	var job config.Feed

	switch {
	case name != "":
		f, ok := r.config.GetFeed(name)
		if !ok {
			return job, fmt.Errorf("%w: %s", ErrUnknownFeed, name)
		}
		job = *f
	case overrides.URL != "":
		job = config.Feed{Name: "adhoc", MaxCount: 1, Lookback: 3600, MaxAgeDays: 7}
	case len(r.config.Feeds) == 1:
		job = r.config.Feeds[0]
	default:
		return job, fmt.Errorf("%w: a feed name is required when %d feeds are configured", ErrUnknownFeed, len(r.config.Feeds))
	}

	if overrides.URL != "" {
		job.URL = overrides.URL
	}
	if overrides.MaxCount != 0 {
		job.MaxCount = overrides.MaxCount
	}
	if overrides.Lookback != 0 {
		job.Lookback = overrides.Lookback
	}
	if overrides.MaxAgeDays != 0 {
		job.MaxAgeDays = overrides.MaxAgeDays
	}

	return job, nil
}

func (r *Registry) runnerOptions(names []string) runner.Options {
	selected := r.config.SelectDestinations(names)

	destinations := make([]runner.Destination, 0, len(selected))
	for _, d := range selected {
		destinations = append(destinations, runner.Destination{Name: d.Name, Publisher: r.publishers[d.Name]})
	}

	return runner.Options{
		Destinations: destinations,
		Clock:        r.opts.Clock,
		Timeout:      r.config.Settings.GetTimeout(),
		DryRun:       r.opts.DryRun,
	}
}

func (r *Registry) pruneSeen(ctx context.Context) {
	p, ok := r.opts.Seen.(pruner)
	if !ok {
		return
	}

	now := time.Now()
	if r.opts.Clock != nil {
		now = r.opts.Clock.Now()
	}

	before := now.Add(-r.config.Settings.GetSeenRetention())
	removed, err := p.Prune(ctx, before)
	if err != nil {
		slog.Warn("Failed to prune seen items", "error", err)
		return
	}
	if removed > 0 {
		slog.Debug("Pruned seen items", "removed", removed)
	}
}
