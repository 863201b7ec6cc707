package runner

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lysyi3m/rss-courier/app/feed"
	"github.com/lysyi3m/rss-courier/app/metrics"
	"github.com/lysyi3m/rss-courier/app/publish"
	"github.com/lysyi3m/rss-courier/app/schedule"
)

const DefaultTimeout = 30 * time.Second

type Options struct {
	Destinations []Destination
	Clock        Clock
	Random       feed.RandomSource
	// Timeout bounds every external call: fetch, store read and write, publish.
	Timeout time.Duration
	// Seen enables cross-run feed dedup when set.
	Seen        SeenStore
	Enricher    Enricher
	Filters     []feed.Filter
	Eligibility schedule.Eligibility
	// DryRun logs content instead of publishing and skips every write.
	DryRun bool
}

// Runner drives one feed run or one schedule run. Candidates are processed
// strictly one after another; a candidate's write-back finishes before the
// next candidate is published.
type Runner struct {
	source       FeedSource
	store        ScheduleStore
	selector     *feed.Selector
	filterer     *feed.Filterer
	destinations []Destination
	opts         Options
}

// New creates a Runner. source or store may be nil when the matching mode is
// never run.
func New(source FeedSource, store ScheduleStore, opts Options) *Runner {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	destinations := opts.Destinations
	if opts.DryRun {
		destinations = make([]Destination, len(opts.Destinations))
		for i, d := range opts.Destinations {
			destinations[i] = Destination{Name: d.Name, Publisher: publish.NewLog(d.Name)}
		}
	}

	return &Runner{
		source:       source,
		store:        store,
		selector:     feed.NewSelector(opts.Random),
		filterer:     feed.NewFilterer(opts.Filters),
		destinations: destinations,
		opts:         opts,
	}
}

// publishAll publishes content to every destination in order and reports
// whether at least one accepted it.
func (r *Runner) publishAll(ctx context.Context, result *RunResult, candidate Candidate, content publish.Content) bool {
	published := false

	for _, d := range r.destinations {
		outcome := Outcome{Candidate: candidate, Destination: d.Name}

		id, err := r.publish(ctx, d.Publisher, content)
		if err != nil {
			failure := failureOf(KindPublish, err)
			outcome.Failure = &failure

			slog.Warn("Publish failed",
				"mode", result.Mode,
				"destination", d.Name,
				"candidate", candidate.String(),
				"kind", failure.Kind,
				"error", err)
			metrics.RecordOutcome(string(result.Mode), d.Name, string(failure.Kind))
		} else {
			outcome.DestinationID = id
			published = true

			slog.Info("Published",
				"mode", result.Mode,
				"destination", d.Name,
				"candidate", candidate.String(),
				"destination_id", id)
			metrics.RecordOutcome(string(result.Mode), d.Name, "success")
		}

		result.Outcomes = append(result.Outcomes, outcome)
	}

	return published
}

func (r *Runner) publish(ctx context.Context, p publish.Publisher, content publish.Content) (string, error) {
	if pacer, ok := p.(publish.Pacer); ok {
		if err := pacer.Wait(ctx); err != nil {
			return "", err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	return p.Publish(ctx, content)
}

func (r *Runner) skip(result *RunResult, candidate Candidate, failure Failure) {
	result.Skipped = append(result.Skipped, Issue{Candidate: candidate, Failure: failure})

	slog.Warn("Candidate skipped",
		"mode", result.Mode,
		"candidate", candidate.String(),
		"kind", failure.Kind,
		"error", failure.Message)
	metrics.RecordSkipped(string(result.Mode), string(failure.Kind))
}

func (r *Runner) writeBackFailed(result *RunResult, candidate Candidate, err error) {
	failure := Failure{Kind: KindWriteBack, Message: err.Error()}
	result.WriteBackErrors = append(result.WriteBackErrors, Issue{Candidate: candidate, Failure: failure})

	slog.Error("Write-back failed after publish",
		"severity", "high",
		"mode", result.Mode,
		"candidate", candidate.String(),
		"timeout", errors.Is(err, context.DeadlineExceeded),
		"error", err)
	metrics.RecordWriteBackFailure(string(result.Mode))
}

func (r *Runner) fatal(result *RunResult, kind ErrorKind, err error) error {
	finished := r.opts.Clock.Now()
	metrics.RecordRun(string(result.Mode), string(StatusFatal), finished.Sub(result.StartedAt).Seconds())

	slog.Error("Run aborted", "run_id", result.ID, "mode", result.Mode, "kind", kind, "error", err)

	return &FatalError{Kind: kind, Err: err}
}

func (r *Runner) finish(result *RunResult) {
	result.FinishedAt = r.opts.Clock.Now()
	duration := result.FinishedAt.Sub(result.StartedAt)
	status := result.Status()

	metrics.RecordRun(string(result.Mode), string(status), duration.Seconds())

	slog.Info("Run completed",
		"run_id", result.ID,
		"mode", result.Mode,
		"status", status,
		"published", result.Published(),
		"failed", result.Failed(),
		"skipped", len(result.Skipped),
		"write_back_errors", len(result.WriteBackErrors),
		"duration", duration)
}

// failureOf classifies err. Deadline errors become timeouts.
func failureOf(kind ErrorKind, err error) Failure {
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return Failure{Kind: kind, Message: err.Error()}
}
