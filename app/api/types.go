package api

import (
	"context"

	"github.com/lysyi3m/rss-courier/app/jobs"
	"github.com/lysyi3m/rss-courier/app/runner"
)

// RunService executes runs on request. Implemented by jobs.Registry.
type RunService interface {
	RunFeed(ctx context.Context, name string, mode runner.Mode, overrides jobs.FeedOverrides) (*runner.RunResult, error)
	RunSchedule(ctx context.Context, maxCount uint) (*runner.RunResult, error)
	Feeds() []string
	HasSchedule() bool
}

var _ RunService = (*jobs.Registry)(nil)

// HealthChecker reports the state of a backing service. Implemented by
// cache.Cache.
type HealthChecker interface {
	Health(ctx context.Context) map[string]any
}

type Handler struct {
	runs    RunService
	cache   HealthChecker
	version string
}

type runResponse struct {
	Status   runner.Status `json:"status"`
	ExitCode int           `json:"exit_code"`
	*runner.RunResult
}
