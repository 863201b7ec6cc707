package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/rss-courier/app/jobs"
	"github.com/lysyi3m/rss-courier/app/runner"
)

func NewHandler(runs RunService, version string) *Handler {
	return &Handler{runs: runs, version: version}
}

// WithCache adds the seen-item cache to the health report.
func (h *Handler) WithCache(cache HealthChecker) *Handler {
	h.cache = cache
	return h
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   h.version,
		"feeds":     len(h.runs.Feeds()),
		"schedule":  h.runs.HasSchedule(),
	}

	if h.cache != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		cacheHealth := h.cache.Health(ctx)
		health["cache"] = cacheHealth
		if cacheHealth["status"] != "healthy" {
			health["status"] = "degraded"
		}
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) ListFeeds(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"feeds":    h.runs.Feeds(),
		"schedule": h.runs.HasSchedule(),
	})
}

// RunFeed handles POST /api/runs/feed/:name?mode=feed:last&max_count=3
func (h *Handler) RunFeed(c *gin.Context) {
	name := c.Param("name")

	mode, err := runner.ParseMode(c.DefaultQuery("mode", string(runner.ModeFeedLast)))
	if err != nil || mode == runner.ModeSchedule {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be feed:last or feed:random"})
		return
	}

	var overrides jobs.FeedOverrides
	if overrides.MaxCount, err = queryUint(c, "max_count"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if overrides.Lookback, err = queryUint(c, "lookback"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if overrides.MaxAgeDays, err = queryUint(c, "max_age_days"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.runs.RunFeed(c.Request.Context(), name, mode, overrides)
	h.respond(c, result, err)
}

// RunSchedule handles POST /api/runs/schedule?max_count=1
func (h *Handler) RunSchedule(c *gin.Context) {
	maxCount, err := queryUint(c, "max_count")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.runs.RunSchedule(c.Request.Context(), maxCount)
	h.respond(c, result, err)
}

func (h *Handler) respond(c *gin.Context, result *runner.RunResult, err error) {
	if err != nil {
		var fatal *runner.FatalError
		switch {
		case errors.Is(err, jobs.ErrUnknownFeed), errors.Is(err, jobs.ErrNoSchedule):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.As(err, &fatal):
			c.JSON(http.StatusBadGateway, gin.H{
				"status":    runner.StatusFatal,
				"exit_code": runner.StatusFatal.ExitCode(),
				"kind":      fatal.Kind,
				"error":     err.Error(),
			})
		default:
			slog.Error("Run failed", "path", c.FullPath(), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	status := result.Status()
	c.JSON(http.StatusOK, runResponse{
		Status:    status,
		ExitCode:  status.ExitCode(),
		RunResult: result,
	})
}

func queryUint(c *gin.Context, key string) (uint, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.ParseUint(raw, 10, 0)
	if err != nil {
		return 0, errors.New("invalid " + key + ": " + raw)
	}
	return uint(n), nil
}
