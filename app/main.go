package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/rss-courier/app/api"
	"github.com/lysyi3m/rss-courier/app/cache"
	"github.com/lysyi3m/rss-courier/app/cfg"
	"github.com/lysyi3m/rss-courier/app/config"
	"github.com/lysyi3m/rss-courier/app/database"
	"github.com/lysyi3m/rss-courier/app/jobs"
	"github.com/lysyi3m/rss-courier/app/runner"
	"github.com/lysyi3m/rss-courier/app/schedule"
)

func main() {
	os.Exit(run())
}

func run() int {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return runner.StatusFatal.ExitCode()
	}
	if appCfg == nil {
		// Help was shown
		return 0
	}

	setupLogger(appCfg.Debug)

	slog.Debug("Configuration loaded",
		"mode", appCfg.Mode,
		"config", appCfg.ConfigPath,
		"timezone", appCfg.Location.String(),
		"dry_run", appCfg.DryRun,
		"version", appCfg.Version)

	jobsCfg, err := config.NewLoader(appCfg.ConfigPath).Load()
	if err != nil {
		slog.Error("Failed to load jobs file", "error", err)
		return runner.StatusFatal.ExitCode()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := jobs.Options{
		UserAgent: appCfg.UserAgent,
		Location:  appCfg.Location,
		DryRun:    appCfg.DryRun,
		Seed:      appCfg.Seed,
	}

	sqliteSchedule := jobsCfg.Schedule != nil && jobsCfg.Schedule.Source == config.SourceSQLite
	dedup := usesDedup(jobsCfg)

	var db *database.DB
	if sqliteSchedule || appCfg.ImportCSV != "" || (dedup && appCfg.RedisURL == "") {
		db, err = database.NewConnection(appCfg.DBPath)
		if err != nil {
			slog.Error("Failed to connect to database", "path", appCfg.DBPath, "error", err)
			return runner.StatusFatal.ExitCode()
		}
		defer db.Close()
	}

	if appCfg.ImportCSV != "" {
		if err := importCSV(ctx, db, appCfg.ImportCSV, jobsCfg.Schedule); err != nil {
			slog.Error("Failed to import schedule", "path", appCfg.ImportCSV, "error", err)
			return runner.StatusFatal.ExitCode()
		}
	}

	if sqliteSchedule {
		opts.Schedule = database.NewScheduleRepository(db)
	}

	var seenCache *cache.Cache
	if dedup {
		if appCfg.RedisURL != "" {
			seenCache, err = cache.NewCache(ctx, appCfg.RedisURL, jobsCfg.Settings.GetSeenRetention())
			if err != nil {
				slog.Error("Failed to connect to Redis", "error", err)
				return runner.StatusFatal.ExitCode()
			}
			defer seenCache.Close()
			opts.Seen = seenCache
		} else {
			opts.Seen = database.NewSeenRepository(db)
		}
	}

	registry := jobs.NewRegistry(jobsCfg, opts)

	if appCfg.Mode == cfg.ModeServe {
		return serve(ctx, appCfg, registry, seenCache)
	}

	mode, err := runner.ParseMode(appCfg.Mode)
	if err != nil {
		slog.Error("Invalid mode", "error", err)
		return runner.StatusFatal.ExitCode()
	}

	var result *runner.RunResult
	if mode == runner.ModeSchedule {
		result, err = registry.RunSchedule(ctx, appCfg.MaxCount)
	} else {
		result, err = registry.RunFeed(ctx, appCfg.Feed, mode, jobs.FeedOverrides{
			URL:        appCfg.FeedURL,
			MaxCount:   appCfg.MaxCount,
			Lookback:   appCfg.Lookback,
			MaxAgeDays: appCfg.MaxAgeDays,
		})
	}

	if err != nil {
		writeFatal(os.Stdout, mode, err)
		return runner.StatusFatal.ExitCode()
	}

	if err := writeReport(os.Stdout, result); err != nil {
		slog.Error("Failed to write report", "error", err)
	}

	return result.Status().ExitCode()
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	// stdout carries the run report
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

func usesDedup(c *config.Config) bool {
	for _, f := range c.Feeds {
		if f.Dedup {
			return true
		}
	}
	return false
}

func importCSV(ctx context.Context, db *database.DB, path string, job *config.Schedule) error {
	header := true
	if job != nil {
		header = job.HasHeader()
	}

	records, err := schedule.NewCSVStore(path, header).ReadAll(ctx)
	if err != nil {
		return err
	}

	n, err := database.NewScheduleRepository(db).Import(ctx, records)
	if err != nil {
		return err
	}

	slog.Info("Imported schedule rows", "path", path, "rows", n)
	return nil
}

type report struct {
	Status   runner.Status `json:"status"`
	ExitCode int           `json:"exit_code"`
	*runner.RunResult
}

func writeReport(w io.Writer, result *runner.RunResult) error {
	status := result.Status()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report{Status: status, ExitCode: status.ExitCode(), RunResult: result})
}

func writeFatal(w io.Writer, mode runner.Mode, err error) {
	out := map[string]any{
		"status":    runner.StatusFatal,
		"exit_code": runner.StatusFatal.ExitCode(),
		"mode":      mode,
		"error":     err.Error(),
	}

	var fatal *runner.FatalError
	if errors.As(err, &fatal) {
		out["kind"] = fatal.Kind
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(out); encErr != nil {
		slog.Error("Failed to write report", "error", encErr)
	}
}

func serve(ctx context.Context, appCfg *cfg.Cfg, registry *jobs.Registry, seenCache *cache.Cache) int {
	handler := api.NewHandler(registry, appCfg.Version)
	if seenCache != nil {
		handler.WithCache(seenCache)
	}
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port, "feeds", len(registry.Feeds()), "schedule", registry.HasSchedule())

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	exitCode := 0

	select {
	case <-ctx.Done():
		slog.Info("Received shutdown signal")
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
		exitCode = runner.StatusFatal.ExitCode()
	}

	slog.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	return exitCode
}
