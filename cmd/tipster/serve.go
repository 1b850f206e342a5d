package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yourusername/clever-tipster/internal/feed"
	"github.com/yourusername/clever-tipster/internal/health"
	"github.com/yourusername/clever-tipster/internal/pipeline"
	"github.com/yourusername/clever-tipster/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline on the configured schedule and serve health endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(parent context.Context) error {
	if !cfg.Scheduler.Enabled {
		return fmt.Errorf("serve requires scheduler.enabled")
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, repos, err := openRepositories(ctx)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	store, err := loadStore(ctx, repos)
	if err != nil {
		return err
	}
	orch, err := pipeline.NewOrchestrator(cfg.ToPipelineConfig(), store, logger)
	if err != nil {
		return err
	}
	source, err := feed.NewSource(cfg.Feed, logger)
	if err != nil {
		return err
	}

	var saver scheduler.DecisionSaver
	if repos != nil {
		saver = repos.Decision
	}
	job := scheduler.NewPipelineJob(source, orch, saver, logger)

	sched := scheduler.NewScheduler(logger)
	_, err = sched.Schedule("pipeline", cfg.Scheduler.Cron, cfg.Scheduler.RunTimeout,
		scheduler.ExecutorFunc(func(ctx context.Context) error {
			_, err := job.Execute(ctx)
			return err
		}))
	if err != nil {
		return err
	}

	healthCfg := health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Port:        strconv.Itoa(cfg.Metrics.Port),
		Logger:      logger,
		Status:      func() any { return job.LastRun() },
	}
	if db != nil {
		healthCfg.DB = db
	}
	if cfg.Metrics.Enabled {
		healthCfg.MetricsPath = cfg.Metrics.Path
	}
	server := health.NewServer(healthCfg)
	if err := server.Start(context.Background()); err != nil {
		return err
	}

	if err := sched.Start(); err != nil {
		return err
	}
	server.SetReady(true)
	logger.WithField("next_run", sched.GetNextRun()).Info("Tipster serving")

	<-ctx.Done()
	logger.Info("Shutdown signal received")
	server.SetReady(false)

	if err := sched.Stop(); err != nil {
		logger.WithError(err).Warn("Scheduler stop timed out")
	}
	if repos != nil {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownFlushTimeout)
		defer cancel()
		if err := store.Flush(flushCtx, repos.Reliability); err != nil {
			logger.WithError(err).Error("Failed to flush reliability profiles")
		}
	}
	return server.Shutdown()
}
