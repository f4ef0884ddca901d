package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linkscore/linkscore-api/config"
	"github.com/linkscore/linkscore-api/internal/adapters/reaper"
	"github.com/linkscore/linkscore-api/internal/service"
)

// AnalysisWorkerConfig contains configuration for the analysis worker.
type AnalysisWorkerConfig struct {
	Worker *service.AnalysisWorker
	Logger *slog.Logger
}

// RunAnalysisWorker polls for pending analyses until ctx is cancelled.
func RunAnalysisWorker(ctx context.Context, cfg AnalysisWorkerConfig) error {
	if cfg.Worker == nil {
		return errors.New("analysis worker is not configured")
	}
	return cfg.Worker.Run(ctx)
}

// ReaperConfig contains configuration for the reaper service.
type ReaperConfig struct {
	Reaper *service.ReaperService
	Logger *slog.Logger
	Config config.ReaperConfig
}

// RunReaper schedules reaper sweeps until ctx is cancelled.
func RunReaper(ctx context.Context, cfg ReaperConfig) error {
	if cfg.Reaper == nil {
		return errors.New("reaper service is not configured")
	}
	runner, err := reaper.NewRunner(reaper.RunnerOptions{
		Reaper:     cfg.Reaper,
		Config:     cfg.Config,
		Logger:     cfg.Logger,
		RunOnStart: true,
	})
	if err != nil {
		return fmt.Errorf("create reaper runner: %w", err)
	}
	return runner.Run(ctx)
}
