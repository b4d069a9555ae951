// Package main provides the jury CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	service "github.com/okian/jury/internal/app"
	"github.com/okian/jury/internal/config"
	"github.com/okian/jury/internal/domain/scoring"
	"github.com/okian/jury/pkg/logger"
	"github.com/okian/jury/pkg/metrics"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "jury",
		Short: "Multi-stage judging, scoring and promotion engine",
		Long: `jury scores candidates per stage and category from weighted judge
evaluations, ranks them, promotes them through the stages and designates
the overall winner.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newDemoCmd(),
	)
	return rootCmd
}

// setup loads configuration (defaults -> optional file -> env) and
// initializes logging and metrics from it.
func setup(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	metrics.Configure(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithHistogramBuckets(cfg.MetricsBuckets),
		metrics.WithCustomLabels(cfg.MetricsLabels),
	)
	return cfg, nil
}

// newService creates a service with configuration options.
func newService(cfg *config.Config) (*service.Service, error) {
	mode, err := scoring.ParseMode(cfg.ScoreMode)
	if err != nil {
		return nil, err
	}
	return service.New(
		service.WithLogger(logger.Get().Named("service")),
		service.WithScoreMode(mode),
		service.WithStages(cfg.PreFinalStage, cfg.FinalStage, cfg.ResultsStage, cfg.RunnerUpStageID()),
		service.WithOpenStageCount(cfg.OpenStageCount),
		service.WithAuditQueueSize(cfg.AuditQueueSize),
		service.WithAuditWorkers(cfg.AuditWorkerCount),
		service.WithWeightTolerance(cfg.WeightTolerance),
		service.WithMaxAuditPage(cfg.MaxAuditPage),
	), nil
}
