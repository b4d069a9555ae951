package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	service "github.com/okian/jury/internal/app"
	"github.com/okian/jury/internal/config"
	"github.com/okian/jury/internal/domain/ranking"
	"github.com/okian/jury/internal/seed"
	"github.com/spf13/cobra"
)

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Print the leaderboards and finalists of the demo competition as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := setup(ctx)
			if err != nil {
				return err
			}
			return runDemo(ctx, cfg, cmd.OutOrStdout())
		},
	}
}

type demoReport struct {
	Leaderboards []service.Leaderboard `json:"leaderboards"`
	Finalists    []ranking.Finalist    `json:"finalists"`
	Stats        service.Stats         `json:"stats"`
}

// runDemo seeds a fresh service and writes every stage leaderboard plus the
// finalists to out.
func runDemo(ctx context.Context, cfg *config.Config, out io.Writer) error {
	svc, err := newService(cfg)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer func() { _ = svc.Stop(context.WithoutCancel(ctx)) }()

	if err := seed.Load(ctx, svc); err != nil {
		return fmt.Errorf("seed demo: %w", err)
	}

	stages, err := svc.ListStages(ctx)
	if err != nil {
		return err
	}
	var report demoReport
	for _, st := range stages {
		lb, err := svc.Leaderboard(ctx, st.ID)
		if err != nil {
			return fmt.Errorf("leaderboard %s: %w", st.ID, err)
		}
		report.Leaderboards = append(report.Leaderboards, lb)
	}
	if report.Finalists, err = svc.Finalists(ctx); err != nil {
		return err
	}
	report.Stats = svc.Stats(ctx)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
