package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/jury/internal/adapters/http/api"
	"github.com/okian/jury/internal/config"
	"github.com/okian/jury/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			// Test with environment variables
			_ = os.Setenv("JURY_ADDR", ":8080")
			_ = os.Setenv("JURY_AUDIT_QUEUE_SIZE", "1000")
			_ = os.Setenv("JURY_SCORE_MODE", "normalized")
			defer func() {
				_ = os.Unsetenv("JURY_ADDR")
				_ = os.Unsetenv("JURY_AUDIT_QUEUE_SIZE")
				_ = os.Unsetenv("JURY_SCORE_MODE")
			}()

			convey.Convey("Then configuration and the service follow it", func() {
				ctx := context.Background()
				cfg, err := setup(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.AuditQueueSize, convey.ShouldEqual, 1000)

				svc, err := newService(cfg)
				convey.So(err, convey.ShouldBeNil)
				convey.So(svc.Start(ctx), convey.ShouldBeNil)
				defer func() { _ = svc.Stop(ctx) }()
				stats := svc.Stats(ctx)
				convey.So(stats.ScoreMode, convey.ShouldEqual, "normalized")
				convey.So(stats.AuditQueueCap, convey.ShouldEqual, 1000)
			})
		})

		convey.Convey("When the score mode is unknown", func() {
			cfg := config.New(context.Background())
			cfg.ScoreMode = "median"

			convey.Convey("Then the service is not built", func() {
				_, err := newService(cfg)
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the root command is built", func() {
			root := newRootCmd()

			convey.Convey("Then it carries the serve and demo commands", func() {
				names := map[string]bool{}
				for _, c := range root.Commands() {
					names[c.Name()] = true
				}
				convey.So(names["serve"], convey.ShouldBeTrue)
				convey.So(names["demo"], convey.ShouldBeTrue)
			})
		})
	})
}

func TestRunDemo(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)

		convey.Convey("When the demo runs", func() {
			var buf bytes.Buffer
			err := runDemo(ctx, cfg, &buf)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then every stage and the finalists are printed", func() {
				var report demoReport
				convey.So(json.Unmarshal(buf.Bytes(), &report), convey.ShouldBeNil)
				convey.So(len(report.Leaderboards), convey.ShouldEqual, 6)
				convey.So(len(report.Finalists), convey.ShouldEqual, 3)
				convey.So(report.Finalists[0].Candidate.ID, convey.ShouldEqual, "c2")
				convey.So(report.Stats.Candidates, convey.ShouldEqual, 6)
			})
		})
	})
}

func TestRunServe(t *testing.T) {
	convey.Convey("Given a server on an ephemeral port", t, func() {
		cfg := config.New(context.Background())
		cfg.Addr = "127.0.0.1:0"
		cfg.SeedDemo = true

		convey.Convey("When the context is cancelled it shuts down cleanly", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()
			convey.So(runServe(ctx, cfg), convey.ShouldBeNil)
		})

		convey.Convey("When the address cannot be bound it reports a serve error", func() {
			cfg.Addr = "127.0.0.1:-1"
			err := runServe(context.Background(), cfg)
			convey.So(errors.Is(err, api.ErrServe), convey.ShouldBeTrue)
		})
	})
}
