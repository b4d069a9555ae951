package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/jury/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.AuditQueueSize, convey.ShouldEqual, 4096)
				convey.So(cfg.PreFinalStage, convey.ShouldEqual, "etapa4")
				convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "jury")
				convey.So(cfg.MetricsSubsystem, convey.ShouldEqual, "engine")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("JURY_ADDR", ":8080")
			_ = os.Setenv("JURY_AUDIT_QUEUE_SIZE", "64")
			_ = os.Setenv("JURY_SCORE_MODE", "normalized")
			_ = os.Setenv("JURY_SEED_DEMO", "true")
			_ = os.Setenv("JURY_WEIGHT_TOLERANCE", "0.01")
			_ = os.Setenv("JURY_METRICS_NAMESPACE", "contest")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.AuditQueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.ScoreMode, convey.ShouldEqual, "normalized")
				convey.So(cfg.SeedDemo, convey.ShouldBeTrue)
				convey.So(cfg.WeightTolerance, convey.ShouldEqual, 0.01)
				convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "contest")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
audit_worker_count: 2
pre_final_stage: national
final_stage: final
runner_up_stage: final
metrics_buckets: [1, 5, 25]
metrics_labels:
  region: north
`
			tmpFile := createTempConfigFile(t, yamlContent)
			_ = os.Setenv("JURY_CONFIG", tmpFile)
			_ = os.Setenv("JURY_ADDR", ":8080")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.AuditWorkerCount, convey.ShouldEqual, 2)
				convey.So(cfg.PreFinalStage, convey.ShouldEqual, "national")
				convey.So(cfg.FinalStage, convey.ShouldEqual, "final")
				convey.So(cfg.RunnerUpStageID(), convey.ShouldEqual, "final")
				convey.So(cfg.MetricsBuckets, convey.ShouldResemble, []float64{1, 5, 25})
				convey.So(cfg.MetricsLabels, convey.ShouldResemble, map[string]string{"region": "north"})
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("JURY_CONFIG", "/nonexistent/jury.yaml")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the loaded values are invalid", func() {
			_ = os.Setenv("JURY_LOG_FORMAT", "xml")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "jury-*.yaml")
	if err != nil {
		t.Fatalf("create temp config: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	_ = f.Close()
	return f.Name()
}

func clearConfigEnvVars() {
	for _, k := range []string{
		"JURY_CONFIG", "JURY_ADDR", "JURY_AUDIT_QUEUE_SIZE", "JURY_SCORE_MODE",
		"JURY_SEED_DEMO", "JURY_WEIGHT_TOLERANCE", "JURY_LOG_FORMAT",
		"JURY_METRICS_NAMESPACE",
	} {
		_ = os.Unsetenv(k)
	}
}
