// Package config defines service configuration structures and loading hooks.
package config

import "context"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// AuditQueueSize bounds the in-memory audit queue.
	AuditQueueSize int `koanf:"audit_queue_size" validate:"min=1"`

	// AuditWorkerCount sets the number of audit writers. One keeps entries in order.
	AuditWorkerCount int `koanf:"audit_worker_count" validate:"min=1"`

	// PreFinalStage is the canonical pre-final stage the Final draws from.
	PreFinalStage string `koanf:"pre_final_stage" validate:"required"`

	// FinalStage is the stage that reuses pre-final aggregates.
	FinalStage string `koanf:"final_stage" validate:"required"`

	// ResultsStage is the closing stage listing winners.
	ResultsStage string `koanf:"results_stage"`

	// RunnerUpStage is the promotion flag set on the runner-up when a winner
	// is designated. Empty means PreFinalStage.
	RunnerUpStage string `koanf:"runner_up_stage"`

	// OpenStageCount is how many leading stages show every candidate.
	OpenStageCount int `koanf:"open_stage_count" validate:"min=0"`

	// ScoreMode is weighted_sum or normalized.
	ScoreMode string `koanf:"score_mode" validate:"oneof=weighted_sum normalized"`

	// WeightTolerance is the slack around a criteria weight sum of 1.0.
	WeightTolerance float64 `koanf:"weight_tolerance" validate:"gt=0"`

	// MaxAuditPage caps GET /audit?limit.
	MaxAuditPage int `koanf:"max_audit_page" validate:"min=1"`

	// SeedDemo loads the demo competition at startup.
	SeedDemo bool `koanf:"seed_demo"`

	// MetricsNamespace and MetricsSubsystem prefix every Prometheus metric.
	MetricsNamespace string `koanf:"metrics_namespace" validate:"required"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsBuckets overrides the latency histogram buckets, in milliseconds.
	MetricsBuckets []float64 `koanf:"metrics_buckets" validate:"dive,gt=0"`

	// MetricsLabels are constant labels added to every metric.
	MetricsLabels map[string]string `koanf:"metrics_labels"`
}

// New creates a Config with defaults. Context is accepted first to follow
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		AuditQueueSize:   4096,
		AuditWorkerCount: 1,
		PreFinalStage:    "etapa4",
		FinalStage:       "etapa5",
		ResultsStage:     "etapa_finala",
		OpenStageCount:   3,
		ScoreMode:        "weighted_sum",
		WeightTolerance:  1e-6,
		MaxAuditPage:     500,
		MetricsNamespace: "jury",
		MetricsSubsystem: "engine",
	}
}

// RunnerUpStageID returns the promotion stage for the runner-up.
func (c *Config) RunnerUpStageID() string {
	if c.RunnerUpStage != "" {
		return c.RunnerUpStage
	}
	return c.PreFinalStage
}
