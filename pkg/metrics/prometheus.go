// Package metrics provides Prometheus metrics for the jury service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Scoring
	scoresComputed      prometheus.Counter
	scoreEntries        prometheus.Counter
	assignmentsFinalize prometheus.Counter
	adminScoreEdits     prometheus.Counter
	rankingLatency      prometheus.Histogram

	// Promotion
	promotions       *prometheus.CounterVec
	winnersAssigned  prometheus.Counter
	winnersRevoked   prometheus.Counter
	runnerUpBackfill prometheus.Counter

	// Store
	entities       *prometheus.GaugeVec
	cascadeDeletes *prometheus.CounterVec
	weightWarnings prometheus.Gauge

	// Audit pipeline
	auditEnqueued   prometheus.Counter
	auditDropped    prometheus.Counter
	auditWritten    prometheus.Counter
	auditQueueSize  prometheus.Gauge
	auditQueueCap   prometheus.Gauge
	auditWorkers    prometheus.Gauge
	auditWriteError prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "jury",
		subsystem:        "engine",
		histogramBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.scoresComputed = m.counter("scores_computed_total", "Weighted final scores computed for assignments")
	m.scoreEntries = m.counter("score_entries_total", "Per-criterion raw scores entered by judges")
	m.assignmentsFinalize = m.counter("assignments_finalized_total", "Assignments submitted as finalized")
	m.adminScoreEdits = m.counter("admin_score_edits_total", "Criterion scores corrected by admins")
	m.rankingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "ranking_latency_milliseconds",
		Help:        "Time to build a stage leaderboard in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	})

	m.promotions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "promotions_total",
		Help:        "Candidates promoted out of a stage",
		ConstLabels: m.customLabels,
	}, []string{"stage"})
	m.winnersAssigned = m.counter("overall_winners_designated_total", "Overall winner designations")
	m.winnersRevoked = m.counter("overall_winners_revoked_total", "Overall winner revocations")
	m.runnerUpBackfill = m.counter("runner_up_promotions_total", "Runner-ups promoted automatically after a winner designation")

	m.entities = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "entities",
		Help:        "Number of stored entities by kind",
		ConstLabels: m.customLabels,
	}, []string{"kind"})
	m.cascadeDeletes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "cascade_deleted_total",
		Help:        "Entities removed by cascade deletes, by kind",
		ConstLabels: m.customLabels,
	}, []string{"kind"})
	m.weightWarnings = m.gauge("weight_warnings", "Stage and category pairs whose criteria weights do not sum to 1")

	m.auditEnqueued = m.counter("audit_enqueued_total", "Audit entries accepted by the audit queue")
	m.auditDropped = m.counter("audit_dropped_total", "Audit entries dropped because the queue was full or closed")
	m.auditWritten = m.counter("audit_written_total", "Audit entries appended to the audit log")
	m.auditWriteError = m.counter("audit_write_errors_total", "Audit entries that failed to append")
	m.auditQueueSize = m.gauge("audit_queue_size", "Current audit queue backlog")
	m.auditQueueCap = m.gauge("audit_queue_capacity", "Audit queue capacity")
	m.auditWorkers = m.gauge("audit_workers", "Running audit workers")

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "HTTP requests by endpoint, method and status",
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_total",
		Help:        "Errors by component and type",
		ConstLabels: m.customLabels,
	}, []string{"component", "type"})
}

// RecordScoreComputed counts one weighted final score computation.
func RecordScoreComputed() { globalManager.scoresComputed.Inc() }

// RecordScoreEntry counts one raw criterion score entered by a judge.
func RecordScoreEntry() { globalManager.scoreEntries.Inc() }

// RecordAssignmentFinalized counts one submitted assignment.
func RecordAssignmentFinalized() { globalManager.assignmentsFinalize.Inc() }

// RecordAdminScoreEdit counts corrected criterion scores.
func RecordAdminScoreEdit(n int) { globalManager.adminScoreEdits.Add(float64(n)) }

// RecordRankingLatency records leaderboard build time in milliseconds.
func RecordRankingLatency(ms float64) { globalManager.rankingLatency.Observe(ms) }

// RecordPromotion counts a promotion out of stageID.
func RecordPromotion(stageID string) { globalManager.promotions.WithLabelValues(stageID).Inc() }

// RecordWinnerDesignated counts an overall winner designation.
func RecordWinnerDesignated() { globalManager.winnersAssigned.Inc() }

// RecordWinnerRevoked counts an overall winner revocation.
func RecordWinnerRevoked() { globalManager.winnersRevoked.Inc() }

// RecordRunnerUpPromotion counts an automatic runner-up promotion.
func RecordRunnerUpPromotion() { globalManager.runnerUpBackfill.Inc() }

// UpdateEntityCount sets the stored entity count for kind.
func UpdateEntityCount(kind string, n int) {
	globalManager.entities.WithLabelValues(kind).Set(float64(n))
}

// RecordCascadeDelete counts n entities of kind removed by a cascade.
func RecordCascadeDelete(kind string, n int) {
	if n > 0 {
		globalManager.cascadeDeletes.WithLabelValues(kind).Add(float64(n))
	}
}

// UpdateWeightWarnings sets the number of unbalanced weight tables.
func UpdateWeightWarnings(n int) { globalManager.weightWarnings.Set(float64(n)) }

// RecordAuditEnqueued counts an accepted audit entry.
func RecordAuditEnqueued() { globalManager.auditEnqueued.Inc() }

// RecordAuditDropped counts a dropped audit entry.
func RecordAuditDropped() { globalManager.auditDropped.Inc() }

// RecordAuditWritten counts an appended audit entry.
func RecordAuditWritten() { globalManager.auditWritten.Inc() }

// RecordAuditWriteError counts a failed audit append.
func RecordAuditWriteError() { globalManager.auditWriteError.Inc() }

// UpdateAuditQueueSize sets the audit backlog.
func UpdateAuditQueueSize(n int) { globalManager.auditQueueSize.Set(float64(n)) }

// UpdateAuditQueueCapacity sets the audit queue capacity.
func UpdateAuditQueueCapacity(n int) { globalManager.auditQueueCap.Set(float64(n)) }

// UpdateAuditWorkers sets the number of running audit workers.
func UpdateAuditWorkers(n int) { globalManager.auditWorkers.Set(float64(n)) }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

// RecordError counts an error for component with errorType.
func RecordError(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// Configure rebuilds the global collectors on a fresh registry with opts.
// Counts recorded before the call are discarded. Call it once at startup,
// before any handler reads GetRegistry.
func Configure(opts ...Option) {
	reg := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(reg))...)
	customRegistry = reg
}

// GetRegistry returns the custom Prometheus registry used by the service.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
