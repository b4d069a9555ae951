// Package service composes the entity store, the scoring engine, the stage
// sequence and the audit pipeline into the operations the HTTP API and the
// CLI call.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/okian/jury/internal/adapters/mq/queue"
	"github.com/okian/jury/internal/adapters/mq/worker"
	"github.com/okian/jury/internal/adapters/repository"
	"github.com/okian/jury/internal/domain/model"
	"github.com/okian/jury/internal/domain/ranking"
	"github.com/okian/jury/internal/domain/scoring"
	"github.com/okian/jury/pkg/logger"
	"github.com/okian/jury/pkg/metrics"
)

// Default stage identifiers of the competition sequence.
const (
	DefaultPreFinalStage = "etapa4"
	DefaultFinalStage    = "etapa5"
	DefaultResultsStage  = "etapa_finala"
)

// Service applies every mutation of the competition. Mutations are
// serialized by writeMu; reads work on store snapshots.
type Service struct {
	mu      sync.RWMutex
	writeMu sync.Mutex

	// Core components
	store       repository.Store
	ownsStore   bool
	auditQueue  *queue.InMemoryQueue
	auditPool   *worker.Pool
	recorder    AuditRecorder
	ownRecorder bool
	scorer      *scoring.Scorer
	poolCancel  context.CancelFunc

	// Configuration
	scoreMode       scoring.Mode
	preFinalStage   string
	finalStage      string
	resultsStage    string
	runnerUpStage   string
	openStages      int
	auditQueueSize  int
	auditWorkers    int
	weightTolerance float64
	maxAuditPage    int
	now             func() time.Time

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects a store. The service does not close an injected store.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithScoreMode selects how an assignment's final score is computed.
func WithScoreMode(m scoring.Mode) Option {
	return func(s *Service) {
		if m != "" {
			s.scoreMode = m
		}
	}
}

// WithStages overrides the stage ids the ranking engine hard-references.
// Empty values keep the defaults.
func WithStages(preFinal, final, results, runnerUp string) Option {
	return func(s *Service) {
		if preFinal != "" {
			s.preFinalStage = preFinal
		}
		if final != "" {
			s.finalStage = final
		}
		if results != "" {
			s.resultsStage = results
		}
		s.runnerUpStage = runnerUp
	}
}

// WithOpenStageCount sets how many leading stages show every candidate.
func WithOpenStageCount(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.openStages = n
		}
	}
}

// WithAuditQueueSize bounds the audit queue.
func WithAuditQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.auditQueueSize = size
		}
	}
}

// WithAuditWorkers sets the number of audit writers.
func WithAuditWorkers(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.auditWorkers = count
		}
	}
}

// WithWeightTolerance sets the slack of the weight sum check.
func WithWeightTolerance(tol float64) Option {
	return func(s *Service) {
		if tol > 0 {
			s.weightTolerance = tol
		}
	}
}

// WithMaxAuditPage caps the page size of AuditLogs.
func WithMaxAuditPage(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAuditPage = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithAuditRecorder replaces the queue-backed audit pipeline.
func WithAuditRecorder(r AuditRecorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		scoreMode:       scoring.ModeWeightedSum,
		preFinalStage:   DefaultPreFinalStage,
		finalStage:      DefaultFinalStage,
		resultsStage:    DefaultResultsStage,
		openStages:      ranking.DefaultOpenStages,
		auditQueueSize:  4096,
		auditWorkers:    1,
		weightTolerance: scoring.DefaultWeightTolerance,
		maxAuditPage:    500,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates the store (unless injected) and the audit pipeline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting jury service...")

	if s.store == nil {
		s.store = repository.NewMemStore(ctx, repository.WithClock(s.now))
		s.ownsStore = true
	}
	s.scorer = scoring.NewScorer(scoring.WithMode(s.scoreMode))

	if s.recorder == nil {
		s.auditQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.auditQueueSize))
		s.auditPool = worker.NewPool(s.auditWorkers, s.auditQueue, s.store)
		// Audit writers outlive the request that started the service.
		poolCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		s.poolCancel = cancel
		s.auditPool.Start(poolCtx)
		s.recorder = newQueueRecorder(s.auditQueue, s.logger)
		s.ownRecorder = true
	}

	s.started = true
	s.logger.Info(ctx, "jury service started",
		logger.String("scoreMode", string(s.scoreMode)),
		logger.String("preFinalStage", s.preFinalStage),
		logger.String("finalStage", s.finalStage),
		logger.Int("auditWorkers", s.auditWorkers),
		logger.Int("auditQueueSize", s.auditQueueSize),
	)
	return nil
}

// Stop drains the audit queue and releases the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping jury service...")

	var firstErr error
	if s.auditPool != nil {
		if err := s.auditPool.Shutdown(ctx); err != nil {
			s.logger.Error(ctx, "audit pool shutdown", logger.Error(err))
			firstErr = err
		}
		s.poolCancel()
		s.auditPool, s.auditQueue = nil, nil
	}
	if s.ownRecorder {
		s.recorder, s.ownRecorder = nil, false
	}
	if s.ownsStore {
		if err := s.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.store, s.ownsStore = nil, false
	}

	s.started = false
	s.logger.Info(ctx, "jury service stopped")
	return firstErr
}

// Store returns the underlying store, or nil before Start.
func (s *Service) Store() repository.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// Stats is a point-in-time summary of the service.
type Stats struct {
	Started          bool   `json:"started"`
	ScoreMode        string `json:"score_mode"`
	PreFinalStage    string `json:"pre_final_stage"`
	FinalStage       string `json:"final_stage"`
	AuditWorkers     int    `json:"audit_workers"`
	AuditQueueLen    int    `json:"audit_queue_length"`
	AuditQueueCap    int    `json:"audit_queue_capacity"`
	Candidates       int    `json:"candidates"`
	Judges           int    `json:"judges"`
	Stages           int    `json:"stages"`
	Categories       int    `json:"categories"`
	Criteria         int    `json:"criteria"`
	Assignments      int    `json:"assignments"`
	Finalized        int    `json:"finalized"`
	InProgress       int    `json:"in_progress"`
	NotStarted       int    `json:"not_started"`
	WeightWarnings   int    `json:"weight_warnings"`
	WinnerDesignated bool   `json:"winner_designated"`
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Started:       s.started,
		ScoreMode:     string(s.scoreMode),
		PreFinalStage: s.preFinalStage,
		FinalStage:    s.finalStage,
		AuditWorkers:  s.auditWorkers,
	}
	if !s.started {
		return st
	}
	if s.auditQueue != nil {
		st.AuditQueueLen = s.auditQueue.Len(ctx)
		st.AuditQueueCap = s.auditQueue.Cap()
	}

	snap := s.store.Snapshot(ctx)
	st.Candidates = len(snap.Candidates)
	st.Judges = len(snap.Judges)
	st.Stages = len(snap.Stages)
	st.Categories = len(snap.Categories)
	st.Criteria = len(snap.Criteria)
	st.Assignments = len(snap.Assignments)
	for i := range snap.Assignments {
		switch snap.Assignments[i].Status {
		case model.StatusFinalized:
			st.Finalized++
		case model.StatusInProgress:
			st.InProgress++
		default:
			st.NotStarted++
		}
	}
	st.WeightWarnings = len(scoring.CheckWeights(snap.Criteria, s.weightTolerance))
	st.WinnerDesignated = ranking.CurrentWinner(snap.Candidates) >= 0

	metrics.UpdateWeightWarnings(st.WeightWarnings)
	return st
}

// running returns the store or ErrNotStarted.
func (s *Service) running() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// sequence builds the stage ordering from the current stage list.
func (s *Service) sequence(stages []model.Stage) *ranking.Sequence {
	return ranking.NewSequence(stages,
		ranking.WithOpenStages(s.openStages),
		ranking.WithFinal(s.preFinalStage, s.finalStage),
	)
}

func (s *Service) runnerUpStageID() string {
	if s.runnerUpStage != "" {
		return s.runnerUpStage
	}
	return s.preFinalStage
}
