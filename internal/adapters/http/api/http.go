// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/jury/internal/adapters/repository"
	service "github.com/okian/jury/internal/app"
	"github.com/okian/jury/internal/domain/model"
	"github.com/okian/jury/internal/domain/ranking"
	"github.com/okian/jury/internal/domain/scoring"
	"github.com/okian/jury/pkg/logger"
)

// ActorHeader carries the id of the user performing a mutation.
const ActorHeader = "X-Actor-ID"

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	StatsProvider

	ListCandidates(ctx context.Context) ([]model.Candidate, error)
	GetCandidate(ctx context.Context, id string) (model.Candidate, error)
	CreateCandidate(ctx context.Context, actorID string, in service.CandidateInput) (model.Candidate, error)
	UpdateCandidate(ctx context.Context, actorID, id string, in service.CandidateInput) (model.Candidate, error)
	DeleteCandidate(ctx context.Context, actorID, id string) (repository.CascadeResult, error)

	ListJudges(ctx context.Context) ([]model.Judge, error)
	CreateJudge(ctx context.Context, actorID string, in service.JudgeInput) (model.Judge, error)
	DeleteJudge(ctx context.Context, actorID, id string) (repository.CascadeResult, error)

	ListStages(ctx context.Context) ([]model.Stage, error)
	CreateStage(ctx context.Context, actorID string, in service.StageInput) (model.Stage, error)
	ToggleStage(ctx context.Context, actorID, id string) (model.Stage, error)
	DeleteStage(ctx context.Context, actorID, id string) (repository.CascadeResult, error)

	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, actorID string, in service.CategoryInput) (model.Category, error)
	DeleteCategory(ctx context.Context, actorID, id string) (repository.CascadeResult, error)

	ListCriteria(ctx context.Context) ([]model.Criterion, error)
	CreateCriterion(ctx context.Context, actorID string, in service.CriterionInput) (model.Criterion, error)
	UpdateCriterion(ctx context.Context, actorID, id string, in service.CriterionInput) (model.Criterion, error)
	DeleteCriterion(ctx context.Context, actorID, id string) error
	WeightWarnings(ctx context.Context) ([]scoring.WeightWarning, error)

	ListAssignments(ctx context.Context, f service.AssignmentFilter) ([]model.Assignment, error)
	GetAssignment(ctx context.Context, id string) (model.Assignment, error)
	CreateAssignment(ctx context.Context, actorID string, in service.AssignmentInput) (model.Assignment, error)
	Unassign(ctx context.Context, actorID, assignmentID string) error
	ImportAssignments(ctx context.Context, actorID, stageID string, pairs []service.ImportPair) (service.ImportSummary, error)
	EnterScore(ctx context.Context, assignmentID string, e service.ScoreEntry) (model.Assignment, error)
	SubmitAssignment(ctx context.Context, actorID, assignmentID string, version *int64) (model.Assignment, error)
	AdminEditScores(ctx context.Context, actorID, assignmentID string, edit service.AdminEdit) (model.Assignment, error)

	Leaderboard(ctx context.Context, stageID string) (service.Leaderboard, error)
	Finalists(ctx context.Context) ([]ranking.Finalist, error)
	Results(ctx context.Context) (service.Results, error)
	AuditLogs(ctx context.Context, f repository.AuditFilter) (service.AuditPage, error)

	Promote(ctx context.Context, actorID, candidateID, stageID string) (model.Candidate, bool, error)
	DesignateOverallWinner(ctx context.Context, actorID, candidateID, categoryID string) (ranking.WinnerOutcome, error)
	RevokeWinner(ctx context.Context, actorID string) (model.Candidate, error)
}

var _ Dependencies = (*service.Service)(nil)

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	entityHandler     *EntityHandler
	assignmentHandler *AssignmentHandler
	resultsHandler    *ResultsHandler
	promotionHandler  *PromotionHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(deps),
		entityHandler:     NewEntityHandler(deps),
		assignmentHandler: NewAssignmentHandler(deps),
		resultsHandler:    NewResultsHandler(deps),
		promotionHandler:  NewPromotionHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	handle := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(h, endpoint))
	}

	handle("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	handle("GET /stats", "stats", s.statsHandler.HandleStats)

	e := s.entityHandler
	handle("GET /candidates", "candidates", e.HandleListCandidates)
	handle("POST /candidates", "candidates", e.HandleCreateCandidate)
	handle("GET /candidates/{id}", "candidate", e.HandleGetCandidate)
	handle("PUT /candidates/{id}", "candidate", e.HandleUpdateCandidate)
	handle("DELETE /candidates/{id}", "candidate", e.HandleDeleteCandidate)
	handle("GET /judges", "judges", e.HandleListJudges)
	handle("POST /judges", "judges", e.HandleCreateJudge)
	handle("DELETE /judges/{id}", "judge", e.HandleDeleteJudge)
	handle("GET /stages", "stages", e.HandleListStages)
	handle("POST /stages", "stages", e.HandleCreateStage)
	handle("POST /stages/{id}/toggle", "stage_toggle", e.HandleToggleStage)
	handle("DELETE /stages/{id}", "stage", e.HandleDeleteStage)
	handle("GET /categories", "categories", e.HandleListCategories)
	handle("POST /categories", "categories", e.HandleCreateCategory)
	handle("DELETE /categories/{id}", "category", e.HandleDeleteCategory)
	handle("GET /criteria", "criteria", e.HandleListCriteria)
	handle("POST /criteria", "criteria", e.HandleCreateCriterion)
	handle("GET /criteria/warnings", "criteria_warnings", e.HandleWeightWarnings)
	handle("PUT /criteria/{id}", "criterion", e.HandleUpdateCriterion)
	handle("DELETE /criteria/{id}", "criterion", e.HandleDeleteCriterion)

	a := s.assignmentHandler
	handle("GET /assignments", "assignments", a.HandleList)
	handle("POST /assignments", "assignments", a.HandleCreate)
	handle("POST /assignments/import", "assignments_import", a.HandleImport)
	handle("GET /assignments/{id}", "assignment", a.HandleGet)
	handle("DELETE /assignments/{id}", "assignment", a.HandleUnassign)
	handle("POST /assignments/{id}/scores", "assignment_scores", a.HandleEnterScore)
	handle("POST /assignments/{id}/submit", "assignment_submit", a.HandleSubmit)
	handle("POST /assignments/{id}/admin-edit", "assignment_admin_edit", a.HandleAdminEdit)

	r := s.resultsHandler
	handle("GET /leaderboard", "leaderboard", r.HandleLeaderboard)
	handle("GET /finalists", "finalists", r.HandleFinalists)
	handle("GET /results", "results", r.HandleResults)
	handle("GET /audit", "audit", r.HandleAudit)

	p := s.promotionHandler
	handle("POST /promotions", "promotions", p.HandlePromote)
	handle("POST /winner", "winner", p.HandleDesignate)
	handle("DELETE /winner", "winner", p.HandleRevoke)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service errors into status codes.
func writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	err = Wrap(op, err)
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "validation_error", err)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrDuplicate):
		writeError(w, http.StatusConflict, "duplicate", err)
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, service.ErrWinnerExists):
		writeError(w, http.StatusConflict, "winner_exists", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		logger.Get().Named("api").Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// decode reads a JSON body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %w", ErrBadRequest, err)
	}
	return nil
}

// actor returns the caller id from ActorHeader.
func actor(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get(ActorHeader))
	if id == "" {
		return "", fmt.Errorf("%w: missing %s header", ErrBadRequest, ActorHeader)
	}
	return id, nil
}
