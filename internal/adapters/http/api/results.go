package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/jury/internal/adapters/repository"
	"github.com/okian/jury/internal/domain/model"
)

// ResultsHandler serves the read side: leaderboards, finalists, results and
// the audit log.
type ResultsHandler struct {
	deps Dependencies
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(deps Dependencies) *ResultsHandler {
	return &ResultsHandler{deps: deps}
}

// HandleLeaderboard handles GET /leaderboard?stage=<id>.
func (h *ResultsHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.leaderboard"
	stageID := r.URL.Query().Get("stage")
	if stageID == "" {
		writeServiceError(r.Context(), w, op, fmt.Errorf("%w: stage is required", ErrBadRequest))
		return
	}
	lb, err := h.deps.Leaderboard(r.Context(), stageID)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

// HandleFinalists handles GET /finalists.
func (h *ResultsHandler) HandleFinalists(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.Finalists(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, "api.finalists", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleResults handles GET /results.
func (h *ResultsHandler) HandleResults(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.Results(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, "api.results", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleAudit handles GET /audit with optional actor, action, candidate,
// offset and limit parameters.
func (h *ResultsHandler) HandleAudit(w http.ResponseWriter, r *http.Request) {
	const op = "api.audit"
	q := r.URL.Query()
	f := repository.AuditFilter{
		ActorID:     q.Get("actor"),
		Action:      model.Action(q.Get("action")),
		CandidateID: q.Get("candidate"),
	}
	var err error
	if f.Offset, err = intParam(q.Get("offset")); err != nil {
		writeServiceError(r.Context(), w, op, fmt.Errorf("%w: offset: %w", ErrBadRequest, err))
		return
	}
	if f.Limit, err = intParam(q.Get("limit")); err != nil {
		writeServiceError(r.Context(), w, op, fmt.Errorf("%w: limit: %w", ErrBadRequest, err))
		return
	}
	page, err := h.deps.AuditLogs(r.Context(), f)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative value %d", n)
	}
	return n, nil
}
