package api

import (
	"fmt"
	"net/http"

	service "github.com/okian/jury/internal/app"
	"github.com/okian/jury/internal/domain/model"
)

// AssignmentHandler serves assignment, scoring and import routes.
type AssignmentHandler struct {
	deps Dependencies
}

// NewAssignmentHandler creates a new assignment handler.
func NewAssignmentHandler(deps Dependencies) *AssignmentHandler {
	return &AssignmentHandler{deps: deps}
}

type importRequest struct {
	StageID string               `json:"stage_id"`
	Rows    []service.ImportPair `json:"rows"`
}

type submitRequest struct {
	Version *int64 `json:"version,omitempty"`
}

// HandleList handles GET /assignments with optional stage, judge, candidate,
// category and status filters.
func (h *AssignmentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := service.AssignmentFilter{
		StageID:     q.Get("stage"),
		JudgeID:     q.Get("judge"),
		CandidateID: q.Get("candidate"),
		CategoryID:  q.Get("category"),
		Status:      model.Status(q.Get("status")),
	}
	if f.Status != "" && !f.Status.Valid() {
		writeServiceError(r.Context(), w, "api.list_assignments",
			fmt.Errorf("%w: unknown status %q", ErrBadRequest, f.Status))
		return
	}
	out, err := h.deps.ListAssignments(r.Context(), f)
	if err != nil {
		writeServiceError(r.Context(), w, "api.list_assignments", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /assignments/{id}.
func (h *AssignmentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.GetAssignment(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, "api.get_assignment", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleCreate handles POST /assignments.
func (h *AssignmentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_assignment"
	actorID, err := actor(r)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	var in service.AssignmentInput
	if err := decode(w, r, &in); err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	out, err := h.deps.CreateAssignment(r.Context(), actorID, in)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// HandleUnassign handles DELETE /assignments/{id}.
func (h *AssignmentHandler) HandleUnassign(w http.ResponseWriter, r *http.Request) {
	const op = "api.unassign"
	actorID, err := actor(r)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	if err := h.deps.Unassign(r.Context(), actorID, r.PathValue("id")); err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleImport handles POST /assignments/import. Row errors are part of the
// summary and do not fail the request.
func (h *AssignmentHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	const op = "api.import_assignments"
	actorID, err := actor(r)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	var req importRequest
	if err := decode(w, r, &req); err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	if req.StageID == "" {
		writeServiceError(r.Context(), w, op, fmt.Errorf("%w: stage_id is required", ErrBadRequest))
		return
	}
	sum, err := h.deps.ImportAssignments(r.Context(), actorID, req.StageID, req.Rows)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// HandleEnterScore handles POST /assignments/{id}/scores.
func (h *AssignmentHandler) HandleEnterScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.enter_score"
	var e service.ScoreEntry
	if err := decode(w, r, &e); err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	out, err := h.deps.EnterScore(r.Context(), r.PathValue("id"), e)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleSubmit handles POST /assignments/{id}/submit. The body is optional.
func (h *AssignmentHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_assignment"
	actorID, err := actor(r)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	var req submitRequest
	if r.ContentLength != 0 {
		if err := decode(w, r, &req); err != nil {
			writeServiceError(r.Context(), w, op, err)
			return
		}
	}
	out, err := h.deps.SubmitAssignment(r.Context(), actorID, r.PathValue("id"), req.Version)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleAdminEdit handles POST /assignments/{id}/admin-edit.
func (h *AssignmentHandler) HandleAdminEdit(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_edit"
	actorID, err := actor(r)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	var edit service.AdminEdit
	if err := decode(w, r, &edit); err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	out, err := h.deps.AdminEditScores(r.Context(), actorID, r.PathValue("id"), edit)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
