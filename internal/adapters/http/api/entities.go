package api

import (
	"net/http"

	service "github.com/okian/jury/internal/app"
)

// EntityHandler serves the CRUD routes of candidates, judges, stages,
// categories and criteria.
type EntityHandler struct {
	deps Dependencies
}

// NewEntityHandler creates a new entity handler.
func NewEntityHandler(deps Dependencies) *EntityHandler {
	return &EntityHandler{deps: deps}
}

// HandleListCandidates handles GET /candidates.
func (h *EntityHandler) HandleListCandidates(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.ListCandidates(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, "api.list_candidates", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGetCandidate handles GET /candidates/{id}.
func (h *EntityHandler) HandleGetCandidate(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.GetCandidate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, "api.get_candidate", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleCreateCandidate handles POST /candidates.
func (h *EntityHandler) HandleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_candidate"
	actorID, err := actor(r)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	var in service.CandidateInput
	if err := decode(w, r, &in); err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	out, err := h.deps.CreateCandidate(r.Context(), actorID, in)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// HandleUpdateCandidate handles PUT /candidates/{id}.
func (h *EntityHandler) HandleUpdateCandidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_candidate"
	actorID, err := actor(r)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	var in service.CandidateInput
	if err := decode(w, r, &in); err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	out, err := h.deps.UpdateCandidate(r.Context(), actorID, r.PathValue("id"), in)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleDeleteCandidate handles DELETE /candidates/{id}.
func (h *EntityHandler) HandleDeleteCandidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_candidate"
	actorID, err := actor(r)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	res, err := h.deps.DeleteCandidate(r.Context(), actorID, r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleListJudges handles GET /judges.
func (h *EntityHandler) HandleListJudges(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.ListJudges(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, "api.list_judges", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleCreateJudge handles POST /judges.
func (h *EntityHandler) HandleCreateJudge(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_judge"
	actorID, err := actor(r)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	var in service.JudgeInput
	if err := decode(w, r, &in); err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	out, err := h.deps.CreateJudge(r.Context(), actorID, in)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// HandleDeleteJudge handles DELETE /judges/{id}.
func (h *EntityHandler) HandleDeleteJudge(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_judge"
	actorID, err := actor(r)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	res, err := h.deps.DeleteJudge(r.Context(), actorID, r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleListStages handles GET /stages.
func (h *EntityHandler) HandleListStages(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.ListStages(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, "api.list_stages", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleCreateStage handles POST /stages.
func (h *EntityHandler) HandleCreateStage(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_stage"
	actorID, err := actor(r)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	var in service.StageInput
	if err := decode(w, r, &in); err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	out, err := h.deps.CreateStage(r.Context(), actorID, in)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// HandleToggleStage handles POST /stages/{id}/toggle.
func (h *EntityHandler) HandleToggleStage(w http.ResponseWriter, r *http.Request) {
	const op = "api.toggle_stage"
	actorID, err := actor(r)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	out, err := h.deps.ToggleStage(r.Context(), actorID, r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleDeleteStage handles DELETE /stages/{id}.
func (h *EntityHandler) HandleDeleteStage(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_stage"
	actorID, err := actor(r)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	res, err := h.deps.DeleteStage(r.Context(), actorID, r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleListCategories handles GET /categories.
func (h *EntityHandler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.ListCategories(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, "api.list_categories", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleCreateCategory handles POST /categories.
func (h *EntityHandler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_category"
	actorID, err := actor(r)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	var in service.CategoryInput
	if err := decode(w, r, &in); err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	out, err := h.deps.CreateCategory(r.Context(), actorID, in)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// HandleDeleteCategory handles DELETE /categories/{id}.
func (h *EntityHandler) HandleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_category"
	actorID, err := actor(r)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	res, err := h.deps.DeleteCategory(r.Context(), actorID, r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleListCriteria handles GET /criteria.
func (h *EntityHandler) HandleListCriteria(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.ListCriteria(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, "api.list_criteria", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleCreateCriterion handles POST /criteria.
func (h *EntityHandler) HandleCreateCriterion(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_criterion"
	actorID, err := actor(r)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	var in service.CriterionInput
	if err := decode(w, r, &in); err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	out, err := h.deps.CreateCriterion(r.Context(), actorID, in)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// HandleUpdateCriterion handles PUT /criteria/{id}.
func (h *EntityHandler) HandleUpdateCriterion(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_criterion"
	actorID, err := actor(r)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	var in service.CriterionInput
	if err := decode(w, r, &in); err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	out, err := h.deps.UpdateCriterion(r.Context(), actorID, r.PathValue("id"), in)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleDeleteCriterion handles DELETE /criteria/{id}.
func (h *EntityHandler) HandleDeleteCriterion(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_criterion"
	actorID, err := actor(r)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	if err := h.deps.DeleteCriterion(r.Context(), actorID, r.PathValue("id")); err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleWeightWarnings handles GET /criteria/warnings.
func (h *EntityHandler) HandleWeightWarnings(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.WeightWarnings(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, "api.weight_warnings", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
