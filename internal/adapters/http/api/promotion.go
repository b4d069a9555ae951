package api

import (
	"net/http"

	"github.com/okian/jury/internal/domain/model"
)

// PromotionHandler serves stage promotion and overall winner routes.
type PromotionHandler struct {
	deps Dependencies
}

// NewPromotionHandler creates a new promotion handler.
func NewPromotionHandler(deps Dependencies) *PromotionHandler {
	return &PromotionHandler{deps: deps}
}

type promoteRequest struct {
	CandidateID string `json:"candidate_id"`
	StageID     string `json:"stage_id"`
}

type promoteResponse struct {
	Candidate model.Candidate `json:"candidate"`
	Changed   bool            `json:"changed"`
}

type designateRequest struct {
	CandidateID string `json:"candidate_id"`
	CategoryID  string `json:"category_id"`
}

// HandlePromote handles POST /promotions. Promoting twice is a no-op and
// reports changed=false.
func (h *PromotionHandler) HandlePromote(w http.ResponseWriter, r *http.Request) {
	const op = "api.promote"
	actorID, err := actor(r)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	var req promoteRequest
	if err := decode(w, r, &req); err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	c, changed, err := h.deps.Promote(r.Context(), actorID, req.CandidateID, req.StageID)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, promoteResponse{Candidate: c, Changed: changed})
}

// HandleDesignate handles POST /winner.
func (h *PromotionHandler) HandleDesignate(w http.ResponseWriter, r *http.Request) {
	const op = "api.designate_winner"
	actorID, err := actor(r)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	var req designateRequest
	if err := decode(w, r, &req); err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	out, err := h.deps.DesignateOverallWinner(r.Context(), actorID, req.CandidateID, req.CategoryID)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleRevoke handles DELETE /winner.
func (h *PromotionHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	const op = "api.revoke_winner"
	actorID, err := actor(r)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	prev, err := h.deps.RevokeWinner(r.Context(), actorID)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, prev)
}
