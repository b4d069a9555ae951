// Package model contains the competition entities shared by every layer.
package model

import "time"

// Role tags a user of the platform.
type Role string

const (
	RoleJudge  Role = "judge"
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

// Candidate competes in one or more categories.
type Candidate struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Title         string   `json:"title,omitempty"`
	School        string   `json:"school,omitempty"`
	Region        string   `json:"region,omitempty"`
	CategoryIDs   []string `json:"category_ids"`
	PhotoURL      string   `json:"photo_url,omitempty"`
	SubmissionURL string   `json:"submission_url,omitempty"`

	// Promotions maps a stage id to true once the candidate advanced out of it.
	Promotions map[string]bool `json:"promotions,omitempty"`

	IsWinner          bool   `json:"is_winner,omitempty"`
	WinningCategoryID string `json:"winning_category_id,omitempty"`
}

// InCategory reports whether the candidate is enrolled in categoryID.
func (c *Candidate) InCategory(categoryID string) bool {
	for _, id := range c.CategoryIDs {
		if id == categoryID {
			return true
		}
	}
	return false
}

// PromotedFrom reports whether the candidate advanced out of stageID.
func (c *Candidate) PromotedFrom(stageID string) bool {
	return c.Promotions[stageID]
}

// Clone returns a deep copy so callers can mutate without aliasing the store.
func (c Candidate) Clone() Candidate {
	out := c
	out.CategoryIDs = append([]string(nil), c.CategoryIDs...)
	if c.Promotions != nil {
		out.Promotions = make(map[string]bool, len(c.Promotions))
		for k, v := range c.Promotions {
			out.Promotions[k] = v
		}
	}
	return out
}

// Judge evaluates candidates.
type Judge struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Stage is one phase of the competition. Stages keep their creation order.
type Stage struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Category is an award track.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Criterion is a weighted scoring dimension of one stage and category.
type Criterion struct {
	ID          string  `json:"id"`
	StageID     string  `json:"stage_id"`
	CategoryID  string  `json:"category_id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Weight      float64 `json:"weight"`
	ScoreMin    float64 `json:"score_min"`
	ScoreMax    float64 `json:"score_max"`
}

// AuditLog is an immutable record of a mutation.
type AuditLog struct {
	ID        string       `json:"id"`
	ActorID   string       `json:"actor_id"`
	Action    Action       `json:"action"`
	Details   AuditDetails `json:"details"`
	Timestamp time.Time    `json:"timestamp"`
}

// Action names an audited mutation.
type Action string

const (
	ActionCreateCandidate   Action = "candidate.create"
	ActionUpdateCandidate   Action = "candidate.update"
	ActionDeleteCandidate   Action = "candidate.delete"
	ActionCreateJudge       Action = "judge.create"
	ActionDeleteJudge       Action = "judge.delete"
	ActionCreateStage       Action = "stage.create"
	ActionToggleStage       Action = "stage.toggle"
	ActionDeleteStage       Action = "stage.delete"
	ActionCreateCategory    Action = "category.create"
	ActionDeleteCategory    Action = "category.delete"
	ActionCreateCriterion   Action = "criterion.create"
	ActionUpdateCriterion   Action = "criterion.update"
	ActionDeleteCriterion   Action = "criterion.delete"
	ActionCreateAssignment  Action = "assignment.create"
	ActionImportAssignment  Action = "assignment.import"
	ActionDeleteAssignment  Action = "assignment.delete"
	ActionSubmitAssignment  Action = "assignment.submit"
	ActionAdminScoreEdit    Action = "score.admin_edit"
	ActionPromote           Action = "candidate.promote"
	ActionDesignateWinner   Action = "winner.designate"
	ActionRevokeWinner      Action = "winner.revoke"
	ActionRunnerUpPromotion Action = "winner.runner_up_promote"
)

// AuditDetails is the fixed schema of an audit payload. Unused fields stay zero.
type AuditDetails struct {
	CandidateID   string   `json:"candidate_id,omitempty"`
	CandidateName string   `json:"candidate_name,omitempty"`
	JudgeID       string   `json:"judge_id,omitempty"`
	JudgeName     string   `json:"judge_name,omitempty"`
	StageID       string   `json:"stage_id,omitempty"`
	CategoryID    string   `json:"category_id,omitempty"`
	CriterionID   string   `json:"criterion_id,omitempty"`
	OldStatus     Status   `json:"old_status,omitempty"`
	NewStatus     Status   `json:"new_status,omitempty"`
	OldScore      *float64 `json:"old_score,omitempty"`
	NewScore      *float64 `json:"new_score,omitempty"`
	Field         string   `json:"field,omitempty"`
	OldValue      string   `json:"old_value,omitempty"`
	NewValue      string   `json:"new_value,omitempty"`
	Reason        string   `json:"reason"`
	ChangeCount   int      `json:"change_count,omitempty"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
