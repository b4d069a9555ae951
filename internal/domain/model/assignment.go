package model

import (
	"errors"
	"time"
)

// Status is the progress of an assignment.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusFinalized  Status = "finalized"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusFinalized:
		return true
	}
	return false
}

// ErrAlreadyFinalized is returned when submitting an assignment twice.
var ErrAlreadyFinalized = errors.New("assignment already finalized")

// AssignmentKey identifies the unique (candidate, judge, stage, category) tuple.
type AssignmentKey struct {
	CandidateID string
	JudgeID     string
	StageID     string
	CategoryID  string
}

// Assignment is one judge evaluating one candidate for a stage and category.
type Assignment struct {
	ID          string `json:"id"`
	CandidateID string `json:"candidate_id"`
	JudgeID     string `json:"judge_id"`
	StageID     string `json:"stage_id"`
	CategoryID  string `json:"category_id"`
	Status      Status `json:"status"`

	// Scores holds only the criteria the judge has touched.
	Scores       map[string]float64 `json:"scores"`
	FinalScore   *float64           `json:"final_score,omitempty"`
	Observations map[string]string  `json:"observations"`
	LastModified time.Time          `json:"last_modified"`

	// Version increases on every mutation.
	Version int64 `json:"version"`
}

// NewAssignment returns a NotStarted assignment for key.
func NewAssignment(key AssignmentKey, now time.Time) Assignment {
	return Assignment{
		CandidateID:  key.CandidateID,
		JudgeID:      key.JudgeID,
		StageID:      key.StageID,
		CategoryID:   key.CategoryID,
		Status:       StatusNotStarted,
		Scores:       map[string]float64{},
		Observations: map[string]string{},
		LastModified: now,
	}
}

// Key returns the uniqueness tuple of the assignment.
func (a *Assignment) Key() AssignmentKey {
	return AssignmentKey{
		CandidateID: a.CandidateID,
		JudgeID:     a.JudgeID,
		StageID:     a.StageID,
		CategoryID:  a.CategoryID,
	}
}

// IsFinalized reports whether the assignment carries a usable final score.
func (a *Assignment) IsFinalized() bool {
	return a.Status == StatusFinalized && a.FinalScore != nil
}

// SetScore records a raw score for criterionID. The first score moves a
// NotStarted assignment to InProgress; a Finalized one stays Finalized.
func (a *Assignment) SetScore(criterionID string, value float64, now time.Time) {
	if a.Scores == nil {
		a.Scores = map[string]float64{}
	}
	a.Scores[criterionID] = value
	if a.Status == StatusNotStarted || a.Status == "" {
		a.Status = StatusInProgress
	}
	a.touch(now)
}

// SetObservation stores free text for criterionID. Empty text removes it.
func (a *Assignment) SetObservation(criterionID, text string, now time.Time) {
	if a.Observations == nil {
		a.Observations = map[string]string{}
	}
	if text == "" {
		delete(a.Observations, criterionID)
	} else {
		a.Observations[criterionID] = text
	}
	a.touch(now)
}

// Finalize submits the assignment with its computed score.
func (a *Assignment) Finalize(score float64, now time.Time) error {
	if a.Status == StatusFinalized {
		return ErrAlreadyFinalized
	}
	a.Status = StatusFinalized
	a.FinalScore = &score
	a.touch(now)
	return nil
}

// Rescore replaces the final score of a finalized assignment. It is a no-op
// for assignments that are not finalized, keeping FinalScore nil for them.
func (a *Assignment) Rescore(score float64, now time.Time) {
	if a.Status != StatusFinalized {
		return
	}
	a.FinalScore = &score
	a.touch(now)
}

func (a *Assignment) touch(now time.Time) {
	a.LastModified = now
	a.Version++
}

// Clone returns a deep copy of the assignment.
func (a Assignment) Clone() Assignment {
	out := a
	out.Scores = make(map[string]float64, len(a.Scores))
	for k, v := range a.Scores {
		out.Scores[k] = v
	}
	out.Observations = make(map[string]string, len(a.Observations))
	for k, v := range a.Observations {
		out.Observations[k] = v
	}
	if a.FinalScore != nil {
		v := *a.FinalScore
		out.FinalScore = &v
	}
	return out
}
