// Package aggregation combines the finalized judge scores of a candidate into
// stage averages.
//
// A nil average means "no data yet" and is kept apart from a real 0. Nil
// values never take part in arithmetic.
package aggregation

import "github.com/okian/jury/internal/domain/model"

// Result is the aggregate of one (candidate, stage, category) tuple.
type Result struct {
	CandidateID string `json:"candidate_id"`
	StageID     string `json:"stage_id"`
	CategoryID  string `json:"category_id"`

	// Average is the mean final score over finalized assignments, nil if none.
	Average *float64 `json:"average"`

	// PerCriterion holds, per criterion, the mean raw score over finalized
	// assignments that scored it, nil if none did.
	PerCriterion map[string]*float64 `json:"per_criterion"`

	// FinalizedCount counts assignments that contributed to Average.
	FinalizedCount int `json:"finalized_count"`
	// TotalCount counts every assignment matching the tuple.
	TotalCount int `json:"total_count"`
}

// HasScore reports whether the aggregate carries a numeric average.
func (r Result) HasScore() bool { return r.Average != nil }

// AggregateForCandidate averages the finalized assignments matching the tuple.
// criteria lists the criteria whose averages are reported; criteria of other
// stages or categories are skipped.
func AggregateForCandidate(candidateID, stageID, categoryID string, assignments []model.Assignment, criteria []model.Criterion) Result {
	res := Result{
		CandidateID:  candidateID,
		StageID:      stageID,
		CategoryID:   categoryID,
		PerCriterion: make(map[string]*float64),
	}

	var finalized []*model.Assignment
	for i := range assignments {
		a := &assignments[i]
		if a.CandidateID != candidateID || a.StageID != stageID || a.CategoryID != categoryID {
			continue
		}
		res.TotalCount++
		if a.IsFinalized() {
			finalized = append(finalized, a)
		}
	}
	res.FinalizedCount = len(finalized)

	for i := range criteria {
		c := criteria[i]
		if c.StageID != stageID || c.CategoryID != categoryID {
			continue
		}
		var sum float64
		var n int
		for _, a := range finalized {
			if v, ok := a.Scores[c.ID]; ok {
				sum += v
				n++
			}
		}
		if n == 0 {
			res.PerCriterion[c.ID] = nil
			continue
		}
		avg := sum / float64(n)
		res.PerCriterion[c.ID] = &avg
	}

	if len(finalized) == 0 {
		return res
	}
	var sum float64
	for _, a := range finalized {
		sum += *a.FinalScore
	}
	avg := sum / float64(len(finalized))
	res.Average = &avg
	return res
}

// Summary holds headline numbers across a set of assignments.
type Summary struct {
	Assignments int      `json:"assignments"`
	Finalized   int      `json:"finalized"`
	InProgress  int      `json:"in_progress"`
	NotStarted  int      `json:"not_started"`
	Average     *float64 `json:"average"`
}

// Overall summarizes assignments by status and averages every finalized score.
func Overall(assignments []model.Assignment) Summary {
	var s Summary
	var sum float64
	for i := range assignments {
		a := &assignments[i]
		s.Assignments++
		switch a.Status {
		case model.StatusFinalized:
			if a.FinalScore == nil {
				continue
			}
			s.Finalized++
			sum += *a.FinalScore
		case model.StatusInProgress:
			s.InProgress++
		default:
			s.NotStarted++
		}
	}
	if s.Finalized > 0 {
		avg := sum / float64(s.Finalized)
		s.Average = &avg
	}
	return s
}
