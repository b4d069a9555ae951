package ranking

import (
	"sort"
	"sync"

	"github.com/okian/jury/internal/domain/model"
)

// Finalist is a candidate in the Final stage with the pre-final aggregate of
// its best category.
type Finalist struct {
	Candidate      model.Candidate `json:"candidate"`
	CategoryID     string          `json:"category_id"`
	Score          float64         `json:"score"`
	FinalizedCount int             `json:"finalized_count"`
	TotalCount     int             `json:"total_count"`
	// Scored is false when the persisted winning category has no finalized
	// pre-final assignment; Score is then meaningless.
	Scored bool `json:"scored"`
	// Persisted is true when the category comes from the winner designation
	// instead of being inferred.
	Persisted bool `json:"persisted"`
}

// FinalistView derives the Final stage standings from pre-final results.
// The best-category inference is computed once per view and never stored.
type FinalistView struct {
	candidates  []model.Candidate
	assignments []model.Assignment
	preFinal    string

	once      sync.Once
	finalists []Finalist
}

// NewFinalistView builds a view over a snapshot of candidates and assignments.
func NewFinalistView(preFinalStageID string, candidates []model.Candidate, assignments []model.Assignment) *FinalistView {
	return &FinalistView{
		candidates:  candidates,
		assignments: assignments,
		preFinal:    preFinalStageID,
	}
}

// Finalists returns the candidates promoted from the pre-final stage that
// hold a finalized score there, best score first.
func (v *FinalistView) Finalists() []Finalist {
	v.once.Do(v.compute)
	return v.finalists
}

// BestCategory returns the inferred or persisted category of candidateID.
func (v *FinalistView) BestCategory(candidateID string) (string, bool) {
	for _, f := range v.Finalists() {
		if f.Candidate.ID == candidateID {
			return f.CategoryID, true
		}
	}
	return "", false
}

type catTally struct {
	id    string
	sum   float64
	count int
	total int
}

func (v *FinalistView) compute() {
	var out []Finalist
	for i := range v.candidates {
		c := v.candidates[i]
		if !c.PromotedFrom(v.preFinal) {
			continue
		}
		tallies := v.tally(c.ID)
		if len(tallies) == 0 {
			continue
		}
		best := -1
		var bestAvg float64
		for j, t := range tallies {
			if t.count == 0 {
				continue
			}
			if avg := t.sum / float64(t.count); best < 0 || avg > bestAvg {
				best, bestAvg = j, avg
			}
		}
		f := Finalist{Candidate: c.Clone()}
		if c.IsWinner && c.WinningCategoryID != "" {
			f.CategoryID = c.WinningCategoryID
			f.Persisted = true
			for _, t := range tallies {
				if t.id == c.WinningCategoryID && t.count > 0 {
					f.Score, f.Scored = t.sum/float64(t.count), true
					f.FinalizedCount, f.TotalCount = t.count, t.total
				}
			}
		} else {
			if best < 0 {
				continue
			}
			t := tallies[best]
			f.CategoryID, f.Score, f.Scored = t.id, bestAvg, true
			f.FinalizedCount, f.TotalCount = t.count, t.total
		}
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Scored != out[j].Scored {
			return out[i].Scored
		}
		return out[i].Score > out[j].Score
	})
	v.finalists = out
}

// tally groups the candidate's pre-final assignments by category in order of
// first appearance.
func (v *FinalistView) tally(candidateID string) []catTally {
	var tallies []catTally
	pos := make(map[string]int)
	for i := range v.assignments {
		a := &v.assignments[i]
		if a.CandidateID != candidateID || a.StageID != v.preFinal {
			continue
		}
		j, ok := pos[a.CategoryID]
		if !ok {
			j = len(tallies)
			pos[a.CategoryID] = j
			tallies = append(tallies, catTally{id: a.CategoryID})
		}
		tallies[j].total++
		if a.IsFinalized() {
			tallies[j].sum += *a.FinalScore
			tallies[j].count++
		}
	}
	return tallies
}

// CategoryWinners lists candidates promoted from the pre-final stage other
// than the overall winner, in store order.
func CategoryWinners(preFinalStageID string, candidates []model.Candidate) []model.Candidate {
	var out []model.Candidate
	for i := range candidates {
		c := candidates[i]
		if c.IsWinner || !c.PromotedFrom(preFinalStageID) {
			continue
		}
		out = append(out, c.Clone())
	}
	return out
}
