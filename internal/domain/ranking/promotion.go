package ranking

import (
	"github.com/okian/jury/internal/domain/aggregation"
	"github.com/okian/jury/internal/domain/model"
)

// Promote marks c as advanced out of stageID. It reports whether the flag
// changed; promoting twice is a no-op.
func Promote(c *model.Candidate, stageID string) bool {
	if c.Promotions == nil {
		c.Promotions = make(map[string]bool)
	}
	if c.Promotions[stageID] {
		return false
	}
	c.Promotions[stageID] = true
	return true
}

// CurrentWinner returns the index of the designated overall winner or -1.
func CurrentWinner(candidates []model.Candidate) int {
	for i := range candidates {
		if candidates[i].IsWinner {
			return i
		}
	}
	return -1
}

// WinnerContext carries the data the winner designation reads.
type WinnerContext struct {
	// Candidates is mutated in place.
	Candidates []model.Candidate
	// Assignments may span every stage; only PreFinalStageID is read.
	Assignments []model.Assignment
	// PreFinalStageID is the stage whose aggregates rank the runner-up.
	PreFinalStageID string
	// RunnerUpStageID is the promotion flag set on the runner-up.
	// Empty means PreFinalStageID.
	RunnerUpStageID string
}

// WinnerOutcome reports what DesignateOverallWinner changed.
type WinnerOutcome struct {
	Winner           model.Candidate  `json:"winner"`
	RunnerUp         *model.Candidate `json:"runner_up,omitempty"`
	RunnerUpPromoted bool             `json:"runner_up_promoted"`
	RunnerUpScore    *float64         `json:"runner_up_score,omitempty"`
	RunnerUpStageID  string           `json:"runner_up_stage_id,omitempty"`
}

// Participants ranks the candidates of categoryID that hold at least one
// finalized assignment at stageID in any category. A participant without a
// finalized assignment for categoryID is kept with a nil score and ranks last.
func Participants(categoryID, stageID string, candidates []model.Candidate, assignments []model.Assignment) []Entry {
	finalized := make(map[string]bool)
	for i := range assignments {
		a := &assignments[i]
		if a.StageID == stageID && a.IsFinalized() {
			finalized[a.CandidateID] = true
		}
	}
	var entries []Entry
	for i := range candidates {
		c := &candidates[i]
		if !c.InCategory(categoryID) || !finalized[c.ID] {
			continue
		}
		e := FromAggregate(aggregation.AggregateForCandidate(c.ID, stageID, categoryID, assignments, nil))
		e.CandidateName = c.Name
		entries = append(entries, e)
	}
	return RankCategory(categoryID, stageID, entries)
}

// DesignateOverallWinner marks candidateID as the single overall winner for
// categoryID and promotes the best other participant of that category at the
// pre-final stage. It fails with ErrWinnerExists while a winner is set.
func DesignateOverallWinner(candidateID, categoryID string, wc WinnerContext) (WinnerOutcome, error) {
	if CurrentWinner(wc.Candidates) >= 0 {
		return WinnerOutcome{}, ErrWinnerExists
	}
	idx := -1
	for i := range wc.Candidates {
		if wc.Candidates[i].ID == candidateID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return WinnerOutcome{}, ErrCandidateNotFound
	}
	if !wc.Candidates[idx].InCategory(categoryID) {
		return WinnerOutcome{}, ErrNotInCategory
	}

	// Rank before flagging so the winner's own entry is still comparable.
	ranked := Participants(categoryID, wc.PreFinalStageID, wc.Candidates, wc.Assignments)

	winner := &wc.Candidates[idx]
	winner.IsWinner = true
	winner.WinningCategoryID = categoryID

	out := WinnerOutcome{Winner: winner.Clone()}
	promoteTo := wc.RunnerUpStageID
	if promoteTo == "" {
		promoteTo = wc.PreFinalStageID
	}
	for _, e := range ranked {
		if e.CandidateID == candidateID {
			continue
		}
		for i := range wc.Candidates {
			if wc.Candidates[i].ID != e.CandidateID {
				continue
			}
			out.RunnerUpPromoted = Promote(&wc.Candidates[i], promoteTo)
			ru := wc.Candidates[i].Clone()
			out.RunnerUp = &ru
			out.RunnerUpScore = e.Score
			out.RunnerUpStageID = promoteTo
		}
		break
	}
	return out, nil
}

// RevokeWinner clears the overall winner flag and category. Promotions made
// at designation time stay in place. It returns the former winner.
func RevokeWinner(candidates []model.Candidate) (model.Candidate, error) {
	idx := CurrentWinner(candidates)
	if idx < 0 {
		return model.Candidate{}, ErrNoWinner
	}
	c := &candidates[idx]
	prev := c.Clone()
	c.IsWinner = false
	c.WinningCategoryID = ""
	return prev, nil
}
