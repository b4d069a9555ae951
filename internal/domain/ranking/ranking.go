// Package ranking orders candidates inside a category and resolves
// promotions and the overall winner.
package ranking

import (
	"math"
	"sort"

	"github.com/okian/jury/internal/domain/aggregation"
)

// Entry is one candidate's standing in a (stage, category) pair.
type Entry struct {
	CandidateID   string   `json:"candidate_id"`
	CandidateName string   `json:"candidate_name,omitempty"`
	CategoryID    string   `json:"category_id"`
	StageID       string   `json:"stage_id"`
	Score         *float64 `json:"score"`

	// Rank is dense and shared on ties. Entries without a score have rank 0.
	Rank         int  `json:"rank"`
	TopPerformer bool `json:"top_performer"`
	Promoted     bool `json:"promoted"`
	// Winner is set on Final stage boards for the overall winner.
	Winner bool `json:"winner"`

	FinalizedCount int                 `json:"finalized_count"`
	TotalCount     int                 `json:"total_count"`
	PerCriterion   map[string]*float64 `json:"per_criterion,omitempty"`
}

// FromAggregate builds an entry from an aggregation result.
func FromAggregate(r aggregation.Result) Entry {
	return Entry{
		CandidateID:    r.CandidateID,
		CategoryID:     r.CategoryID,
		StageID:        r.StageID,
		Score:          r.Average,
		FinalizedCount: r.FinalizedCount,
		TotalCount:     r.TotalCount,
		PerCriterion:   r.PerCriterion,
	}
}

// ranksBefore orders scored entries above unscored ones and higher scores
// first. Scores may be negative.
func ranksBefore(a, b Entry) bool {
	switch {
	case a.Score == nil:
		return false
	case b.Score == nil:
		return true
	default:
		return *a.Score > *b.Score
	}
}

// RankCategory returns the entries of categoryID at stageID sorted by score
// descending, entries without a score last. Equal scores keep input order.
// Top performers are flagged. The input slice is not modified.
func RankCategory(categoryID, stageID string, entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.CategoryID != categoryID || (e.StageID != "" && e.StageID != stageID) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return ranksBefore(out[i], out[j])
	})
	assignRanksWithTies(out)
	for i := range out {
		out[i].TopPerformer = IsTopPerformer(out[i], out)
	}
	return out
}

// assignRanksWithTies gives equal scores the same rank and moves to the next
// consecutive rank on a lower score. Unscored entries keep rank 0.
func assignRanksWithTies(entries []Entry) {
	currentRank := 0
	var last float64
	for i := range entries {
		if entries[i].Score == nil {
			entries[i].Rank = 0
			continue
		}
		if currentRank == 0 || *entries[i].Score != last {
			currentRank++
			last = *entries[i].Score
		}
		entries[i].Rank = currentRank
	}
}

// IsTopPerformer reports whether e has a score at least equal to the best
// score among all. Every entry tied for the maximum qualifies.
func IsTopPerformer(e Entry, all []Entry) bool {
	if e.Score == nil {
		return false
	}
	best := math.Inf(-1)
	for _, o := range all {
		if o.Score != nil && *o.Score > best {
			best = *o.Score
		}
	}
	return *e.Score >= best
}
