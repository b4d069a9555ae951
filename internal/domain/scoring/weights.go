package scoring

import (
	"math"

	"github.com/okian/jury/internal/domain/model"
)

// DefaultWeightTolerance is the slack allowed around a weight sum of 1.0.
const DefaultWeightTolerance = 1e-6

// WeightWarning flags a (stage, category) whose criteria weights do not sum to 1.0.
// It is advisory and never blocks scoring.
type WeightWarning struct {
	StageID    string  `json:"stage_id"`
	CategoryID string  `json:"category_id"`
	Sum        float64 `json:"sum"`
	Criteria   int     `json:"criteria"`
}

// WeightSum returns the total weight of the criteria for stageID and categoryID.
func WeightSum(criteria []model.Criterion, stageID, categoryID string) float64 {
	var sum float64
	for i := range criteria {
		if criteria[i].StageID == stageID && criteria[i].CategoryID == categoryID {
			sum += criteria[i].Weight
		}
	}
	return sum
}

// CheckWeights groups criteria by (stage, category) and reports every group
// whose sum is off by more than tolerance. Groups appear in the order their
// first criterion appears.
func CheckWeights(criteria []model.Criterion, tolerance float64) []WeightWarning {
	if tolerance <= 0 {
		tolerance = DefaultWeightTolerance
	}
	type group struct {
		stage, category string
	}
	idx := make(map[group]int)
	var out []WeightWarning
	for i := range criteria {
		g := group{criteria[i].StageID, criteria[i].CategoryID}
		pos, ok := idx[g]
		if !ok {
			pos = len(out)
			idx[g] = pos
			out = append(out, WeightWarning{StageID: g.stage, CategoryID: g.category})
		}
		out[pos].Sum += criteria[i].Weight
		out[pos].Criteria++
	}
	warnings := out[:0]
	for _, w := range out {
		if math.Abs(w.Sum-1) > tolerance {
			warnings = append(warnings, w)
		}
	}
	return warnings
}
