// Package scoring turns per-criterion raw scores into a single weighted
// assignment score.
package scoring

import (
	"math"

	"github.com/okian/jury/internal/domain/model"
)

// Mode selects how a partially scored assignment is combined.
type Mode string

const (
	// ModeWeightedSum is Σ score*weight over the scored criteria.
	ModeWeightedSum Mode = "weighted_sum"
	// ModeNormalized divides the weighted sum by the scored criteria's weight.
	ModeNormalized Mode = "normalized"
)

// ParseMode maps a config string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeWeightedSum, ModeNormalized:
		return Mode(s), nil
	case "":
		return ModeWeightedSum, nil
	}
	return "", ErrUnknownMode
}

// ComputeFinalScore returns Σ score*weight over the criteria present in
// scores. It returns 0 when the scored criteria carry no weight. Values are
// not clamped.
func ComputeFinalScore(scores map[string]float64, criteria []model.Criterion) float64 {
	total, weighted := accumulate(scores, criteria)
	if total == 0 {
		return 0
	}
	return weighted
}

// ComputeNormalized is ComputeFinalScore divided by the weight of the scored
// criteria, so an incomplete evaluation stays on the criterion scale.
func ComputeNormalized(scores map[string]float64, criteria []model.Criterion) float64 {
	total, weighted := accumulate(scores, criteria)
	if total == 0 {
		return 0
	}
	return weighted / total
}

func accumulate(scores map[string]float64, criteria []model.Criterion) (total, weighted float64) {
	for i := range criteria {
		v, ok := scores[criteria[i].ID]
		if !ok {
			continue
		}
		total += criteria[i].Weight
		weighted += v * criteria[i].Weight
	}
	return total, weighted
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithMode sets the combination mode. Unknown modes are ignored.
func WithMode(m Mode) Option {
	return func(s *Scorer) {
		if m == ModeWeightedSum || m == ModeNormalized {
			s.mode = m
		}
	}
}

// Scorer computes assignment scores in a configured Mode.
type Scorer struct {
	mode Mode
}

// NewScorer creates a scorer, defaulting to ModeWeightedSum.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{mode: ModeWeightedSum}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode returns the active mode.
func (s *Scorer) Mode() Mode { return s.mode }

// Score computes the final score of one assignment.
func (s *Scorer) Score(scores map[string]float64, criteria []model.Criterion) float64 {
	if s.mode == ModeNormalized {
		return ComputeNormalized(scores, criteria)
	}
	return ComputeFinalScore(scores, criteria)
}

// InBounds reports whether v lies in the criterion's inclusive range.
func InBounds(c model.Criterion, v float64) bool {
	if math.IsNaN(v) {
		return false
	}
	return v >= c.ScoreMin && v <= c.ScoreMax
}

// Clamp forces v into the criterion's inclusive range.
func Clamp(c model.Criterion, v float64) float64 {
	return math.Max(c.ScoreMin, math.Min(c.ScoreMax, v))
}
