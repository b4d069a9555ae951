package ranking

import "github.com/okian/jury/internal/domain/model"

// DefaultOpenStages is how many leading stages show every candidate.
const DefaultOpenStages = 3

// Sequence decides which candidates are in play at each stage.
type Sequence struct {
	stages     []model.Stage
	openStages int
	preFinal   string
	final      string
}

// SequenceOption configures a Sequence.
type SequenceOption func(*Sequence)

// WithOpenStages sets how many leading stages are open to everyone.
func WithOpenStages(n int) SequenceOption {
	return func(s *Sequence) {
		if n >= 0 {
			s.openStages = n
		}
	}
}

// WithFinal names the pre-final stage and the Final stage that draws from it.
func WithFinal(preFinalStageID, finalStageID string) SequenceOption {
	return func(s *Sequence) {
		s.preFinal = preFinalStageID
		s.final = finalStageID
	}
}

// NewSequence builds a sequence over stages in their stored order.
func NewSequence(stages []model.Stage, opts ...SequenceOption) *Sequence {
	s := &Sequence{
		stages:     append([]model.Stage(nil), stages...),
		openStages: DefaultOpenStages,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Index returns the position of stageID or -1.
func (s *Sequence) Index(stageID string) int {
	for i := range s.stages {
		if s.stages[i].ID == stageID {
			return i
		}
	}
	return -1
}

// IsFinal reports whether stageID is the Final stage.
func (s *Sequence) IsFinal(stageID string) bool {
	return s.final != "" && stageID == s.final
}

// PreFinal returns the canonical pre-final stage id.
func (s *Sequence) PreFinal() string { return s.preFinal }

// Final returns the Final stage id.
func (s *Sequence) Final() string { return s.final }

// GateStage returns the stage whose promotion flag admits candidates to
// stageID. It is empty for open stages.
func (s *Sequence) GateStage(stageID string) (string, error) {
	idx := s.Index(stageID)
	if idx < 0 {
		return "", ErrUnknownStage
	}
	if s.IsFinal(stageID) {
		return s.preFinal, nil
	}
	if idx < s.openStages || idx == 0 {
		return "", nil
	}
	return s.stages[idx-1].ID, nil
}

// Visible filters candidates to those in play at stageID, keeping their order.
func (s *Sequence) Visible(stageID string, candidates []model.Candidate) ([]model.Candidate, error) {
	gate, err := s.GateStage(stageID)
	if err != nil {
		return nil, err
	}
	if gate == "" {
		return candidates, nil
	}
	out := make([]model.Candidate, 0, len(candidates))
	for i := range candidates {
		if candidates[i].PromotedFrom(gate) {
			out = append(out, candidates[i])
		}
	}
	return out, nil
}
