package ranking

import "errors"

var (
	// ErrWinnerExists is returned when an overall winner is already designated.
	ErrWinnerExists = errors.New("overall winner already designated")
	// ErrNoWinner is returned when revoking without a designated winner.
	ErrNoWinner = errors.New("no overall winner designated")
	// ErrCandidateNotFound is returned when the candidate id is unknown.
	ErrCandidateNotFound = errors.New("candidate not found")
	// ErrNotInCategory is returned when the winner is not enrolled in the category.
	ErrNotInCategory = errors.New("candidate not enrolled in category")
	// ErrUnknownStage is returned for a stage outside the sequence.
	ErrUnknownStage = errors.New("unknown stage")
)
