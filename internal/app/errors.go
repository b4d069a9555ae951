package service

import (
	"errors"
	"fmt"

	"github.com/okian/jury/internal/adapters/repository"
	"github.com/okian/jury/internal/domain/ranking"
)

// Service errors.
var (
	// ErrNotStarted is returned by every operation before Start.
	ErrNotStarted = errors.New("service not started")
	// ErrValidation wraps every rejected input.
	ErrValidation = errors.New("validation failed")
	// ErrReasonRequired is returned when an admin changes an existing score
	// without a reason.
	ErrReasonRequired = fmt.Errorf("%w: reason required to change an existing score", ErrValidation)
	// ErrOutOfBounds is returned for a score outside its criterion range.
	ErrOutOfBounds = fmt.Errorf("%w: score out of bounds", ErrValidation)
	// ErrNotEnrolled is returned when a candidate is not in the category.
	ErrNotEnrolled = fmt.Errorf("%w: candidate not enrolled in category", ErrValidation)
	// ErrFinalized is returned when a judge edits a finalized assignment.
	ErrFinalized = fmt.Errorf("%w: assignment already finalized", ErrValidation)
)

// Store and domain errors re-exported for callers of the service.
var (
	ErrNotFound     = repository.ErrNotFound
	ErrDuplicate    = repository.ErrDuplicate
	ErrConflict     = repository.ErrConflict
	ErrWinnerExists = ranking.ErrWinnerExists
)

// mapDomainError folds ranking errors into the service taxonomy.
func mapDomainError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ranking.ErrCandidateNotFound),
		errors.Is(err, ranking.ErrNoWinner),
		errors.Is(err, ranking.ErrUnknownStage):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, ranking.ErrNotInCategory):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return err
}
