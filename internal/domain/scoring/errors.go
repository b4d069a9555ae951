package scoring

import "errors"

var (
	// ErrUnknownMode is returned for a score mode other than weighted_sum or normalized.
	ErrUnknownMode = errors.New("unknown score mode")
)
