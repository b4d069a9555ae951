package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound  = errors.New("entity not found")
	ErrDuplicate = errors.New("entity already exists")
	ErrConflict  = errors.New("entity modified concurrently")
)
