package repository

import "errors"

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("repository: record not found")
	// ErrInvariantViolation aborts a transaction that would leave the image
	// index in an inconsistent state. Hitting it is a programmer error.
	ErrInvariantViolation = errors.New("repository: image index invariant violated")
	// ErrInvalidReorder is returned when a reorder sequence does not permute
	// the product's existing records.
	ErrInvalidReorder = errors.New("repository: reorder sequence does not match existing records")
)
