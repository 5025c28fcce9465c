package store

import "errors"

// Domain errors surfaced to callers. Handlers map these onto HTTP statuses
// with errors.Is.
var (
	// ErrNotFound is returned when a record does not exist locally.
	ErrNotFound = errors.New("record not found")

	// ErrValidation marks bad input shape. Validation failures are rejected
	// synchronously and never persisted.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientStock is returned when an operation would drive a
	// product's on-hand count below zero and the caller requires
	// non-negative stock.
	ErrInsufficientStock = errors.New("insufficient stock")
)
