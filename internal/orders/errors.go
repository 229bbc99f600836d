package orders

import "errors"

var (
	// ErrValidation covers malformed input: empty cart, bad quantities,
	// items from another restaurant, missing address fields.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned for unknown order ids.
	ErrNotFound = errors.New("order not found")
	// ErrForbidden is returned on role or ownership mismatch.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict is returned when an exclusive assignment race is lost.
	ErrConflict = errors.New("order already taken")
	// ErrInvalidTransition is returned for status changes outside the table.
	ErrInvalidTransition = errors.New("invalid status transition")
)
