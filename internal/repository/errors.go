package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyAssigned is returned when a guarded assignment update
	// matched no unassigned row because the delivery already has a courier.
	ErrAlreadyAssigned = errors.New("delivery already assigned")
)
