package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOrderID is returned when order ID is empty.
	ErrInvalidOrderID = errors.New("invalid order id")

	// ErrInvalidDeliveryID is returned when delivery ID is empty.
	ErrInvalidDeliveryID = errors.New("invalid delivery id")

	// ErrInvalidCourierID is returned when courier ID is empty.
	ErrInvalidCourierID = errors.New("invalid courier id")

	// ErrInvalidDistance is returned when a distance is negative or not finite.
	ErrInvalidDistance = errors.New("invalid distance")

	// ErrInvalidStatus is returned when a delivery status is unknown.
	ErrInvalidStatus = errors.New("invalid delivery status")

	// ErrInvalidCourierStatus is returned when a courier status is unknown
	// or not settable by the courier.
	ErrInvalidCourierStatus = errors.New("invalid courier status")

	// ErrInvalidLocation is returned when location coordinates are invalid.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidRating is returned when a rating is outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrCourierAlreadyAssigned is returned when a delivery already has a courier.
	ErrCourierAlreadyAssigned = errors.New("delivery already has an assigned courier")

	// ErrCourierNotAvailable is returned when the courier is not AVAILABLE.
	ErrCourierNotAvailable = errors.New("courier is not available")

	// ErrDeliveryClosed is returned on any attempt to mutate a delivery in
	// a terminal state.
	ErrDeliveryClosed = errors.New("delivery is in a terminal state")

	// ErrNoCourierAssigned is returned when rating a delivery that has no courier.
	ErrNoCourierAssigned = errors.New("delivery has no assigned courier")

	// ErrNoCourierAvailable is returned when auto-assignment finds no candidate.
	ErrNoCourierAvailable = errors.New("no courier available")

	// ErrAssignmentInProgress is returned when another assignment holds the
	// delivery lock.
	ErrAssignmentInProgress = errors.New("assignment already in progress")

	// ErrInvalidBaseConfig is returned when a base config violates its
	// numeric invariants.
	ErrInvalidBaseConfig = errors.New("invalid base fee config")

	// ErrInvalidTimeRange is returned when a time range is malformed
	// (midnight wrap, empty day set, multiplier below 1).
	ErrInvalidTimeRange = errors.New("invalid time range")

	// ErrInvalidDistanceRange is returned when a distance range is malformed.
	ErrInvalidDistanceRange = errors.New("invalid distance range")

	// ErrRangeOverlap is the sentinel matched by errors.Is for range
	// conflicts; the concrete error is a *RangeConflictError carrying the
	// id of the stored range that overlaps.
	ErrRangeOverlap = errors.New("range overlaps an existing range")
)

// RangeConflictError reports that a candidate range overlaps a stored one.
// ConflictingID names the stored range so an admin UI can point at it.
type RangeConflictError struct {
	ConflictingID string
}

func (e *RangeConflictError) Error() string {
	return fmt.Sprintf("range overlaps existing range %s", e.ConflictingID)
}

// Unwrap allows errors.Is(err, ErrRangeOverlap).
func (e *RangeConflictError) Unwrap() error { return ErrRangeOverlap }
