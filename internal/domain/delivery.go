package domain

import "time"

// DeliveryStatus represents the current status of a delivery.
type DeliveryStatus string

const (
	DeliveryStatusPending    DeliveryStatus = "PENDING"
	DeliveryStatusPreparing  DeliveryStatus = "PREPARING"
	DeliveryStatusDelivering DeliveryStatus = "DELIVERING"
	DeliveryStatusDelivered  DeliveryStatus = "DELIVERED"
	DeliveryStatusCancelled  DeliveryStatus = "CANCELLED"
)

// IsTerminal reports whether the status allows no further transitions.
func (s DeliveryStatus) IsTerminal() bool {
	return s == DeliveryStatusDelivered || s == DeliveryStatusCancelled
}

// ValidDeliveryStatus reports whether s is one of the known statuses.
func ValidDeliveryStatus(s DeliveryStatus) bool {
	switch s {
	case DeliveryStatusPending, DeliveryStatusPreparing, DeliveryStatusDelivering,
		DeliveryStatusDelivered, DeliveryStatusCancelled:
		return true
	default:
		return false
	}
}

// Delivery represents a delivery for an order. Fee and EstimatedMinutes are
// computed once at creation and never change afterwards.
type Delivery struct {
	ID               string
	OrderID          string
	Status           DeliveryStatus
	Fee              float64
	DistanceKm       float64
	EstimatedMinutes int
	CourierID        string // empty until a courier is assigned, set at most once
	StartTime        time.Time
	EndTime          time.Time
	CustomerRating   int // 0 = not rated, otherwise 1..5
	CustomerFeedback string
	CreatedAt        time.Time
}
