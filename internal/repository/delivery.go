package repository

import (
	"context"

	"delivery/internal/domain"
)

// DeliveryFilter narrows List results. Zero values mean "no filter".
type DeliveryFilter struct {
	Status    domain.DeliveryStatus
	CourierID string
	Limit     int
	Offset    int
}

// DeliveryRepository defines the persistence operations for deliveries.
type DeliveryRepository interface {
	// Create persists a new delivery.
	Create(ctx context.Context, delivery *domain.Delivery) error

	// GetByID retrieves a delivery by ID.
	GetByID(ctx context.Context, id string) (*domain.Delivery, error)

	// Update updates an existing delivery.
	Update(ctx context.Context, delivery *domain.Delivery) error

	// AssignCourier sets the courier and moves the delivery to PREPARING,
	// guarded by the "no courier yet" precondition. Returns
	// ErrAlreadyAssigned if the delivery already has a courier.
	AssignCourier(ctx context.Context, deliveryID, courierID string) error

	// List retrieves deliveries matching the filter, newest first, along
	// with the total count ignoring pagination.
	List(ctx context.Context, filter DeliveryFilter) ([]*domain.Delivery, int, error)

	// ListPending retrieves unassigned PENDING deliveries oldest first.
	ListPending(ctx context.Context) ([]*domain.Delivery, error)

	// ListRatedByCourier retrieves every rated delivery for a courier.
	ListRatedByCourier(ctx context.Context, courierID string) ([]*domain.Delivery, error)
}
