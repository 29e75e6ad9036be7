package repository

import (
	"context"

	"delivery/internal/domain"
)

// CourierRepository defines the persistence operations for couriers.
type CourierRepository interface {
	// Create adds a new courier.
	Create(ctx context.Context, courier *domain.Courier) error

	// GetByID retrieves a courier by ID.
	GetByID(ctx context.Context, id string) (*domain.Courier, error)

	// GetByPhone retrieves a courier by phone number.
	GetByPhone(ctx context.Context, phone string) (*domain.Courier, error)

	// GetAll retrieves all couriers.
	GetAll(ctx context.Context) ([]*domain.Courier, error)

	// UpdateStatus updates the status of a courier.
	UpdateStatus(ctx context.Context, id string, status domain.CourierStatus) error

	// IncrementDeliveries adds one to the courier's completed delivery count.
	IncrementDeliveries(ctx context.Context, id string) error

	// UpdateRating writes the courier's aggregated mean rating.
	UpdateRating(ctx context.Context, id string, rating float64) error
}
