package repository

import (
	"context"

	"delivery/internal/domain"
)

// OrderRepository defines the persistence operations for orders. The
// delivery engine only needs existence checks; Create exists so the order
// collaborator can be exercised end to end.
type OrderRepository interface {
	// Create persists a new order.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by ID.
	GetByID(ctx context.Context, id string) (*domain.Order, error)
}
