package redis

import (
	"context"
	"time"
)

// LocationStoreInterface defines the interface for courier location operations.
type LocationStoreInterface interface {
	UpdateLocation(ctx context.Context, courierID string, lat, lng float64) error
	FindNearbyCouriers(ctx context.Context, lat, lng, radiusKm float64) ([]CourierLocation, error)
	RemoveLocation(ctx context.Context, courierID string) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireDeliveryLock(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error)
	ReleaseDeliveryLock(ctx context.Context, deliveryID string) error
	AcquireCourierLock(ctx context.Context, courierID string, ttl time.Duration) (bool, error)
	ReleaseCourierLock(ctx context.Context, courierID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
)
