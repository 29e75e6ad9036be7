package repository

import (
	"context"

	"delivery/internal/domain"
)

// PricingRepository defines the persistence operations for the fee
// configuration. The in-memory pricing store is authoritative at runtime;
// this repository is its durable backing, loaded once at startup and
// written through on every admin mutation.
type PricingRepository interface {
	// GetBaseConfig retrieves the single base fee configuration row.
	// Returns ErrNotFound when the store has never been seeded.
	GetBaseConfig(ctx context.Context) (*domain.BaseFeeConfig, error)

	// SaveBaseConfig replaces the base fee configuration (upsert).
	SaveBaseConfig(ctx context.Context, cfg domain.BaseFeeConfig) error

	// ListTimeRanges retrieves all configured time ranges.
	ListTimeRanges(ctx context.Context) ([]domain.TimeRange, error)

	// InsertTimeRange persists a new time range.
	InsertTimeRange(ctx context.Context, r domain.TimeRange) error

	// DeleteTimeRange removes a time range by ID. No-op if absent.
	DeleteTimeRange(ctx context.Context, id string) error

	// ListDistanceRanges retrieves all configured distance ranges.
	ListDistanceRanges(ctx context.Context) ([]domain.DistanceRange, error)

	// InsertDistanceRange persists a new distance range.
	InsertDistanceRange(ctx context.Context, r domain.DistanceRange) error

	// DeleteDistanceRange removes a distance range by ID. No-op if absent.
	DeleteDistanceRange(ctx context.Context, id string) error
}
