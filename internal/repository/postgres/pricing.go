package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"delivery/internal/domain"
	"delivery/internal/repository"
)

// PricingRepository is a PostgreSQL implementation of repository.PricingRepository.
type PricingRepository struct {
	q Querier
}

// NewPricingRepository creates a new PostgreSQL pricing repository.
func NewPricingRepository(db *sql.DB) *PricingRepository {
	return &PricingRepository{q: db}
}

// GetBaseConfig retrieves the single base fee configuration row.
func (r *PricingRepository) GetBaseConfig(ctx context.Context) (*domain.BaseFeeConfig, error) {
	query := `SELECT base_fee, fee_per_km, min_distance_km, max_distance_km FROM pricing_config WHERE id = 1`

	var cfg domain.BaseFeeConfig
	err := r.q.QueryRowContext(ctx, query).Scan(
		&cfg.BaseFee,
		&cfg.FeePerKm,
		&cfg.MinDistanceKm,
		&cfg.MaxDistanceKm,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &cfg, nil
}

// SaveBaseConfig replaces the base fee configuration. The table holds a
// single row keyed by id = 1.
func (r *PricingRepository) SaveBaseConfig(ctx context.Context, cfg domain.BaseFeeConfig) error {
	query := `
		INSERT INTO pricing_config (id, base_fee, fee_per_km, min_distance_km, max_distance_km)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET base_fee = $1, fee_per_km = $2, min_distance_km = $3, max_distance_km = $4
	`

	_, err := r.q.ExecContext(ctx, query, cfg.BaseFee, cfg.FeePerKm, cfg.MinDistanceKm, cfg.MaxDistanceKm)
	return err
}

// ListTimeRanges retrieves all configured time ranges.
func (r *PricingRepository) ListTimeRanges(ctx context.Context) ([]domain.TimeRange, error) {
	query := `SELECT id, start_minute, end_minute, multiplier, days FROM pricing_time_ranges ORDER BY start_minute`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ranges []domain.TimeRange
	for rows.Next() {
		var tr domain.TimeRange
		var days pq.Int64Array
		if err := rows.Scan(&tr.ID, &tr.StartMinute, &tr.EndMinute, &tr.Multiplier, &days); err != nil {
			return nil, err
		}
		tr.Days = weekdaysFromInts(days)
		ranges = append(ranges, tr)
	}
	return ranges, rows.Err()
}

// InsertTimeRange persists a new time range.
func (r *PricingRepository) InsertTimeRange(ctx context.Context, tr domain.TimeRange) error {
	query := `INSERT INTO pricing_time_ranges (id, start_minute, end_minute, multiplier, days) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.ExecContext(ctx, query, tr.ID, tr.StartMinute, tr.EndMinute, tr.Multiplier, weekdaysToInts(tr.Days))
	return err
}

// DeleteTimeRange removes a time range by ID. No-op if absent.
func (r *PricingRepository) DeleteTimeRange(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM pricing_time_ranges WHERE id = $1`, id)
	return err
}

// ListDistanceRanges retrieves all configured distance ranges.
func (r *PricingRepository) ListDistanceRanges(ctx context.Context) ([]domain.DistanceRange, error) {
	query := `SELECT id, min_distance_km, max_distance_km, fee_per_km FROM pricing_distance_ranges ORDER BY min_distance_km`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ranges []domain.DistanceRange
	for rows.Next() {
		var dr domain.DistanceRange
		if err := rows.Scan(&dr.ID, &dr.MinDistanceKm, &dr.MaxDistanceKm, &dr.FeePerKm); err != nil {
			return nil, err
		}
		ranges = append(ranges, dr)
	}
	return ranges, rows.Err()
}

// InsertDistanceRange persists a new distance range.
func (r *PricingRepository) InsertDistanceRange(ctx context.Context, dr domain.DistanceRange) error {
	query := `INSERT INTO pricing_distance_ranges (id, min_distance_km, max_distance_km, fee_per_km) VALUES ($1, $2, $3, $4)`
	_, err := r.q.ExecContext(ctx, query, dr.ID, dr.MinDistanceKm, dr.MaxDistanceKm, dr.FeePerKm)
	return err
}

// DeleteDistanceRange removes a distance range by ID. No-op if absent.
func (r *PricingRepository) DeleteDistanceRange(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM pricing_distance_ranges WHERE id = $1`, id)
	return err
}

func weekdaysToInts(days []time.Weekday) pq.Int64Array {
	out := make(pq.Int64Array, len(days))
	for i, d := range days {
		out[i] = int64(d)
	}
	return out
}

func weekdaysFromInts(values pq.Int64Array) []time.Weekday {
	out := make([]time.Weekday, len(values))
	for i, v := range values {
		out[i] = time.Weekday(v)
	}
	return out
}
