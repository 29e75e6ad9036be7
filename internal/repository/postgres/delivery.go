package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"delivery/internal/domain"
	"delivery/internal/repository"
)

// DeliveryRepository is a PostgreSQL implementation of repository.DeliveryRepository.
type DeliveryRepository struct {
	q Querier
}

// NewDeliveryRepository creates a new PostgreSQL delivery repository.
func NewDeliveryRepository(db *sql.DB) *DeliveryRepository {
	return &DeliveryRepository{q: db}
}

// NewDeliveryRepositoryWithTx creates a delivery repository using a transaction.
func NewDeliveryRepositoryWithTx(tx *sql.Tx) *DeliveryRepository {
	return &DeliveryRepository{q: tx}
}

const deliveryColumns = `id, order_id, status, fee, distance_km, estimated_minutes, courier_id, start_time, end_time, customer_rating, customer_feedback, created_at`

// Create persists a new delivery.
func (r *DeliveryRepository) Create(ctx context.Context, d *domain.Delivery) error {
	query := `
		INSERT INTO deliveries (` + deliveryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.q.ExecContext(ctx, query,
		d.ID,
		d.OrderID,
		d.Status,
		d.Fee,
		d.DistanceKm,
		d.EstimatedMinutes,
		nullString(d.CourierID),
		nullTime(d.StartTime),
		nullTime(d.EndTime),
		nullInt(d.CustomerRating),
		nullString(d.CustomerFeedback),
		d.CreatedAt,
	)

	return err
}

// GetByID retrieves a delivery by ID.
func (r *DeliveryRepository) GetByID(ctx context.Context, id string) (*domain.Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE id = $1`

	d, err := scanDelivery(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return d, nil
}

// Update updates an existing delivery.
func (r *DeliveryRepository) Update(ctx context.Context, d *domain.Delivery) error {
	query := `
		UPDATE deliveries
		SET status = $1, courier_id = $2, start_time = $3, end_time = $4, customer_rating = $5, customer_feedback = $6
		WHERE id = $7
	`

	result, err := r.q.ExecContext(ctx, query,
		d.Status,
		nullString(d.CourierID),
		nullTime(d.StartTime),
		nullTime(d.EndTime),
		nullInt(d.CustomerRating),
		nullString(d.CustomerFeedback),
		d.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// AssignCourier sets the courier and moves the delivery to PREPARING in a
// single guarded update, so two concurrent assignments cannot both succeed.
func (r *DeliveryRepository) AssignCourier(ctx context.Context, deliveryID, courierID string) error {
	query := `
		UPDATE deliveries
		SET courier_id = $1, status = $2
		WHERE id = $3 AND courier_id IS NULL
	`

	result, err := r.q.ExecContext(ctx, query, courierID, domain.DeliveryStatusPreparing, deliveryID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrAlreadyAssigned
	}

	return nil
}

// List retrieves deliveries matching the filter, newest first, with the
// total count ignoring pagination.
func (r *DeliveryRepository) List(ctx context.Context, filter repository.DeliveryFilter) ([]*domain.Delivery, int, error) {
	where := ``
	var args []any

	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.CourierID != "" {
		args = append(args, filter.CourierID)
		where += fmt.Sprintf(" AND courier_id = $%d", len(args))
	}
	if where != "" {
		where = " WHERE" + where[4:]
	}

	var total int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM deliveries`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM deliveries%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		deliveryColumns, where, len(args)-1, len(args))

	deliveries, err := r.queryDeliveries(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return deliveries, total, nil
}

// ListPending retrieves unassigned PENDING deliveries oldest first.
func (r *DeliveryRepository) ListPending(ctx context.Context) ([]*domain.Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries
		WHERE status = $1 AND courier_id IS NULL
		ORDER BY created_at ASC`

	return r.queryDeliveries(ctx, query, domain.DeliveryStatusPending)
}

// ListRatedByCourier retrieves every rated delivery for a courier.
func (r *DeliveryRepository) ListRatedByCourier(ctx context.Context, courierID string) ([]*domain.Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries
		WHERE courier_id = $1 AND customer_rating IS NOT NULL
		ORDER BY created_at ASC`

	return r.queryDeliveries(ctx, query, courierID)
}

func (r *DeliveryRepository) queryDeliveries(ctx context.Context, query string, args ...any) ([]*domain.Delivery, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deliveries []*domain.Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDelivery(row rowScanner) (*domain.Delivery, error) {
	var d domain.Delivery
	var courierID sql.NullString
	var startTime, endTime sql.NullTime
	var rating sql.NullInt64
	var feedback sql.NullString

	err := row.Scan(
		&d.ID,
		&d.OrderID,
		&d.Status,
		&d.Fee,
		&d.DistanceKm,
		&d.EstimatedMinutes,
		&courierID,
		&startTime,
		&endTime,
		&rating,
		&feedback,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if courierID.Valid {
		d.CourierID = courierID.String
	}
	if startTime.Valid {
		d.StartTime = startTime.Time
	}
	if endTime.Valid {
		d.EndTime = endTime.Time
	}
	if rating.Valid {
		d.CustomerRating = int(rating.Int64)
	}
	if feedback.Valid {
		d.CustomerFeedback = feedback.String
	}

	return &d, nil
}
