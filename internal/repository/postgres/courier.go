package postgres

import (
	"context"
	"database/sql"
	"errors"

	"delivery/internal/domain"
	"delivery/internal/repository"
)

// CourierRepository is a PostgreSQL implementation of repository.CourierRepository.
type CourierRepository struct {
	q Querier
}

// NewCourierRepository creates a new PostgreSQL courier repository.
func NewCourierRepository(db *sql.DB) *CourierRepository {
	return &CourierRepository{q: db}
}

// NewCourierRepositoryWithTx creates a courier repository using a transaction.
func NewCourierRepositoryWithTx(tx *sql.Tx) *CourierRepository {
	return &CourierRepository{q: tx}
}

// Create adds a new courier.
func (r *CourierRepository) Create(ctx context.Context, courier *domain.Courier) error {
	query := `INSERT INTO couriers (id, name, phone, status, rating, total_deliveries) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.ExecContext(ctx, query,
		courier.ID, courier.Name, courier.Phone, courier.Status, courier.Rating, courier.TotalDeliveries)
	return err
}

// GetByID retrieves a courier by ID.
func (r *CourierRepository) GetByID(ctx context.Context, id string) (*domain.Courier, error) {
	query := `SELECT id, COALESCE(name, ''), COALESCE(phone, ''), status, rating, total_deliveries FROM couriers WHERE id = $1`

	var courier domain.Courier
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&courier.ID,
		&courier.Name,
		&courier.Phone,
		&courier.Status,
		&courier.Rating,
		&courier.TotalDeliveries,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &courier, nil
}

// GetByPhone retrieves a courier by phone number.
func (r *CourierRepository) GetByPhone(ctx context.Context, phone string) (*domain.Courier, error) {
	query := `SELECT id, name, phone, status, rating, total_deliveries FROM couriers WHERE phone = $1`

	var courier domain.Courier
	err := r.q.QueryRowContext(ctx, query, phone).Scan(
		&courier.ID,
		&courier.Name,
		&courier.Phone,
		&courier.Status,
		&courier.Rating,
		&courier.TotalDeliveries,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &courier, nil
}

// GetAll retrieves all couriers.
func (r *CourierRepository) GetAll(ctx context.Context) ([]*domain.Courier, error) {
	query := `SELECT id, COALESCE(name, ''), COALESCE(phone, ''), status, rating, total_deliveries FROM couriers ORDER BY id`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var couriers []*domain.Courier
	for rows.Next() {
		var courier domain.Courier
		if err := rows.Scan(&courier.ID, &courier.Name, &courier.Phone, &courier.Status, &courier.Rating, &courier.TotalDeliveries); err != nil {
			return nil, err
		}
		couriers = append(couriers, &courier)
	}
	return couriers, rows.Err()
}

// UpdateStatus updates the status of a courier.
func (r *CourierRepository) UpdateStatus(ctx context.Context, id string, status domain.CourierStatus) error {
	query := `UPDATE couriers SET status = $1 WHERE id = $2`
	return r.exec(ctx, query, status, id)
}

// IncrementDeliveries adds one to the courier's completed delivery count.
func (r *CourierRepository) IncrementDeliveries(ctx context.Context, id string) error {
	query := `UPDATE couriers SET total_deliveries = total_deliveries + 1 WHERE id = $1`
	return r.exec(ctx, query, id)
}

// UpdateRating writes the courier's aggregated mean rating.
func (r *CourierRepository) UpdateRating(ctx context.Context, id string, rating float64) error {
	query := `UPDATE couriers SET rating = $1 WHERE id = $2`
	return r.exec(ctx, query, rating, id)
}

func (r *CourierRepository) exec(ctx context.Context, query string, args ...any) error {
	result, err := r.q.ExecContext(ctx, query, args...)
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
