package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"delivery/internal/domain"
	internalRedis "delivery/internal/redis"
	"delivery/internal/repository"
	"delivery/internal/repository/postgres"
)

const assignmentLockTTL = 10 * time.Second

// transitionEffects describes what entering a status does beyond the field
// write. Keeping the state machine and its side effects in one table makes
// the coupling between delivery transitions and courier availability
// reviewable in one place.
type transitionEffects struct {
	setStartTime        bool                 // only if not already set
	setEndTime          bool
	courierStatus       domain.CourierStatus // empty: no courier write
	incrementDeliveries bool
}

var statusEffects = map[domain.DeliveryStatus]transitionEffects{
	domain.DeliveryStatusDelivering: {setStartTime: true},
	domain.DeliveryStatusDelivered:  {setEndTime: true, courierStatus: domain.CourierStatusAvailable, incrementDeliveries: true},
	domain.DeliveryStatusCancelled:  {courierStatus: domain.CourierStatusAvailable},
}

// DeliveryService owns the delivery state machine: creation with a fee
// quote, courier assignment, status transitions with their courier side
// effects, and rating.
type DeliveryService struct {
	db                  *sql.DB
	deliveryRepo        repository.DeliveryRepository
	orderRepo           repository.OrderRepository
	courierRepo         repository.CourierRepository
	feeCalculator       *FeeCalculator
	ratingService       *RatingService
	lockStore           internalRedis.LockStoreInterface
	cacheStore          *internalRedis.CacheStore
	notificationService *NotificationService
	clock               Clock
}

// NewDeliveryService creates a new DeliveryService. db, lockStore,
// cacheStore and notificationService may be nil; without a db the
// two-aggregate writes run against the plain repositories (unit tests).
func NewDeliveryService(
	db *sql.DB,
	deliveryRepo repository.DeliveryRepository,
	orderRepo repository.OrderRepository,
	courierRepo repository.CourierRepository,
	feeCalculator *FeeCalculator,
	ratingService *RatingService,
	lockStore internalRedis.LockStoreInterface,
	cacheStore *internalRedis.CacheStore,
	notificationService *NotificationService,
	clock Clock,
) *DeliveryService {
	if clock == nil {
		clock = RealClock{}
	}
	return &DeliveryService{
		db:                  db,
		deliveryRepo:        deliveryRepo,
		orderRepo:           orderRepo,
		courierRepo:         courierRepo,
		feeCalculator:       feeCalculator,
		ratingService:       ratingService,
		lockStore:           lockStore,
		cacheStore:          cacheStore,
		notificationService: notificationService,
		clock:               clock,
	}
}

// CreateDeliveryRequest contains the parameters for creating a delivery.
type CreateDeliveryRequest struct {
	OrderID    string
	DistanceKm float64
}

// CreateDelivery quotes the fee for the trip and persists a new delivery in
// PENDING. The quote is computed once here and never changes afterwards.
func (s *DeliveryService) CreateDelivery(ctx context.Context, req CreateDeliveryRequest) (*domain.Delivery, error) {
	if req.OrderID == "" {
		return nil, ErrInvalidOrderID
	}
	if req.DistanceKm < 0 || math.IsNaN(req.DistanceKm) || math.IsInf(req.DistanceKm, 0) {
		return nil, ErrInvalidDistance
	}

	// The order must exist; everything else about it belongs to the
	// surrounding marketplace.
	if _, err := s.orderRepo.GetByID(ctx, req.OrderID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	quote := s.feeCalculator.QuoteAt(req.DistanceKm, now)

	delivery := &domain.Delivery{
		ID:               uuid.New().String(),
		OrderID:          req.OrderID,
		Status:           domain.DeliveryStatusPending,
		Fee:              quote.Fee,
		DistanceKm:       req.DistanceKm,
		EstimatedMinutes: quote.EstimatedMinutes,
		CreatedAt:        now,
	}

	if err := s.deliveryRepo.Create(ctx, delivery); err != nil {
		return nil, err
	}

	return delivery, nil
}

// AssignCourierRequest contains the parameters for assigning a courier.
type AssignCourierRequest struct {
	DeliveryID string
	CourierID  string
}

// AssignCourier assigns a courier to a delivery, moving it PENDING→PREPARING
// and marking the courier BUSY. The delivery and courier writes happen in
// one transaction, and the delivery write is guarded by the "no courier yet"
// precondition so two concurrent assignments cannot both win. A short redis
// lock fences concurrent attempts before they reach the database.
func (s *DeliveryService) AssignCourier(ctx context.Context, req AssignCourierRequest) (*domain.Delivery, error) {
	if req.DeliveryID == "" {
		return nil, ErrInvalidDeliveryID
	}
	if req.CourierID == "" {
		return nil, ErrInvalidCourierID
	}

	if s.lockStore != nil {
		locked, err := s.lockStore.AcquireDeliveryLock(ctx, req.DeliveryID, assignmentLockTTL)
		if err != nil {
			return nil, err
		}
		if !locked {
			return nil, ErrAssignmentInProgress
		}
		defer s.lockStore.ReleaseDeliveryLock(ctx, req.DeliveryID)
	}

	delivery, err := s.deliveryRepo.GetByID(ctx, req.DeliveryID)
	if err != nil {
		return nil, err
	}

	if delivery.Status.IsTerminal() {
		return nil, ErrDeliveryClosed
	}
	if delivery.CourierID != "" {
		return nil, ErrCourierAlreadyAssigned
	}

	courier, err := s.courierRepo.GetByID(ctx, req.CourierID)
	if err != nil {
		return nil, err
	}
	if courier.Status != domain.CourierStatusAvailable {
		return nil, ErrCourierNotAvailable
	}

	err = s.withTx(ctx, func(deliveries repository.DeliveryRepository, couriers repository.CourierRepository) error {
		if err := deliveries.AssignCourier(ctx, req.DeliveryID, req.CourierID); err != nil {
			if errors.Is(err, repository.ErrAlreadyAssigned) {
				return ErrCourierAlreadyAssigned
			}
			return err
		}
		return couriers.UpdateStatus(ctx, req.CourierID, domain.CourierStatusBusy)
	})
	if err != nil {
		return nil, err
	}

	delivery.CourierID = req.CourierID
	delivery.Status = domain.DeliveryStatusPreparing

	s.invalidateCourier(ctx, req.CourierID, false)

	if s.notificationService != nil {
		_ = s.notificationService.NotifyCourierAssigned(ctx, delivery, courier)
	}

	return delivery, nil
}

// UpdateStatusRequest contains the parameters for a status transition.
type UpdateStatusRequest struct {
	DeliveryID string
	Status     domain.DeliveryStatus
}

// UpdateStatus transitions a delivery to a new status and applies the
// transition's side effects from the effects table. Terminal deliveries are
// frozen. When the transition touches the assigned courier, the delivery
// and courier writes happen in one transaction.
func (s *DeliveryService) UpdateStatus(ctx context.Context, req UpdateStatusRequest) (*domain.Delivery, error) {
	if req.DeliveryID == "" {
		return nil, ErrInvalidDeliveryID
	}
	if !domain.ValidDeliveryStatus(req.Status) {
		return nil, ErrInvalidStatus
	}

	delivery, err := s.deliveryRepo.GetByID(ctx, req.DeliveryID)
	if err != nil {
		return nil, err
	}

	if delivery.Status.IsTerminal() {
		return nil, ErrDeliveryClosed
	}

	now := s.clock.Now()
	effects := statusEffects[req.Status]

	delivery.Status = req.Status
	if effects.setStartTime && delivery.StartTime.IsZero() {
		delivery.StartTime = now
	}
	if effects.setEndTime {
		delivery.EndTime = now
	}

	touchesCourier := effects.courierStatus != "" && delivery.CourierID != ""
	if !touchesCourier {
		if err := s.deliveryRepo.Update(ctx, delivery); err != nil {
			return nil, err
		}
		return delivery, nil
	}

	err = s.withTx(ctx, func(deliveries repository.DeliveryRepository, couriers repository.CourierRepository) error {
		if err := deliveries.Update(ctx, delivery); err != nil {
			return err
		}
		if err := couriers.UpdateStatus(ctx, delivery.CourierID, effects.courierStatus); err != nil {
			return err
		}
		if effects.incrementDeliveries {
			return couriers.IncrementDeliveries(ctx, delivery.CourierID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCourier(ctx, delivery.CourierID, effects.courierStatus == domain.CourierStatusAvailable)

	if s.notificationService != nil {
		switch req.Status {
		case domain.DeliveryStatusDelivered:
			_ = s.notificationService.NotifyDelivered(ctx, delivery)
		case domain.DeliveryStatusCancelled:
			_ = s.notificationService.NotifyCancelled(ctx, delivery)
		}
	}

	return delivery, nil
}

// RateDeliveryRequest contains the parameters for rating a delivery.
type RateDeliveryRequest struct {
	DeliveryID string
	Rating     int
	Feedback   string
}

// RateDeliveryResponse contains the rated delivery and the courier's
// recomputed mean rating.
type RateDeliveryResponse struct {
	Delivery      *domain.Delivery
	CourierRating float64
}

// RateDelivery stores the customer's rating on the delivery and recomputes
// the assigned courier's mean rating over their whole history. Re-rating
// overwrites and re-runs the aggregation, which makes it self-correcting.
func (s *DeliveryService) RateDelivery(ctx context.Context, req RateDeliveryRequest) (*RateDeliveryResponse, error) {
	if req.DeliveryID == "" {
		return nil, ErrInvalidDeliveryID
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}

	delivery, err := s.deliveryRepo.GetByID(ctx, req.DeliveryID)
	if err != nil {
		return nil, err
	}

	if delivery.CourierID == "" {
		return nil, ErrNoCourierAssigned
	}

	delivery.CustomerRating = req.Rating
	delivery.CustomerFeedback = req.Feedback

	if err := s.deliveryRepo.Update(ctx, delivery); err != nil {
		return nil, err
	}

	mean, err := s.ratingService.Recompute(ctx, delivery.CourierID)
	if err != nil {
		return nil, err
	}

	s.invalidateCourier(ctx, delivery.CourierID, false)

	if s.notificationService != nil {
		_ = s.notificationService.NotifyRated(ctx, delivery)
	}

	return &RateDeliveryResponse{Delivery: delivery, CourierRating: mean}, nil
}

// GetDelivery retrieves a delivery by ID.
func (s *DeliveryService) GetDelivery(ctx context.Context, deliveryID string) (*domain.Delivery, error) {
	if deliveryID == "" {
		return nil, ErrInvalidDeliveryID
	}

	return s.deliveryRepo.GetByID(ctx, deliveryID)
}

// ListPending returns unassigned PENDING deliveries oldest first, the
// natural dispatch queue.
func (s *DeliveryService) ListPending(ctx context.Context) ([]*domain.Delivery, error) {
	return s.deliveryRepo.ListPending(ctx)
}

// ListDeliveries returns deliveries matching the filter plus the total count.
func (s *DeliveryService) ListDeliveries(ctx context.Context, filter repository.DeliveryFilter) ([]*domain.Delivery, int, error) {
	if filter.Status != "" && !domain.ValidDeliveryStatus(filter.Status) {
		return nil, 0, ErrInvalidStatus
	}

	return s.deliveryRepo.List(ctx, filter)
}

// withTx runs fn against transaction-scoped repositories, committing on
// success. Without a database handle (unit tests) fn runs on the plain
// repositories.
func (s *DeliveryService) withTx(ctx context.Context, fn func(repository.DeliveryRepository, repository.CourierRepository) error) error {
	if s.db == nil {
		return fn(s.deliveryRepo, s.courierRepo)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(postgres.NewDeliveryRepositoryWithTx(tx), postgres.NewCourierRepositoryWithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// invalidateCourier drops cached courier state after a status write.
func (s *DeliveryService) invalidateCourier(ctx context.Context, courierID string, nowAvailable bool) {
	if s.cacheStore == nil {
		return
	}
	_ = s.cacheStore.InvalidateCourier(ctx, courierID)
	if nowAvailable {
		_ = s.cacheStore.AddAvailableCourier(ctx, courierID)
	} else {
		_ = s.cacheStore.RemoveAvailableCourier(ctx, courierID)
	}
}
