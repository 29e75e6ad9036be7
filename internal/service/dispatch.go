package service

import (
	"context"
	"errors"

	"delivery/internal/domain"
	"delivery/internal/redis"
	"delivery/internal/repository"
)

const defaultSearchRadiusKm = 5.0

// DeliveryAssigner assigns a specific courier to a delivery. Satisfied by
// DeliveryService; an interface so dispatch is testable in isolation.
type DeliveryAssigner interface {
	AssignCourier(ctx context.Context, req AssignCourierRequest) (*domain.Delivery, error)
}

// DispatchService picks couriers for deliveries using reported locations.
// It is tooling on top of the lifecycle: the actual assignment always goes
// through DeliveryService.AssignCourier and its invariants.
type DispatchService struct {
	locationStore redis.LocationStoreInterface
	cacheStore    *redis.CacheStore
	courierRepo   repository.CourierRepository
	assigner      DeliveryAssigner
}

// NewDispatchService creates a new DispatchService.
func NewDispatchService(
	locationStore redis.LocationStoreInterface,
	cacheStore *redis.CacheStore,
	courierRepo repository.CourierRepository,
	assigner DeliveryAssigner,
) *DispatchService {
	return &DispatchService{
		locationStore: locationStore,
		cacheStore:    cacheStore,
		courierRepo:   courierRepo,
		assigner:      assigner,
	}
}

// AssignNearestRequest contains the parameters for auto-assignment. Lat/Lng
// is the pickup point (the restaurant); RadiusKm 0 uses the default.
type AssignNearestRequest struct {
	DeliveryID string
	Lat        float64
	Lng        float64
	RadiusKm   float64
}

// AssignNearest finds the nearest AVAILABLE courier to the pickup point and
// assigns them. Candidates are walked nearest first; a courier who turns
// out BUSY or OFFLINE (or loses the race to another assignment) is skipped
// and the next one is tried.
func (s *DispatchService) AssignNearest(ctx context.Context, req AssignNearestRequest) (*domain.Delivery, error) {
	if req.DeliveryID == "" {
		return nil, ErrInvalidDeliveryID
	}
	if !isValidLatitude(req.Lat) || !isValidLongitude(req.Lng) {
		return nil, ErrInvalidLocation
	}

	radiusKm := req.RadiusKm
	if radiusKm <= 0 {
		radiusKm = defaultSearchRadiusKm
	}

	nearby, err := s.locationStore.FindNearbyCouriers(ctx, req.Lat, req.Lng, radiusKm)
	if err != nil {
		return nil, err
	}
	if len(nearby) == 0 {
		return nil, ErrNoCourierAvailable
	}

	for _, loc := range nearby {
		if !s.quickAvailable(ctx, loc.CourierID) {
			continue
		}

		delivery, err := s.assigner.AssignCourier(ctx, AssignCourierRequest{
			DeliveryID: req.DeliveryID,
			CourierID:  loc.CourierID,
		})
		if err != nil {
			if errors.Is(err, ErrCourierNotAvailable) {
				continue
			}
			return nil, err
		}
		return delivery, nil
	}

	return nil, ErrNoCourierAvailable
}

// quickAvailable filters candidates through the cached available set, then
// the courier record. The authoritative check still happens inside
// AssignCourier; this only avoids pointless assignment attempts.
func (s *DispatchService) quickAvailable(ctx context.Context, courierID string) bool {
	if s.cacheStore != nil {
		if ok, err := s.cacheStore.IsCourierAvailable(ctx, courierID); err == nil && ok {
			return true
		}
	}

	courier, err := s.courierRepo.GetByID(ctx, courierID)
	if err != nil {
		return false
	}
	return courier.Status == domain.CourierStatusAvailable
}
