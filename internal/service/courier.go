package service

import (
	"context"

	"delivery/internal/domain"
	"delivery/internal/redis"
	"delivery/internal/repository"
)

// CourierService handles courier availability and location operations.
// BUSY is engine-owned (set by assignment and released by completion);
// couriers themselves only toggle between AVAILABLE and OFFLINE.
type CourierService struct {
	locationStore redis.LocationStoreInterface
	cacheStore    *redis.CacheStore
	courierRepo   repository.CourierRepository
}

// NewCourierService creates a new CourierService.
func NewCourierService(
	locationStore redis.LocationStoreInterface,
	cacheStore *redis.CacheStore,
	courierRepo repository.CourierRepository,
) *CourierService {
	return &CourierService{
		locationStore: locationStore,
		cacheStore:    cacheStore,
		courierRepo:   courierRepo,
	}
}

// UpdateLocationRequest contains the parameters for updating courier location.
type UpdateLocationRequest struct {
	CourierID string
	Lat       float64
	Lng       float64
}

// UpdateLocation updates a courier's location in Redis. Reporting a
// location does not change the courier's availability; an OFFLINE or BUSY
// courier stays that way.
func (s *CourierService) UpdateLocation(ctx context.Context, req UpdateLocationRequest) error {
	if req.CourierID == "" {
		return ErrInvalidCourierID
	}

	if !isValidLatitude(req.Lat) || !isValidLongitude(req.Lng) {
		return ErrInvalidLocation
	}

	if _, err := s.courierRepo.GetByID(ctx, req.CourierID); err != nil {
		return err
	}

	return s.locationStore.UpdateLocation(ctx, req.CourierID, req.Lat, req.Lng)
}

// SetStatus sets a courier AVAILABLE or OFFLINE. Going OFFLINE removes the
// courier from the geo index and the available set; BUSY cannot be set here.
func (s *CourierService) SetStatus(ctx context.Context, courierID string, status domain.CourierStatus) error {
	if courierID == "" {
		return ErrInvalidCourierID
	}
	if status != domain.CourierStatusAvailable && status != domain.CourierStatusOffline {
		return ErrInvalidCourierStatus
	}

	courier, err := s.courierRepo.GetByID(ctx, courierID)
	if err != nil {
		return err
	}
	if courier.Status == domain.CourierStatusBusy {
		return ErrInvalidCourierStatus
	}

	if err := s.courierRepo.UpdateStatus(ctx, courierID, status); err != nil {
		return err
	}

	if status == domain.CourierStatusOffline {
		if err := s.locationStore.RemoveLocation(ctx, courierID); err != nil {
			return err
		}
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateCourier(ctx, courierID)
		if status == domain.CourierStatusAvailable {
			_ = s.cacheStore.AddAvailableCourier(ctx, courierID)
		} else {
			_ = s.cacheStore.RemoveAvailableCourier(ctx, courierID)
		}
	}

	return nil
}

func isValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

func isValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}
