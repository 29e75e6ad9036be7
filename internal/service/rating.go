package service

import (
	"context"
	"math"

	"delivery/internal/repository"
)

// RatingService recomputes courier ratings from delivery history.
type RatingService struct {
	deliveryRepo repository.DeliveryRepository
	courierRepo  repository.CourierRepository
}

// NewRatingService creates a new RatingService.
func NewRatingService(deliveryRepo repository.DeliveryRepository, courierRepo repository.CourierRepository) *RatingService {
	return &RatingService{
		deliveryRepo: deliveryRepo,
		courierRepo:  courierRepo,
	}
}

// Recompute recalculates the courier's mean rating over every rated
// delivery in their history and writes it to the courier record. The full
// recomputation is self-correcting against any prior drift; it runs only on
// the low-frequency rating path, so the O(n) scan is acceptable.
func (s *RatingService) Recompute(ctx context.Context, courierID string) (float64, error) {
	if courierID == "" {
		return 0, ErrInvalidCourierID
	}

	rated, err := s.deliveryRepo.ListRatedByCourier(ctx, courierID)
	if err != nil {
		return 0, err
	}

	mean := 0.0
	if len(rated) > 0 {
		sum := 0
		for _, d := range rated {
			sum += d.CustomerRating
		}
		mean = float64(sum) / float64(len(rated))
		mean = math.Round(mean*100) / 100
	}

	if err := s.courierRepo.UpdateRating(ctx, courierID, mean); err != nil {
		return 0, err
	}

	return mean, nil
}
