package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const courierLocationKey = "couriers:locations"

// CourierLocation represents a courier's reported position.
type CourierLocation struct {
	CourierID string
	Lat       float64
	Lng       float64
}

// LocationStore handles courier location operations in Redis.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// UpdateLocation stores a courier's location using GEOADD.
func (s *LocationStore) UpdateLocation(ctx context.Context, courierID string, lat, lng float64) error {
	return s.client.GeoAdd(ctx, courierLocationKey, &redis.GeoLocation{
		Name:      courierID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// FindNearbyCouriers returns courier IDs within the given radius (in
// kilometers), nearest first.
func (s *LocationStore) FindNearbyCouriers(ctx context.Context, lat, lng, radiusKm float64) ([]CourierLocation, error) {
	results, err := s.client.GeoRadius(ctx, courierLocationKey, lng, lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	locations := make([]CourierLocation, 0, len(results))
	for _, r := range results {
		locations = append(locations, CourierLocation{
			CourierID: r.Name,
			Lat:       r.Latitude,
			Lng:       r.Longitude,
		})
	}

	return locations, nil
}

// RemoveLocation removes a courier's location from the geo index.
func (s *LocationStore) RemoveLocation(ctx context.Context, courierID string) error {
	return s.client.ZRem(ctx, courierLocationKey, courierID).Err()
}
