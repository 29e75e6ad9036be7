package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	CourierCacheTTL = 30 * time.Second // courier status flips on every assignment
	QuoteCacheTTL   = 15 * time.Second // quotes go stale when admins touch pricing
)

// Key prefixes
const (
	courierCachePrefix = "cache:courier:"
	quoteCachePrefix   = "cache:quote:"
)

// CachedCourier represents a cached courier entity.
type CachedCourier struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Phone           string  `json:"phone"`
	Status          string  `json:"status"`
	Rating          float64 `json:"rating"`
	TotalDeliveries int     `json:"total_deliveries"`
}

// CachedQuote represents a cached fee quote with its breakdown, keyed by
// distance and minute-of-day.
type CachedQuote struct {
	Fee                float64 `json:"fee"`
	EstimatedMinutes   int     `json:"estimated_minutes"`
	BaseFee            float64 `json:"base_fee"`
	DistanceKm         float64 `json:"distance_km"`
	EffectiveRatePerKm float64 `json:"effective_rate_per_km"`
	DistanceRangeID    string  `json:"distance_range_id,omitempty"`
	RawFee             float64 `json:"raw_fee"`
	Multiplier         float64 `json:"multiplier"`
	TimeRangeID        string  `json:"time_range_id,omitempty"`
}

// GetCourier retrieves a courier from cache. A nil result means cache miss.
func (s *CacheStore) GetCourier(ctx context.Context, courierID string) (*CachedCourier, error) {
	key := courierCachePrefix + courierID
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var courier CachedCourier
	if err := json.Unmarshal(data, &courier); err != nil {
		return nil, err
	}
	return &courier, nil
}

// SetCourier stores a courier in cache.
func (s *CacheStore) SetCourier(ctx context.Context, courier *CachedCourier) error {
	key := courierCachePrefix + courier.ID
	data, err := json.Marshal(courier)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, CourierCacheTTL).Err()
}

// InvalidateCourier removes a courier from cache.
func (s *CacheStore) InvalidateCourier(ctx context.Context, courierID string) error {
	key := courierCachePrefix + courierID
	return s.client.Del(ctx, key).Err()
}

// GetQuote retrieves a cached quote. A nil result means cache miss.
func (s *CacheStore) GetQuote(ctx context.Context, key string) (*CachedQuote, error) {
	data, err := s.client.Get(ctx, quoteCachePrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var quote CachedQuote
	if err := json.Unmarshal(data, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

// SetQuote stores a quote in cache.
func (s *CacheStore) SetQuote(ctx context.Context, key string, quote *CachedQuote) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, quoteCachePrefix+key, data, QuoteCacheTTL).Err()
}

// InvalidateQuotes drops every cached quote. Called after any pricing
// configuration change so stale fees are never served.
func (s *CacheStore) InvalidateQuotes(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, quoteCachePrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// AddAvailableCourier adds a courier to the available set.
func (s *CacheStore) AddAvailableCourier(ctx context.Context, courierID string) error {
	return s.client.SAdd(ctx, "available_couriers", courierID).Err()
}

// RemoveAvailableCourier removes a courier from the available set.
func (s *CacheStore) RemoveAvailableCourier(ctx context.Context, courierID string) error {
	return s.client.SRem(ctx, "available_couriers", courierID).Err()
}

// IsCourierAvailable checks if a courier is in the available set.
func (s *CacheStore) IsCourierAvailable(ctx context.Context, courierID string) (bool, error) {
	return s.client.SIsMember(ctx, "available_couriers", courierID).Result()
}

// GetAvailableCouriers returns all available courier IDs.
func (s *CacheStore) GetAvailableCouriers(ctx context.Context) ([]string, error) {
	return s.client.SMembers(ctx, "available_couriers").Result()
}
