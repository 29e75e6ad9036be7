package tests

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"delivery/internal/domain"
	"delivery/internal/redis"
	"delivery/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK DELIVERY REPOSITORY
// ──────────────────────────────────────────────

// MockDeliveryRepository is a mock implementation of DeliveryRepository.
type MockDeliveryRepository struct {
	mu         sync.RWMutex
	deliveries map[string]*domain.Delivery

	// Counters for verification
	CreateCallCount        int32
	UpdateCallCount        int32
	AssignCourierCallCount int32

	// Error injection
	CreateError        error
	UpdateError        error
	AssignCourierError error
}

// NewMockDeliveryRepository creates a new mock delivery repository.
func NewMockDeliveryRepository() *MockDeliveryRepository {
	return &MockDeliveryRepository{
		deliveries: make(map[string]*domain.Delivery),
	}
}

// AddDelivery adds a delivery to the mock repository.
func (m *MockDeliveryRepository) AddDelivery(delivery *domain.Delivery) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries[delivery.ID] = delivery
}

func (m *MockDeliveryRepository) Create(ctx context.Context, delivery *domain.Delivery) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *delivery
	m.deliveries[delivery.ID] = &copy
	return nil
}

func (m *MockDeliveryRepository) GetByID(ctx context.Context, id string) (*domain.Delivery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	delivery, ok := m.deliveries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *delivery
	return &copy, nil
}

func (m *MockDeliveryRepository) Update(ctx context.Context, delivery *domain.Delivery) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.deliveries[delivery.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *delivery
	m.deliveries[delivery.ID] = &copy
	return nil
}

// AssignCourier mirrors the conditional UPDATE: the write succeeds only if
// no courier is set yet, under the same lock, so concurrent assignments race
// exactly like they do against the database.
func (m *MockDeliveryRepository) AssignCourier(ctx context.Context, deliveryID, courierID string) error {
	atomic.AddInt32(&m.AssignCourierCallCount, 1)
	if m.AssignCourierError != nil {
		return m.AssignCourierError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delivery, ok := m.deliveries[deliveryID]
	if !ok {
		return repository.ErrNotFound
	}
	if delivery.CourierID != "" {
		return repository.ErrAlreadyAssigned
	}
	delivery.CourierID = courierID
	delivery.Status = domain.DeliveryStatusPreparing
	return nil
}

func (m *MockDeliveryRepository) List(ctx context.Context, filter repository.DeliveryFilter) ([]*domain.Delivery, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]*domain.Delivery, 0, len(m.deliveries))
	for _, d := range m.deliveries {
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		if filter.CourierID != "" && d.CourierID != filter.CourierID {
			continue
		}
		copy := *d
		matched = append(matched, &copy)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[filter.Offset:]
		}
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (m *MockDeliveryRepository) ListPending(ctx context.Context) ([]*domain.Delivery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Delivery, 0)
	for _, d := range m.deliveries {
		if d.Status == domain.DeliveryStatusPending && d.CourierID == "" {
			copy := *d
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockDeliveryRepository) ListRatedByCourier(ctx context.Context, courierID string) ([]*domain.Delivery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Delivery, 0)
	for _, d := range m.deliveries {
		if d.CourierID == courierID && d.CustomerRating > 0 {
			copy := *d
			result = append(result, &copy)
		}
	}
	return result, nil
}

// GetDelivery returns the delivery by ID (for test assertions).
func (m *MockDeliveryRepository) GetDelivery(id string) *domain.Delivery {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.deliveries[id]
}

// CountDeliveries returns the number of deliveries.
func (m *MockDeliveryRepository) CountDeliveries() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.deliveries)
}

// ──────────────────────────────────────────────
// MOCK COURIER REPOSITORY
// ──────────────────────────────────────────────

// MockCourierRepository is a mock implementation of CourierRepository.
type MockCourierRepository struct {
	mu       sync.RWMutex
	couriers map[string]*domain.Courier

	// Counters for verification
	CreateCallCount              int32
	UpdateStatusCallCount        int32
	IncrementDeliveriesCallCount int32
	UpdateRatingCallCount        int32

	// Error injection
	CreateError       error
	UpdateStatusError error
	UpdateRatingError error
}

// NewMockCourierRepository creates a new mock courier repository.
func NewMockCourierRepository() *MockCourierRepository {
	return &MockCourierRepository{
		couriers: make(map[string]*domain.Courier),
	}
}

// AddCourier adds a courier to the mock repository.
func (m *MockCourierRepository) AddCourier(courier *domain.Courier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.couriers[courier.ID] = courier
}

func (m *MockCourierRepository) Create(ctx context.Context, courier *domain.Courier) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.couriers[courier.ID] = courier
	return nil
}

func (m *MockCourierRepository) GetByID(ctx context.Context, id string) (*domain.Courier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	courier, ok := m.couriers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *courier
	return &copy, nil
}

func (m *MockCourierRepository) GetByPhone(ctx context.Context, phone string) (*domain.Courier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.couriers {
		if c.Phone == phone {
			copy := *c
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockCourierRepository) GetAll(ctx context.Context) ([]*domain.Courier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Courier, 0, len(m.couriers))
	for _, c := range m.couriers {
		copy := *c
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockCourierRepository) UpdateStatus(ctx context.Context, id string, status domain.CourierStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	courier, ok := m.couriers[id]
	if !ok {
		return repository.ErrNotFound
	}
	courier.Status = status
	return nil
}

func (m *MockCourierRepository) IncrementDeliveries(ctx context.Context, id string) error {
	atomic.AddInt32(&m.IncrementDeliveriesCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	courier, ok := m.couriers[id]
	if !ok {
		return repository.ErrNotFound
	}
	courier.TotalDeliveries++
	return nil
}

func (m *MockCourierRepository) UpdateRating(ctx context.Context, id string, rating float64) error {
	atomic.AddInt32(&m.UpdateRatingCallCount, 1)
	if m.UpdateRatingError != nil {
		return m.UpdateRatingError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	courier, ok := m.couriers[id]
	if !ok {
		return repository.ErrNotFound
	}
	courier.Rating = rating
	return nil
}

// GetCourier returns courier for test assertions.
func (m *MockCourierRepository) GetCourier(id string) *domain.Courier {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.couriers[id]
}

// ──────────────────────────────────────────────
// MOCK ORDER REPOSITORY
// ──────────────────────────────────────────────

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order

	// Counters
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockOrderRepository creates a new mock order repository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]*domain.Order),
	}
}

// AddOrder adds an order to the mock repository.
func (m *MockOrderRepository) AddOrder(order *domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
	return nil
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *order
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK PRICING REPOSITORY
// ──────────────────────────────────────────────

// MockPricingRepository is a mock implementation of PricingRepository.
type MockPricingRepository struct {
	mu             sync.RWMutex
	base           *domain.BaseFeeConfig
	timeRanges     map[string]domain.TimeRange
	distanceRanges map[string]domain.DistanceRange

	// Counters
	SaveBaseConfigCallCount  int32
	InsertTimeRangeCallCount int32

	// Error injection
	SaveBaseConfigError  error
	InsertTimeRangeError error
}

// NewMockPricingRepository creates a new mock pricing repository.
func NewMockPricingRepository() *MockPricingRepository {
	return &MockPricingRepository{
		timeRanges:     make(map[string]domain.TimeRange),
		distanceRanges: make(map[string]domain.DistanceRange),
	}
}

func (m *MockPricingRepository) GetBaseConfig(ctx context.Context) (*domain.BaseFeeConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.base == nil {
		return nil, repository.ErrNotFound
	}
	copy := *m.base
	return &copy, nil
}

func (m *MockPricingRepository) SaveBaseConfig(ctx context.Context, cfg domain.BaseFeeConfig) error {
	atomic.AddInt32(&m.SaveBaseConfigCallCount, 1)
	if m.SaveBaseConfigError != nil {
		return m.SaveBaseConfigError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.base = &cfg
	return nil
}

func (m *MockPricingRepository) ListTimeRanges(ctx context.Context) ([]domain.TimeRange, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]domain.TimeRange, 0, len(m.timeRanges))
	for _, tr := range m.timeRanges {
		result = append(result, tr)
	}
	return result, nil
}

func (m *MockPricingRepository) InsertTimeRange(ctx context.Context, r domain.TimeRange) error {
	atomic.AddInt32(&m.InsertTimeRangeCallCount, 1)
	if m.InsertTimeRangeError != nil {
		return m.InsertTimeRangeError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeRanges[r.ID] = r
	return nil
}

func (m *MockPricingRepository) DeleteTimeRange(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.timeRanges, id)
	return nil
}

func (m *MockPricingRepository) ListDistanceRanges(ctx context.Context) ([]domain.DistanceRange, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]domain.DistanceRange, 0, len(m.distanceRanges))
	for _, dr := range m.distanceRanges {
		result = append(result, dr)
	}
	return result, nil
}

func (m *MockPricingRepository) InsertDistanceRange(ctx context.Context, r domain.DistanceRange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.distanceRanges[r.ID] = r
	return nil
}

func (m *MockPricingRepository) DeleteDistanceRange(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.distanceRanges, id)
	return nil
}

// CountTimeRanges returns the number of stored time ranges.
func (m *MockPricingRepository) CountTimeRanges() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.timeRanges)
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is a mock implementation of LocationStore.
type MockLocationStore struct {
	mu        sync.RWMutex
	locations []redis.CourierLocation

	// Counters
	UpdateLocationCallCount int32

	// Error injection
	UpdateLocationError     error
	FindNearbyCouriersError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		locations: make([]redis.CourierLocation, 0),
	}
}

// SetLocations sets all locations in order (for test setup). The mock
// returns them as-is, so the slice order stands in for "nearest first".
func (m *MockLocationStore) SetLocations(locations []redis.CourierLocation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations = locations
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, courierID string, lat, lng float64) error {
	atomic.AddInt32(&m.UpdateLocationCallCount, 1)
	if m.UpdateLocationError != nil {
		return m.UpdateLocationError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// Update existing or add new.
	for i, loc := range m.locations {
		if loc.CourierID == courierID {
			m.locations[i].Lat = lat
			m.locations[i].Lng = lng
			return nil
		}
	}
	m.locations = append(m.locations, redis.CourierLocation{
		CourierID: courierID,
		Lat:       lat,
		Lng:       lng,
	})
	return nil
}

func (m *MockLocationStore) FindNearbyCouriers(ctx context.Context, lat, lng, radiusKm float64) ([]redis.CourierLocation, error) {
	if m.FindNearbyCouriersError != nil {
		return nil, m.FindNearbyCouriersError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	// Return all locations (mock doesn't do real geo filtering).
	result := make([]redis.CourierLocation, len(m.locations))
	copy(result, m.locations)
	return result, nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, courierID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, loc := range m.locations {
		if loc.CourierID == courierID {
			m.locations = append(m.locations[:i], m.locations[i+1:]...)
			return nil
		}
	}
	return nil
}

// HasLocation checks if a courier location exists.
func (m *MockLocationStore) HasLocation(courierID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, loc := range m.locations {
		if loc.CourierID == courierID {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStore.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]time.Time),
	}
}

func (m *MockLockStore) acquire(key string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if expiry, exists := m.locks[key]; exists {
		if time.Now().Before(expiry) {
			return false, nil // Lock still held.
		}
	}

	m.locks[key] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockLockStore) release(key string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
	return nil
}

func (m *MockLockStore) AcquireDeliveryLock(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error) {
	return m.acquire("lock:delivery:"+deliveryID, ttl)
}

func (m *MockLockStore) ReleaseDeliveryLock(ctx context.Context, deliveryID string) error {
	return m.release("lock:delivery:" + deliveryID)
}

func (m *MockLockStore) AcquireCourierLock(ctx context.Context, courierID string, ttl time.Duration) (bool, error) {
	return m.acquire("lock:courier:"+courierID, ttl)
}

func (m *MockLockStore) ReleaseCourierLock(ctx context.Context, courierID string) error {
	return m.release("lock:courier:" + courierID)
}

// IsLocked checks if a delivery is locked (for test assertions).
func (m *MockLockStore) IsLocked(deliveryID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, exists := m.locks["lock:delivery:"+deliveryID]
	return exists && time.Now().Before(expiry)
}

// ──────────────────────────────────────────────
// MOCK CLOCK
// ──────────────────────────────────────────────

// MockClock is a settable clock for deterministic timestamps.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock creates a clock frozen at the given time.
func NewMockClock(now time.Time) *MockClock {
	return &MockClock{now: now}
}

func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set pins the clock to an exact instant.
func (c *MockClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockDBConstraint = errors.New("mock: unique constraint violation")
	ErrMockTimeout      = errors.New("mock: operation timeout")
)
