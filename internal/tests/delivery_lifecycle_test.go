package tests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"delivery/internal/domain"
	"delivery/internal/repository"
	"delivery/internal/service"
)

// ──────────────────────────────────────────────
// DELIVERY LIFECYCLE
// ──────────────────────────────────────────────

type lifecycleFixture struct {
	deliveryRepo *MockDeliveryRepository
	orderRepo    *MockOrderRepository
	courierRepo  *MockCourierRepository
	lockStore    *MockLockStore
	clock        *MockClock
	service      *service.DeliveryService
}

// newLifecycleFixture wires a DeliveryService against the in-memory mocks.
// withLock controls whether the assignment fence is present.
func newLifecycleFixture(withLock bool) *lifecycleFixture {
	f := &lifecycleFixture{
		deliveryRepo: NewMockDeliveryRepository(),
		orderRepo:    NewMockOrderRepository(),
		courierRepo:  NewMockCourierRepository(),
		clock:        NewMockClock(time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)),
	}

	pricing := service.NewPricingStore(nil, nil)
	calc := service.NewFeeCalculator(pricing, f.clock)
	rating := service.NewRatingService(f.deliveryRepo, f.courierRepo)

	var lockStore *MockLockStore
	if withLock {
		lockStore = NewMockLockStore()
		f.lockStore = lockStore
	}

	if lockStore != nil {
		f.service = service.NewDeliveryService(
			nil, f.deliveryRepo, f.orderRepo, f.courierRepo,
			calc, rating, lockStore, nil, nil, f.clock,
		)
	} else {
		f.service = service.NewDeliveryService(
			nil, f.deliveryRepo, f.orderRepo, f.courierRepo,
			calc, rating, nil, nil, nil, f.clock,
		)
	}
	return f
}

func (f *lifecycleFixture) addOrder(id string) {
	f.orderRepo.AddOrder(&domain.Order{
		ID:           id,
		CustomerID:   "customer-1",
		RestaurantID: "restaurant-1",
		Total:        24.90,
		CreatedAt:    f.clock.Now(),
	})
}

func (f *lifecycleFixture) addCourier(id string, status domain.CourierStatus) {
	f.courierRepo.AddCourier(&domain.Courier{
		ID:     id,
		Name:   "Courier " + id,
		Phone:  "+1555" + id,
		Status: status,
	})
}

func TestDelivery_CreateQuotesFeeAndStartsPending(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(false)
	f.addOrder("order-1")

	delivery, err := f.service.CreateDelivery(context.Background(), service.CreateDeliveryRequest{
		OrderID:    "order-1",
		DistanceKm: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if delivery.Status != domain.DeliveryStatusPending {
		t.Errorf("expected PENDING, got %s", delivery.Status)
	}
	// Default config: 2.50 + 1.00*10.
	if delivery.Fee != 12.50 {
		t.Errorf("expected fee 12.50, got %.2f", delivery.Fee)
	}
	if delivery.EstimatedMinutes != 34 {
		t.Errorf("expected ETA 34, got %d", delivery.EstimatedMinutes)
	}
	if delivery.CourierID != "" {
		t.Errorf("new delivery should have no courier, got %q", delivery.CourierID)
	}
	if !delivery.CreatedAt.Equal(f.clock.Now()) {
		t.Errorf("expected CreatedAt %v, got %v", f.clock.Now(), delivery.CreatedAt)
	}
	if f.deliveryRepo.CountDeliveries() != 1 {
		t.Errorf("expected 1 persisted delivery, got %d", f.deliveryRepo.CountDeliveries())
	}
}

func TestDelivery_CreateRequiresExistingOrder(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(false)

	_, err := f.service.CreateDelivery(context.Background(), service.CreateDeliveryRequest{
		OrderID:    "ghost-order",
		DistanceKm: 5,
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if f.deliveryRepo.CountDeliveries() != 0 {
		t.Error("no delivery should be persisted for an unknown order")
	}
}

func TestDelivery_CreateRejectsInvalidDistance(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(false)
	f.addOrder("order-1")

	_, err := f.service.CreateDelivery(context.Background(), service.CreateDeliveryRequest{
		OrderID:    "order-1",
		DistanceKm: -2,
	})
	if !errors.Is(err, service.ErrInvalidDistance) {
		t.Errorf("expected ErrInvalidDistance, got %v", err)
	}
}

func TestDelivery_AssignMovesToPreparingAndMarksCourierBusy(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(true)
	f.addCourier("courier-1", domain.CourierStatusAvailable)
	f.deliveryRepo.AddDelivery(&domain.Delivery{
		ID:      "delivery-1",
		OrderID: "order-1",
		Status:  domain.DeliveryStatusPending,
	})

	delivery, err := f.service.AssignCourier(context.Background(), service.AssignCourierRequest{
		DeliveryID: "delivery-1",
		CourierID:  "courier-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if delivery.Status != domain.DeliveryStatusPreparing {
		t.Errorf("expected PREPARING, got %s", delivery.Status)
	}
	if delivery.CourierID != "courier-1" {
		t.Errorf("expected courier-1, got %q", delivery.CourierID)
	}
	if got := f.courierRepo.GetCourier("courier-1").Status; got != domain.CourierStatusBusy {
		t.Errorf("expected courier BUSY, got %s", got)
	}
	// The fence is released once the assignment lands.
	if f.lockStore.IsLocked("delivery-1") {
		t.Error("assignment lock should be released")
	}
}

func TestDelivery_AssignRejectsBusyCourier(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(false)
	f.addCourier("courier-1", domain.CourierStatusBusy)
	f.deliveryRepo.AddDelivery(&domain.Delivery{
		ID:     "delivery-1",
		Status: domain.DeliveryStatusPending,
	})

	_, err := f.service.AssignCourier(context.Background(), service.AssignCourierRequest{
		DeliveryID: "delivery-1",
		CourierID:  "courier-1",
	})
	if !errors.Is(err, service.ErrCourierNotAvailable) {
		t.Errorf("expected ErrCourierNotAvailable, got %v", err)
	}
}

func TestDelivery_AssignRejectsSecondCourier(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(false)
	f.addCourier("courier-2", domain.CourierStatusAvailable)
	f.deliveryRepo.AddDelivery(&domain.Delivery{
		ID:        "delivery-1",
		Status:    domain.DeliveryStatusPreparing,
		CourierID: "courier-1",
	})

	_, err := f.service.AssignCourier(context.Background(), service.AssignCourierRequest{
		DeliveryID: "delivery-1",
		CourierID:  "courier-2",
	})
	if !errors.Is(err, service.ErrCourierAlreadyAssigned) {
		t.Errorf("expected ErrCourierAlreadyAssigned, got %v", err)
	}
}

func TestDelivery_AssignRejectsClosedDelivery(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(false)
	f.addCourier("courier-1", domain.CourierStatusAvailable)

	for _, status := range []domain.DeliveryStatus{domain.DeliveryStatusDelivered, domain.DeliveryStatusCancelled} {
		f.deliveryRepo.AddDelivery(&domain.Delivery{
			ID:     "delivery-" + string(status),
			Status: status,
		})

		_, err := f.service.AssignCourier(context.Background(), service.AssignCourierRequest{
			DeliveryID: "delivery-" + string(status),
			CourierID:  "courier-1",
		})
		if !errors.Is(err, service.ErrDeliveryClosed) {
			t.Errorf("status %s: expected ErrDeliveryClosed, got %v", status, err)
		}
	}
}

func TestDelivery_AssignHeldLockReturnsInProgress(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(true)
	f.addCourier("courier-1", domain.CourierStatusAvailable)
	f.deliveryRepo.AddDelivery(&domain.Delivery{
		ID:     "delivery-1",
		Status: domain.DeliveryStatusPending,
	})

	f.lockStore.ForceAcquireFailure = true

	_, err := f.service.AssignCourier(context.Background(), service.AssignCourierRequest{
		DeliveryID: "delivery-1",
		CourierID:  "courier-1",
	})
	if !errors.Is(err, service.ErrAssignmentInProgress) {
		t.Errorf("expected ErrAssignmentInProgress, got %v", err)
	}
}

func TestDelivery_ConcurrentAssignmentsOnlyOneWins(t *testing.T) {
	t.Parallel()

	// No lock store: every attempt races straight to the conditional write.
	f := newLifecycleFixture(false)
	f.deliveryRepo.AddDelivery(&domain.Delivery{
		ID:     "delivery-1",
		Status: domain.DeliveryStatusPending,
	})

	const attempts = 20
	for i := 0; i < attempts; i++ {
		f.addCourier(courierID(i), domain.CourierStatusAvailable)
	}

	var wins, conflicts int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.service.AssignCourier(context.Background(), service.AssignCourierRequest{
				DeliveryID: "delivery-1",
				CourierID:  courierID(i),
			})
			switch {
			case err == nil:
				atomic.AddInt32(&wins, 1)
			case errors.Is(err, service.ErrCourierAlreadyAssigned):
				atomic.AddInt32(&conflicts, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("expected exactly 1 winning assignment, got %d", wins)
	}
	if wins+conflicts != attempts {
		t.Errorf("expected %d total outcomes, got %d wins + %d conflicts", attempts, wins, conflicts)
	}

	stored := f.deliveryRepo.GetDelivery("delivery-1")
	if stored.CourierID == "" {
		t.Error("winning courier should be recorded")
	}
	// Exactly the winning courier went BUSY.
	busy := 0
	for i := 0; i < attempts; i++ {
		if f.courierRepo.GetCourier(courierID(i)).Status == domain.CourierStatusBusy {
			busy++
		}
	}
	if busy != 1 {
		t.Errorf("expected exactly 1 BUSY courier, got %d", busy)
	}
}

func courierID(i int) string {
	return "courier-" + string(rune('a'+i))
}

func TestDelivery_DeliveringSetsStartTimeOnce(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(false)
	f.addCourier("courier-1", domain.CourierStatusBusy)
	f.deliveryRepo.AddDelivery(&domain.Delivery{
		ID:        "delivery-1",
		Status:    domain.DeliveryStatusPreparing,
		CourierID: "courier-1",
	})

	ctx := context.Background()
	first, err := f.service.UpdateStatus(ctx, service.UpdateStatusRequest{
		DeliveryID: "delivery-1",
		Status:     domain.DeliveryStatusDelivering,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.StartTime.Equal(f.clock.Now()) {
		t.Errorf("expected StartTime %v, got %v", f.clock.Now(), first.StartTime)
	}

	startedAt := first.StartTime
	f.clock.Advance(15 * time.Minute)

	// A repeated DELIVERING transition must not move the start timestamp.
	second, err := f.service.UpdateStatus(ctx, service.UpdateStatusRequest{
		DeliveryID: "delivery-1",
		Status:     domain.DeliveryStatusDelivering,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.StartTime.Equal(startedAt) {
		t.Errorf("StartTime moved on repeat transition: %v -> %v", startedAt, second.StartTime)
	}
}

func TestDelivery_DeliveredReleasesCourierAndCounts(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(false)
	f.addCourier("courier-1", domain.CourierStatusBusy)
	f.deliveryRepo.AddDelivery(&domain.Delivery{
		ID:        "delivery-1",
		Status:    domain.DeliveryStatusDelivering,
		CourierID: "courier-1",
		StartTime: f.clock.Now().Add(-20 * time.Minute),
	})

	delivery, err := f.service.UpdateStatus(context.Background(), service.UpdateStatusRequest{
		DeliveryID: "delivery-1",
		Status:     domain.DeliveryStatusDelivered,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !delivery.EndTime.Equal(f.clock.Now()) {
		t.Errorf("expected EndTime %v, got %v", f.clock.Now(), delivery.EndTime)
	}

	courier := f.courierRepo.GetCourier("courier-1")
	if courier.Status != domain.CourierStatusAvailable {
		t.Errorf("expected courier AVAILABLE after delivery, got %s", courier.Status)
	}
	if courier.TotalDeliveries != 1 {
		t.Errorf("expected 1 completed delivery, got %d", courier.TotalDeliveries)
	}
}

func TestDelivery_CancelledReleasesCourierWithoutCounting(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(false)
	f.addCourier("courier-1", domain.CourierStatusBusy)
	f.deliveryRepo.AddDelivery(&domain.Delivery{
		ID:        "delivery-1",
		Status:    domain.DeliveryStatusPreparing,
		CourierID: "courier-1",
	})

	delivery, err := f.service.UpdateStatus(context.Background(), service.UpdateStatusRequest{
		DeliveryID: "delivery-1",
		Status:     domain.DeliveryStatusCancelled,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !delivery.EndTime.IsZero() {
		t.Errorf("cancellation should not set EndTime, got %v", delivery.EndTime)
	}

	courier := f.courierRepo.GetCourier("courier-1")
	if courier.Status != domain.CourierStatusAvailable {
		t.Errorf("expected courier AVAILABLE after cancellation, got %s", courier.Status)
	}
	if courier.TotalDeliveries != 0 {
		t.Errorf("cancellation must not count as a completed delivery, got %d", courier.TotalDeliveries)
	}
}

func TestDelivery_CancelWithoutCourierTouchesNoCourier(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(false)
	f.deliveryRepo.AddDelivery(&domain.Delivery{
		ID:     "delivery-1",
		Status: domain.DeliveryStatusPending,
	})

	_, err := f.service.UpdateStatus(context.Background(), service.UpdateStatusRequest{
		DeliveryID: "delivery-1",
		Status:     domain.DeliveryStatusCancelled,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := atomic.LoadInt32(&f.courierRepo.UpdateStatusCallCount); n != 0 {
		t.Errorf("unassigned cancellation wrote courier status %d times", n)
	}
}

func TestDelivery_TerminalStatesAreFrozen(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(false)
	f.deliveryRepo.AddDelivery(&domain.Delivery{
		ID:     "delivered-1",
		Status: domain.DeliveryStatusDelivered,
	})
	f.deliveryRepo.AddDelivery(&domain.Delivery{
		ID:     "cancelled-1",
		Status: domain.DeliveryStatusCancelled,
	})

	ctx := context.Background()
	for _, id := range []string{"delivered-1", "cancelled-1"} {
		for _, next := range []domain.DeliveryStatus{
			domain.DeliveryStatusPending,
			domain.DeliveryStatusDelivering,
			domain.DeliveryStatusDelivered,
			domain.DeliveryStatusCancelled,
		} {
			_, err := f.service.UpdateStatus(ctx, service.UpdateStatusRequest{
				DeliveryID: id,
				Status:     next,
			})
			if !errors.Is(err, service.ErrDeliveryClosed) {
				t.Errorf("%s -> %s: expected ErrDeliveryClosed, got %v", id, next, err)
			}
		}
	}
}

func TestDelivery_RejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(false)
	f.deliveryRepo.AddDelivery(&domain.Delivery{
		ID:     "delivery-1",
		Status: domain.DeliveryStatusPending,
	})

	_, err := f.service.UpdateStatus(context.Background(), service.UpdateStatusRequest{
		DeliveryID: "delivery-1",
		Status:     "TELEPORTED",
	})
	if !errors.Is(err, service.ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestDelivery_PendingQueueOrderedOldestFirst(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(false)
	base := f.clock.Now()

	f.deliveryRepo.AddDelivery(&domain.Delivery{
		ID: "newest", Status: domain.DeliveryStatusPending, CreatedAt: base.Add(2 * time.Minute),
	})
	f.deliveryRepo.AddDelivery(&domain.Delivery{
		ID: "oldest", Status: domain.DeliveryStatusPending, CreatedAt: base,
	})
	f.deliveryRepo.AddDelivery(&domain.Delivery{
		ID: "middle", Status: domain.DeliveryStatusPending, CreatedAt: base.Add(time.Minute),
	})
	// Assigned and closed deliveries never appear in the queue.
	f.deliveryRepo.AddDelivery(&domain.Delivery{
		ID: "assigned", Status: domain.DeliveryStatusPreparing, CourierID: "courier-1", CreatedAt: base,
	})
	f.deliveryRepo.AddDelivery(&domain.Delivery{
		ID: "done", Status: domain.DeliveryStatusDelivered, CourierID: "courier-1", CreatedAt: base,
	})

	pending, err := f.service.ListPending(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"oldest", "middle", "newest"}
	if len(pending) != len(want) {
		t.Fatalf("expected %d pending deliveries, got %d", len(want), len(pending))
	}
	for i, id := range want {
		if pending[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, pending[i].ID)
		}
	}
}

func TestDelivery_ListFiltersByStatusAndCourier(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(false)
	base := f.clock.Now()

	f.deliveryRepo.AddDelivery(&domain.Delivery{
		ID: "d1", Status: domain.DeliveryStatusDelivered, CourierID: "courier-1", CreatedAt: base,
	})
	f.deliveryRepo.AddDelivery(&domain.Delivery{
		ID: "d2", Status: domain.DeliveryStatusDelivered, CourierID: "courier-2", CreatedAt: base.Add(time.Minute),
	})
	f.deliveryRepo.AddDelivery(&domain.Delivery{
		ID: "d3", Status: domain.DeliveryStatusPending, CreatedAt: base.Add(2 * time.Minute),
	})

	ctx := context.Background()

	items, total, err := f.service.ListDeliveries(ctx, repository.DeliveryFilter{
		Status: domain.DeliveryStatusDelivered,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Errorf("expected 2 delivered, got %d (total %d)", len(items), total)
	}

	items, total, err = f.service.ListDeliveries(ctx, repository.DeliveryFilter{
		CourierID: "courier-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].ID != "d1" {
		t.Errorf("expected only d1 for courier-1, got %+v", items)
	}

	if _, _, err := f.service.ListDeliveries(ctx, repository.DeliveryFilter{Status: "BOGUS"}); !errors.Is(err, service.ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus for bogus filter, got %v", err)
	}
}
