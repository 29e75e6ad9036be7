package tests

import (
	"context"
	"errors"
	"testing"

	"delivery/internal/domain"
	"delivery/internal/redis"
	"delivery/internal/service"
)

// ──────────────────────────────────────────────
// AUTO-ASSIGNMENT DISPATCH
// ──────────────────────────────────────────────

type dispatchFixture struct {
	*lifecycleFixture
	locationStore *MockLocationStore
	dispatch      *service.DispatchService
}

func newDispatchFixture() *dispatchFixture {
	base := newLifecycleFixture(false)
	locationStore := NewMockLocationStore()
	return &dispatchFixture{
		lifecycleFixture: base,
		locationStore:    locationStore,
		dispatch:         service.NewDispatchService(locationStore, nil, base.courierRepo, base.service),
	}
}

func TestDispatch_AssignsNearestAvailableCourier(t *testing.T) {
	t.Parallel()

	f := newDispatchFixture()
	f.deliveryRepo.AddDelivery(&domain.Delivery{
		ID:     "delivery-1",
		Status: domain.DeliveryStatusPending,
	})
	f.addCourier("near", domain.CourierStatusAvailable)
	f.addCourier("far", domain.CourierStatusAvailable)
	f.locationStore.SetLocations([]redis.CourierLocation{
		{CourierID: "near", Lat: 40.01, Lng: -73.99},
		{CourierID: "far", Lat: 40.20, Lng: -73.80},
	})

	delivery, err := f.dispatch.AssignNearest(context.Background(), service.AssignNearestRequest{
		DeliveryID: "delivery-1",
		Lat:        40.0,
		Lng:        -74.0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if delivery.CourierID != "near" {
		t.Errorf("expected the nearest courier, got %q", delivery.CourierID)
	}
	if f.courierRepo.GetCourier("far").Status != domain.CourierStatusAvailable {
		t.Error("the farther courier should be untouched")
	}
}

func TestDispatch_SkipsUnavailableCandidates(t *testing.T) {
	t.Parallel()

	f := newDispatchFixture()
	f.deliveryRepo.AddDelivery(&domain.Delivery{
		ID:     "delivery-1",
		Status: domain.DeliveryStatusPending,
	})
	// Nearest is mid-delivery, second went home, third can take it.
	f.addCourier("busy", domain.CourierStatusBusy)
	f.addCourier("offline", domain.CourierStatusOffline)
	f.addCourier("free", domain.CourierStatusAvailable)
	f.locationStore.SetLocations([]redis.CourierLocation{
		{CourierID: "busy", Lat: 40.001, Lng: -74.0},
		{CourierID: "offline", Lat: 40.002, Lng: -74.0},
		{CourierID: "free", Lat: 40.010, Lng: -74.0},
	})

	delivery, err := f.dispatch.AssignNearest(context.Background(), service.AssignNearestRequest{
		DeliveryID: "delivery-1",
		Lat:        40.0,
		Lng:        -74.0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delivery.CourierID != "free" {
		t.Errorf("expected the first available candidate, got %q", delivery.CourierID)
	}
}

func TestDispatch_NoCandidates(t *testing.T) {
	t.Parallel()

	f := newDispatchFixture()
	f.deliveryRepo.AddDelivery(&domain.Delivery{
		ID:     "delivery-1",
		Status: domain.DeliveryStatusPending,
	})

	_, err := f.dispatch.AssignNearest(context.Background(), service.AssignNearestRequest{
		DeliveryID: "delivery-1",
		Lat:        40.0,
		Lng:        -74.0,
	})
	if !errors.Is(err, service.ErrNoCourierAvailable) {
		t.Errorf("expected ErrNoCourierAvailable with an empty area, got %v", err)
	}
}

func TestDispatch_AllCandidatesUnavailable(t *testing.T) {
	t.Parallel()

	f := newDispatchFixture()
	f.deliveryRepo.AddDelivery(&domain.Delivery{
		ID:     "delivery-1",
		Status: domain.DeliveryStatusPending,
	})
	f.addCourier("busy-1", domain.CourierStatusBusy)
	f.addCourier("busy-2", domain.CourierStatusBusy)
	f.locationStore.SetLocations([]redis.CourierLocation{
		{CourierID: "busy-1", Lat: 40.001, Lng: -74.0},
		{CourierID: "busy-2", Lat: 40.002, Lng: -74.0},
	})

	_, err := f.dispatch.AssignNearest(context.Background(), service.AssignNearestRequest{
		DeliveryID: "delivery-1",
		Lat:        40.0,
		Lng:        -74.0,
	})
	if !errors.Is(err, service.ErrNoCourierAvailable) {
		t.Errorf("expected ErrNoCourierAvailable, got %v", err)
	}
}

func TestDispatch_RejectsInvalidPickupPoint(t *testing.T) {
	t.Parallel()

	f := newDispatchFixture()

	_, err := f.dispatch.AssignNearest(context.Background(), service.AssignNearestRequest{
		DeliveryID: "delivery-1",
		Lat:        91.0,
		Lng:        -74.0,
	})
	if !errors.Is(err, service.ErrInvalidLocation) {
		t.Errorf("expected ErrInvalidLocation, got %v", err)
	}
}
