package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"delivery/internal/domain"
	"delivery/internal/service"
)

// ──────────────────────────────────────────────
// PRICING CONFIGURATION
// ──────────────────────────────────────────────

func TestPricing_OverlappingTimeRangeRejectedWithConflictID(t *testing.T) {
	t.Parallel()

	store := service.NewPricingStore(nil, nil)
	ctx := context.Background()

	existing, err := store.AddTimeRange(ctx, domain.TimeRange{
		StartMinute: 8 * 60,
		EndMinute:   10 * 60,
		Multiplier:  1.3,
		Days:        []time.Weekday{time.Monday, time.Tuesday},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = store.AddTimeRange(ctx, domain.TimeRange{
		StartMinute: 9 * 60,
		EndMinute:   11 * 60,
		Multiplier:  1.1,
		Days:        []time.Weekday{time.Tuesday},
	})
	if err == nil {
		t.Fatal("expected overlap rejection")
	}
	if !errors.Is(err, service.ErrRangeOverlap) {
		t.Errorf("expected ErrRangeOverlap, got %v", err)
	}

	var conflict *service.RangeConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected RangeConflictError, got %T", err)
	}
	if conflict.ConflictingID != existing.ID {
		t.Errorf("expected conflicting id %s, got %s", existing.ID, conflict.ConflictingID)
	}
}

func TestPricing_AdjacentTimeRangesAllowed(t *testing.T) {
	t.Parallel()

	store := service.NewPricingStore(nil, nil)
	ctx := context.Background()

	if _, err := store.AddTimeRange(ctx, domain.TimeRange{
		StartMinute: 8 * 60,
		EndMinute:   10 * 60,
		Multiplier:  1.3,
		Days:        []time.Weekday{time.Monday},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Starts exactly where the first ends: half-open intervals do not touch.
	if _, err := store.AddTimeRange(ctx, domain.TimeRange{
		StartMinute: 10 * 60,
		EndMinute:   12 * 60,
		Multiplier:  1.1,
		Days:        []time.Weekday{time.Monday},
	}); err != nil {
		t.Errorf("adjacent range should be accepted, got %v", err)
	}
}

func TestPricing_SameWindowDifferentDaysAllowed(t *testing.T) {
	t.Parallel()

	store := service.NewPricingStore(nil, nil)
	ctx := context.Background()

	if _, err := store.AddTimeRange(ctx, domain.TimeRange{
		StartMinute: 18 * 60,
		EndMinute:   22 * 60,
		Multiplier:  1.5,
		Days:        []time.Weekday{time.Friday},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Identical minutes but no shared weekday: never active together.
	if _, err := store.AddTimeRange(ctx, domain.TimeRange{
		StartMinute: 18 * 60,
		EndMinute:   22 * 60,
		Multiplier:  2.0,
		Days:        []time.Weekday{time.Saturday, time.Sunday},
	}); err != nil {
		t.Errorf("disjoint-days range should be accepted, got %v", err)
	}
}

func TestPricing_InvalidTimeRangeRejected(t *testing.T) {
	t.Parallel()

	store := service.NewPricingStore(nil, nil)
	ctx := context.Background()

	cases := []struct {
		name string
		tr   domain.TimeRange
	}{
		{"wraps midnight", domain.TimeRange{StartMinute: 22 * 60, EndMinute: 2 * 60, Multiplier: 1.5, Days: []time.Weekday{time.Friday}}},
		{"empty window", domain.TimeRange{StartMinute: 10 * 60, EndMinute: 10 * 60, Multiplier: 1.5, Days: []time.Weekday{time.Friday}}},
		{"discount multiplier", domain.TimeRange{StartMinute: 10 * 60, EndMinute: 12 * 60, Multiplier: 0.8, Days: []time.Weekday{time.Friday}}},
		{"no days", domain.TimeRange{StartMinute: 10 * 60, EndMinute: 12 * 60, Multiplier: 1.5}},
		{"past midnight", domain.TimeRange{StartMinute: 10 * 60, EndMinute: 25 * 60, Multiplier: 1.5, Days: []time.Weekday{time.Friday}}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := store.AddTimeRange(ctx, tc.tr); !errors.Is(err, service.ErrInvalidTimeRange) {
				t.Errorf("expected ErrInvalidTimeRange, got %v", err)
			}
		})
	}
}

func TestPricing_OverlappingDistanceBandRejected(t *testing.T) {
	t.Parallel()

	store := service.NewPricingStore(nil, nil)
	ctx := context.Background()

	existing, err := store.AddDistanceRange(ctx, domain.DistanceRange{
		MinDistanceKm: 0,
		MaxDistanceKm: 5,
		FeePerKm:      0.80,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = store.AddDistanceRange(ctx, domain.DistanceRange{
		MinDistanceKm: 4,
		MaxDistanceKm: 8,
		FeePerKm:      1.20,
	})
	var conflict *service.RangeConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected RangeConflictError, got %v", err)
	}
	if conflict.ConflictingID != existing.ID {
		t.Errorf("expected conflicting id %s, got %s", existing.ID, conflict.ConflictingID)
	}

	// Adjacent band starting at the first one's max is fine.
	if _, err := store.AddDistanceRange(ctx, domain.DistanceRange{
		MinDistanceKm: 5,
		MaxDistanceKm: 10,
		FeePerKm:      1.20,
	}); err != nil {
		t.Errorf("adjacent band should be accepted, got %v", err)
	}
}

func TestPricing_InvalidBaseConfigRejected(t *testing.T) {
	t.Parallel()

	store := service.NewPricingStore(nil, nil)
	ctx := context.Background()

	err := store.ReplaceBaseConfig(ctx, domain.BaseFeeConfig{
		BaseFee:       -1,
		FeePerKm:      1,
		MinDistanceKm: 0,
		MaxDistanceKm: 30,
	})
	if !errors.Is(err, service.ErrInvalidBaseConfig) {
		t.Errorf("expected ErrInvalidBaseConfig for negative base fee, got %v", err)
	}

	err = store.ReplaceBaseConfig(ctx, domain.BaseFeeConfig{
		BaseFee:       2,
		FeePerKm:      1,
		MinDistanceKm: 10,
		MaxDistanceKm: 5,
	})
	if !errors.Is(err, service.ErrInvalidBaseConfig) {
		t.Errorf("expected ErrInvalidBaseConfig for inverted envelope, got %v", err)
	}

	// A rejected replace leaves the previous config in place.
	snap := store.Snapshot()
	if snap.Base != service.DefaultBaseFeeConfig() {
		t.Errorf("base config changed after rejected replace: %+v", snap.Base)
	}
}

func TestPricing_RemoveIsIdempotent(t *testing.T) {
	t.Parallel()

	store := service.NewPricingStore(nil, nil)
	ctx := context.Background()

	tr, err := store.AddTimeRange(ctx, domain.TimeRange{
		StartMinute: 8 * 60,
		EndMinute:   10 * 60,
		Multiplier:  1.3,
		Days:        []time.Weekday{time.Monday},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.RemoveTimeRange(ctx, tr.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.RemoveTimeRange(ctx, tr.ID); err != nil {
		t.Errorf("second remove should be a no-op, got %v", err)
	}
	if err := store.RemoveDistanceRange(ctx, "never-existed"); err != nil {
		t.Errorf("removing an unknown band should be a no-op, got %v", err)
	}

	if n := len(store.Snapshot().TimeRanges); n != 0 {
		t.Errorf("expected 0 time ranges, got %d", n)
	}
}

func TestPricing_WritesThroughToRepositoryAndReloads(t *testing.T) {
	t.Parallel()

	repo := NewMockPricingRepository()
	ctx := context.Background()

	store := service.NewPricingStore(repo, nil)

	base := domain.BaseFeeConfig{BaseFee: 4.00, FeePerKm: 1.10, MinDistanceKm: 0, MaxDistanceKm: 25}
	if err := store.ReplaceBaseConfig(ctx, base); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tr, err := store.AddTimeRange(ctx, domain.TimeRange{
		StartMinute: 18 * 60,
		EndMinute:   21 * 60,
		Multiplier:  1.5,
		Days:        []time.Weekday{time.Friday},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.AddDistanceRange(ctx, domain.DistanceRange{
		MinDistanceKm: 0, MaxDistanceKm: 5, FeePerKm: 0.90,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A fresh store loading from the same repository sees the same rules.
	reloaded := service.NewPricingStore(repo, nil)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := reloaded.Snapshot()
	if snap.Base != base {
		t.Errorf("expected base %+v after reload, got %+v", base, snap.Base)
	}
	if len(snap.TimeRanges) != 1 || snap.TimeRanges[0].ID != tr.ID {
		t.Errorf("expected time range %s after reload, got %+v", tr.ID, snap.TimeRanges)
	}
	if len(snap.DistanceRanges) != 1 {
		t.Errorf("expected 1 distance range after reload, got %d", len(snap.DistanceRanges))
	}
}

func TestPricing_RepositoryFailureLeavesStoreUnchanged(t *testing.T) {
	t.Parallel()

	repo := NewMockPricingRepository()
	repo.InsertTimeRangeError = ErrMockDBConstraint
	store := service.NewPricingStore(repo, nil)
	ctx := context.Background()

	_, err := store.AddTimeRange(ctx, domain.TimeRange{
		StartMinute: 8 * 60,
		EndMinute:   10 * 60,
		Multiplier:  1.3,
		Days:        []time.Weekday{time.Monday},
	})
	if !errors.Is(err, ErrMockDBConstraint) {
		t.Fatalf("expected repository error to surface, got %v", err)
	}

	if n := len(store.Snapshot().TimeRanges); n != 0 {
		t.Errorf("range applied in memory despite failed persist: %d ranges", n)
	}
}

func TestPricing_SnapshotIsolatedFromLaterChanges(t *testing.T) {
	t.Parallel()

	store := service.NewPricingStore(nil, nil)
	ctx := context.Background()

	if _, err := store.AddTimeRange(ctx, domain.TimeRange{
		StartMinute: 8 * 60,
		EndMinute:   10 * 60,
		Multiplier:  1.3,
		Days:        []time.Weekday{time.Monday},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := store.Snapshot()

	// Mutating the snapshot must not leak into the store.
	snap.TimeRanges[0].Multiplier = 99
	snap.TimeRanges[0].Days[0] = time.Sunday

	fresh := store.Snapshot()
	if fresh.TimeRanges[0].Multiplier != 1.3 {
		t.Errorf("snapshot mutation leaked into store: multiplier %v", fresh.TimeRanges[0].Multiplier)
	}
	if fresh.TimeRanges[0].Days[0] != time.Monday {
		t.Errorf("snapshot mutation leaked into store: day %v", fresh.TimeRanges[0].Days[0])
	}
}
