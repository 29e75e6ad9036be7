package tests

import (
	"context"
	"testing"
	"time"

	"delivery/internal/domain"
	"delivery/internal/service"
)

// ──────────────────────────────────────────────
// FEE QUOTING
// ──────────────────────────────────────────────

// newPricingStore builds an in-memory store (no repo, no cache) seeded with
// the given base config.
func newPricingStore(t *testing.T, base domain.BaseFeeConfig) *service.PricingStore {
	t.Helper()
	store := service.NewPricingStore(nil, nil)
	if err := store.ReplaceBaseConfig(context.Background(), base); err != nil {
		t.Fatalf("unexpected error seeding base config: %v", err)
	}
	return store
}

// aTuesdayAt returns a fixed Tuesday at the given hour and minute.
// 2025-03-04 is a Tuesday.
func aTuesdayAt(hour, minute int) time.Time {
	return time.Date(2025, 3, 4, hour, minute, 0, 0, time.UTC)
}

func TestQuote_BaseFeePlusDistance(t *testing.T) {
	t.Parallel()

	store := newPricingStore(t, domain.BaseFeeConfig{
		BaseFee:       2.50,
		FeePerKm:      1.00,
		MinDistanceKm: 0,
		MaxDistanceKm: 30,
	})
	calc := service.NewFeeCalculator(store, NewMockClock(aTuesdayAt(12, 0)))

	quote := calc.Quote(10)

	if quote.Fee != 12.50 {
		t.Errorf("expected fee 12.50, got %.2f", quote.Fee)
	}
	// 10 km at 25 km/h is 24 minutes, plus 10 minutes handling.
	if quote.EstimatedMinutes != 34 {
		t.Errorf("expected ETA 34, got %d", quote.EstimatedMinutes)
	}
	if quote.Breakdown.Multiplier != 1.0 {
		t.Errorf("expected no multiplier, got %.2f", quote.Breakdown.Multiplier)
	}
}

func TestQuote_IsDeterministic(t *testing.T) {
	t.Parallel()

	store := newPricingStore(t, domain.BaseFeeConfig{
		BaseFee:       3.00,
		FeePerKm:      1.25,
		MinDistanceKm: 0,
		MaxDistanceKm: 30,
	})
	clock := NewMockClock(aTuesdayAt(9, 30))
	calc := service.NewFeeCalculator(store, clock)

	first := calc.Quote(7.3)
	second := calc.Quote(7.3)

	if first != second {
		t.Errorf("identical inputs produced different quotes: %+v vs %+v", first, second)
	}
}

func TestQuote_TimeMultiplierApplies(t *testing.T) {
	t.Parallel()

	store := newPricingStore(t, domain.BaseFeeConfig{
		BaseFee:       5.00,
		FeePerKm:      1.50,
		MinDistanceKm: 0,
		MaxDistanceKm: 30,
	})

	// Evening window 18:00-24:00, weekdays only, x1.5.
	tr, err := store.AddTimeRange(context.Background(), domain.TimeRange{
		StartMinute: 18 * 60,
		EndMinute:   24 * 60,
		Multiplier:  1.5,
		Days: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calc := service.NewFeeCalculator(store, NewMockClock(aTuesdayAt(20, 0)))

	quote := calc.Quote(10)

	// (5.00 + 1.50*10) * 1.5 = 30.00
	if quote.Fee != 30.00 {
		t.Errorf("expected fee 30.00, got %.2f", quote.Fee)
	}
	if quote.Breakdown.TimeRangeID != tr.ID {
		t.Errorf("expected time range %s in breakdown, got %q", tr.ID, quote.Breakdown.TimeRangeID)
	}

	// One minute before the window opens: no multiplier.
	offPeak := calc.QuoteAt(10, aTuesdayAt(17, 59))
	if offPeak.Fee != 20.00 {
		t.Errorf("expected off-peak fee 20.00, got %.2f", offPeak.Fee)
	}

	// Covered hour but a weekend day: no multiplier. 2025-03-08 is a Saturday.
	saturday := time.Date(2025, 3, 8, 20, 0, 0, 0, time.UTC)
	weekend := calc.QuoteAt(10, saturday)
	if weekend.Fee != 20.00 {
		t.Errorf("expected weekend fee 20.00, got %.2f", weekend.Fee)
	}
}

func TestQuote_DistanceBandOverridesRate(t *testing.T) {
	t.Parallel()

	store := newPricingStore(t, domain.BaseFeeConfig{
		BaseFee:       2.50,
		FeePerKm:      1.00,
		MinDistanceKm: 0,
		MaxDistanceKm: 30,
	})

	band, err := store.AddDistanceRange(context.Background(), domain.DistanceRange{
		MinDistanceKm: 5,
		MaxDistanceKm: 10,
		FeePerKm:      2.00,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calc := service.NewFeeCalculator(store, NewMockClock(aTuesdayAt(12, 0)))

	inside := calc.Quote(8)
	// 2.50 + 2.00*8 = 18.50
	if inside.Fee != 18.50 {
		t.Errorf("expected fee 18.50 inside the band, got %.2f", inside.Fee)
	}
	if inside.Breakdown.DistanceRangeID != band.ID {
		t.Errorf("expected band %s in breakdown, got %q", band.ID, inside.Breakdown.DistanceRangeID)
	}

	// The band is half-open: 10 km falls outside and prices at the base rate.
	atUpperBound := calc.Quote(10)
	if atUpperBound.Fee != 12.50 {
		t.Errorf("expected fee 12.50 at the band's upper bound, got %.2f", atUpperBound.Fee)
	}
	if atUpperBound.Breakdown.DistanceRangeID != "" {
		t.Errorf("expected no band at the upper bound, got %q", atUpperBound.Breakdown.DistanceRangeID)
	}

	outside := calc.Quote(3)
	if outside.Fee != 5.50 {
		t.Errorf("expected fee 5.50 below the band, got %.2f", outside.Fee)
	}
}

func TestQuote_DistanceClampedToEnvelope(t *testing.T) {
	t.Parallel()

	store := newPricingStore(t, domain.BaseFeeConfig{
		BaseFee:       2.50,
		FeePerKm:      1.00,
		MinDistanceKm: 1,
		MaxDistanceKm: 30,
	})
	calc := service.NewFeeCalculator(store, NewMockClock(aTuesdayAt(12, 0)))

	tooFar := calc.Quote(50)
	if tooFar.Fee != 32.50 {
		t.Errorf("expected fee 32.50 at clamped max, got %.2f", tooFar.Fee)
	}
	if tooFar.Breakdown.DistanceKm != 30 {
		t.Errorf("expected clamped distance 30, got %.2f", tooFar.Breakdown.DistanceKm)
	}

	tooClose := calc.Quote(0.2)
	if tooClose.Breakdown.DistanceKm != 1 {
		t.Errorf("expected clamped distance 1, got %.2f", tooClose.Breakdown.DistanceKm)
	}
	if tooClose.Fee != 3.50 {
		t.Errorf("expected fee 3.50 at clamped min, got %.2f", tooClose.Fee)
	}
}

func TestQuote_ETAMonotonicInDistance(t *testing.T) {
	t.Parallel()

	store := newPricingStore(t, domain.BaseFeeConfig{
		BaseFee:       2.50,
		FeePerKm:      1.00,
		MinDistanceKm: 0,
		MaxDistanceKm: 30,
	})
	calc := service.NewFeeCalculator(store, NewMockClock(aTuesdayAt(12, 0)))

	prev := -1
	for _, d := range []float64{0, 0.5, 1, 2.5, 5, 10, 15, 20, 30} {
		quote := calc.Quote(d)
		if quote.EstimatedMinutes < prev {
			t.Errorf("ETA decreased at distance %.1f: %d < %d", d, quote.EstimatedMinutes, prev)
		}
		prev = quote.EstimatedMinutes
	}
}

func TestQuote_FeeRoundedToTwoDecimals(t *testing.T) {
	t.Parallel()

	store := newPricingStore(t, domain.BaseFeeConfig{
		BaseFee:       2.00,
		FeePerKm:      0.333,
		MinDistanceKm: 0,
		MaxDistanceKm: 30,
	})
	calc := service.NewFeeCalculator(store, NewMockClock(aTuesdayAt(12, 0)))

	// 2.00 + 0.333*10 = 5.33
	quote := calc.Quote(10)
	if quote.Fee != 5.33 {
		t.Errorf("expected fee 5.33, got %v", quote.Fee)
	}
}

func TestQuote_OverlappingWindowsNeverStack(t *testing.T) {
	t.Parallel()

	store := newPricingStore(t, domain.BaseFeeConfig{
		BaseFee:       2.50,
		FeePerKm:      1.00,
		MinDistanceKm: 0,
		MaxDistanceKm: 30,
	})

	ctx := context.Background()
	if _, err := store.AddTimeRange(ctx, domain.TimeRange{
		StartMinute: 11 * 60,
		EndMinute:   14 * 60,
		Multiplier:  1.2,
		Days:        []time.Weekday{time.Tuesday},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Adjacent, not overlapping: multiplied exactly once either way.
	if _, err := store.AddTimeRange(ctx, domain.TimeRange{
		StartMinute: 14 * 60,
		EndMinute:   17 * 60,
		Multiplier:  1.4,
		Days:        []time.Weekday{time.Tuesday},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calc := service.NewFeeCalculator(store, NewMockClock(aTuesdayAt(12, 0)))

	lunch := calc.QuoteAt(10, aTuesdayAt(12, 0))
	if lunch.Fee != 15.00 {
		t.Errorf("expected fee 15.00 in the lunch window, got %.2f", lunch.Fee)
	}

	// The boundary minute belongs to the later window only.
	boundary := calc.QuoteAt(10, aTuesdayAt(14, 0))
	if boundary.Fee != 17.50 {
		t.Errorf("expected fee 17.50 at the window boundary, got %.2f", boundary.Fee)
	}
}
