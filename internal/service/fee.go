package service

import (
	"math"
	"time"
)

// ETA tuning. The estimate is a straight speed-based ride time plus a fixed
// handling window for pickup and drop-off, so it is monotonic in distance.
const (
	courierSpeedKmh = 25.0
	handlingMinutes = 10
)

// FeeBreakdown itemizes how a quote was computed.
type FeeBreakdown struct {
	BaseFee            float64
	DistanceKm         float64 // after clamping to the serviceable envelope
	EffectiveRatePerKm float64
	DistanceRangeID    string // empty when the default rate applied
	RawFee             float64
	Multiplier         float64
	TimeRangeID        string // empty when no time multiplier applied
}

// FeeQuote is the fee and ETA computed for a given distance and time.
type FeeQuote struct {
	Fee              float64
	EstimatedMinutes int
	Breakdown        FeeBreakdown
}

// FeeCalculator computes delivery fee quotes from the active pricing
// configuration. Quoting is pure given a snapshot and never fails on valid
// input: the store is seeded with defaults, so checkout is always quotable.
type FeeCalculator struct {
	pricing *PricingStore
	clock   Clock
}

// NewFeeCalculator creates a new FeeCalculator.
func NewFeeCalculator(pricing *PricingStore, clock Clock) *FeeCalculator {
	if clock == nil {
		clock = RealClock{}
	}
	return &FeeCalculator{pricing: pricing, clock: clock}
}

// Quote computes the fee and ETA for a distance at the current time.
func (c *FeeCalculator) Quote(distanceKm float64) FeeQuote {
	return QuoteFromSnapshot(c.pricing.Snapshot(), distanceKm, c.clock.Now())
}

// QuoteAt computes the fee and ETA for a distance at an explicit time.
func (c *FeeCalculator) QuoteAt(distanceKm float64, at time.Time) FeeQuote {
	return QuoteFromSnapshot(c.pricing.Snapshot(), distanceKm, at)
}

// QuoteFromSnapshot is the pure quoting function.
//
// Distance is clamped into the serviceable envelope, priced at the matching
// distance band's rate (or the default rate when no band contains it), and
// the result is scaled by the time multiplier whose window covers the
// evaluation instant. The overlap invariants guarantee at most one band and
// at most one window match. The fee is rounded to two decimals.
func QuoteFromSnapshot(snap PricingSnapshot, distanceKm float64, at time.Time) FeeQuote {
	if distanceKm < 0 || math.IsNaN(distanceKm) || math.IsInf(distanceKm, 0) {
		distanceKm = 0
	}

	clamped := snap.Base.ClampDistance(distanceKm)

	rate := snap.Base.FeePerKm
	bandID := ""
	for _, dr := range snap.DistanceRanges {
		if dr.Contains(clamped) {
			rate = dr.FeePerKm
			bandID = dr.ID
			break
		}
	}

	rawFee := snap.Base.BaseFee + rate*clamped

	multiplier := 1.0
	windowID := ""
	minute := at.Hour()*60 + at.Minute()
	for _, tr := range snap.TimeRanges {
		if tr.AppliesOn(at.Weekday(), minute) {
			multiplier = tr.Multiplier
			windowID = tr.ID
			break
		}
	}

	return FeeQuote{
		Fee:              round2(rawFee * multiplier),
		EstimatedMinutes: estimateMinutes(clamped),
		Breakdown: FeeBreakdown{
			BaseFee:            snap.Base.BaseFee,
			DistanceKm:         clamped,
			EffectiveRatePerKm: rate,
			DistanceRangeID:    bandID,
			RawFee:             rawFee,
			Multiplier:         multiplier,
			TimeRangeID:        windowID,
		},
	}
}

// estimateMinutes derives the ETA from distance. Monotonic in distance.
func estimateMinutes(distanceKm float64) int {
	rideMinutes := distanceKm / courierSpeedKmh * 60
	return int(math.Ceil(rideMinutes)) + handlingMinutes
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
