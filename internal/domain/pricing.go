package domain

import "time"

// BaseFeeConfig is the flat pricing configuration applied to every delivery.
// It is replaced wholesale by admin actions and is never partially set.
type BaseFeeConfig struct {
	BaseFee       float64
	FeePerKm      float64
	MinDistanceKm float64
	MaxDistanceKm float64
}

// Valid reports whether the numeric invariants hold.
func (c BaseFeeConfig) Valid() bool {
	return c.BaseFee >= 0 &&
		c.FeePerKm >= 0 &&
		c.MinDistanceKm >= 0 &&
		c.MaxDistanceKm >= c.MinDistanceKm
}

// ClampDistance clamps d into the serviceable envelope [MinDistanceKm, MaxDistanceKm].
func (c BaseFeeConfig) ClampDistance(d float64) float64 {
	if d < c.MinDistanceKm {
		return c.MinDistanceKm
	}
	if d > c.MaxDistanceKm {
		return c.MaxDistanceKm
	}
	return d
}

// TimeRange is a time-of-day window on a set of weekdays carrying a fee
// multiplier. Times are minutes since midnight and the window is half-open:
// [StartMinute, EndMinute). Ranges may not wrap midnight, so StartMinute
// must be strictly less than EndMinute.
type TimeRange struct {
	ID          string
	StartMinute int
	EndMinute   int
	Multiplier  float64
	Days        []time.Weekday
}

// Valid reports whether the range satisfies its numeric invariants.
func (r TimeRange) Valid() bool {
	return r.StartMinute >= 0 &&
		r.EndMinute <= 24*60 &&
		r.StartMinute < r.EndMinute &&
		r.Multiplier >= 1 &&
		len(r.Days) > 0
}

// AppliesOn reports whether the range covers the given weekday and
// minute-of-day.
func (r TimeRange) AppliesOn(day time.Weekday, minute int) bool {
	return r.hasDay(day) && minute >= r.StartMinute && minute < r.EndMinute
}

// Overlaps reports whether two ranges can apply to the same instant: they
// share at least one weekday and their half-open minute intervals intersect.
// A range ending exactly when another starts does not overlap.
func (r TimeRange) Overlaps(other TimeRange) bool {
	if !r.sharesDay(other) {
		return false
	}
	return r.StartMinute < other.EndMinute && other.StartMinute < r.EndMinute
}

func (r TimeRange) hasDay(day time.Weekday) bool {
	for _, d := range r.Days {
		if d == day {
			return true
		}
	}
	return false
}

func (r TimeRange) sharesDay(other TimeRange) bool {
	for _, d := range other.Days {
		if r.hasDay(d) {
			return true
		}
	}
	return false
}

// DistanceRange is a distance band [MinDistanceKm, MaxDistanceKm) carrying a
// per-km rate that overrides the base rate within the band.
type DistanceRange struct {
	ID            string
	MinDistanceKm float64
	MaxDistanceKm float64
	FeePerKm      float64
}

// Valid reports whether the band satisfies its numeric invariants.
func (r DistanceRange) Valid() bool {
	return r.MinDistanceKm >= 0 &&
		r.MinDistanceKm < r.MaxDistanceKm &&
		r.FeePerKm >= 0
}

// Contains reports whether d falls inside the half-open band.
func (r DistanceRange) Contains(d float64) bool {
	return d >= r.MinDistanceKm && d < r.MaxDistanceKm
}

// Overlaps reports whether two bands intersect. Adjacent bands where one's
// max equals the other's min do not overlap.
func (r DistanceRange) Overlaps(other DistanceRange) bool {
	return r.MinDistanceKm < other.MaxDistanceKm && other.MinDistanceKm < r.MaxDistanceKm
}
