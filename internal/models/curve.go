package models

import (
	"errors"
	"fmt"
	"math"
)

const (
	// HoursPerDay is the number of setpoints in a day curve.
	HoursPerDay = 24
	// ExtendedLen is the length of a wrap-padded day curve.
	ExtendedLen = HoursPerDay + 2
	// DaysPerYear covers the leap day; index 365 always exists.
	DaysPerYear = 366
	// DefaultTemperature fills days that were never written.
	DefaultTemperature = 22.0
)

// ErrInvalidBounds is returned when a safety range has min > max.
var ErrInvalidBounds = errors.New("invalid safety bounds")

// DayCurve holds one temperature setpoint per hour, in degrees Celsius.
type DayCurve [HoursPerDay]float64

// ExtendedDayCurve is [d23, d0..d23, d0], used for continuous chart rendering.
type ExtendedDayCurve [ExtendedLen]float64

// Matrix is the seasonal collection of day curves. A full matrix has
// DaysPerYear entries; decoded partial datasets may be shorter.
type Matrix []DayCurve

// FlatCurve returns a curve with every hour set to t.
func FlatCurve(t float64) DayCurve {
	var c DayCurve
	for i := range c {
		c[i] = t
	}
	return c
}

// Extended derives the wrap-padded curve.
func (c DayCurve) Extended() ExtendedDayCurve {
	var e ExtendedDayCurve
	e[0] = c[HoursPerDay-1]
	copy(e[1:HoursPerDay+1], c[:])
	e[ExtendedLen-1] = c[0]
	return e
}

// Average returns the arithmetic mean of the 24 hours.
func (c DayCurve) Average() float64 {
	sum := 0.0
	for _, v := range c {
		sum += v
	}
	return sum / HoursPerDay
}

// MinMax returns the lowest and highest hourly values.
func (c DayCurve) MinMax() (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range c {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// ExtendedToHour maps an extended-curve index to the real hour it edits:
// 0 wraps to 23, 25 wraps to 0, and 1..24 map to 0..23.
func ExtendedToHour(index int) (int, bool) {
	switch {
	case index == 0:
		return HoursPerDay - 1, true
	case index == ExtendedLen-1:
		return 0, true
	case index > 0 && index < ExtendedLen-1:
		return index - 1, true
	}
	return 0, false
}

// NewMatrix builds a matrix of n days, each a copy of fill.
func NewMatrix(n int, fill DayCurve) Matrix {
	m := make(Matrix, n)
	for i := range m {
		m[i] = fill
	}
	return m
}

// Clone returns an independent copy.
func (m Matrix) Clone() Matrix {
	out := make(Matrix, len(m))
	copy(out, m)
	return out
}

// SafetyBounds is the operator-configured admissible temperature range.
// A single instance is shared by the store, the working curve and the editor.
type SafetyBounds struct {
	min float64
	max float64
}

// NewSafetyBounds validates min <= max.
func NewSafetyBounds(min, max float64) (*SafetyBounds, error) {
	b := &SafetyBounds{}
	if err := b.Set(min, max); err != nil {
		return nil, err
	}
	return b, nil
}

// Set replaces the range in place so every holder sees the change.
func (b *SafetyBounds) Set(min, max float64) error {
	if math.IsNaN(min) || math.IsNaN(max) || min > max {
		return fmt.Errorf("%w: min %.1f > max %.1f", ErrInvalidBounds, min, max)
	}
	b.min, b.max = min, max
	return nil
}

// Range returns the current min and max.
func (b *SafetyBounds) Range() (float64, float64) {
	return b.min, b.max
}

// Clamp restricts v into the range.
func (b *SafetyBounds) Clamp(v float64) float64 {
	if v < b.min {
		return b.min
	}
	if v > b.max {
		return b.max
	}
	return v
}
