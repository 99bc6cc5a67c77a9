// Package curve holds the editable working copy of a single day curve.
package curve

import (
	"errors"
	"fmt"

	"terracurve/internal/models"
)

var (
	// ErrInvalidCurveLength is returned when a replacement curve is not 24 values long.
	ErrInvalidCurveLength = errors.New("invalid curve length")
	// ErrHourOutOfRange is returned for hours outside 0..23.
	ErrHourOutOfRange = errors.New("hour out of range")
	// ErrIndexOutOfRange is returned for extended indices outside 0..25.
	ErrIndexOutOfRange = errors.New("extended index out of range")
)

// Model is a day curve under edit. Every write is clamped into the shared
// safety bounds and the extended curve is kept in step with the base curve.
type Model struct {
	curve    models.DayCurve
	extended models.ExtendedDayCurve
	bounds   *models.SafetyBounds
	dirty    bool
}

// New wraps initial without clamping it; stored data is loaded as-is.
func New(bounds *models.SafetyBounds, initial models.DayCurve) *Model {
	m := &Model{bounds: bounds, curve: initial}
	m.extended = initial.Extended()
	return m
}

// Curve returns a copy of the working curve.
func (m *Model) Curve() models.DayCurve {
	return m.curve
}

// Extended returns the wrap-padded curve.
func (m *Model) Extended() models.ExtendedDayCurve {
	return m.extended
}

// MinMax returns the working curve's range.
func (m *Model) MinMax() (float64, float64) {
	return m.curve.MinMax()
}

// Dirty reports whether the curve changed since it was loaded or last committed.
func (m *Model) Dirty() bool {
	return m.dirty
}

// MarkClean clears the dirty flag after a commit.
func (m *Model) MarkClean() {
	m.dirty = false
}

// SetHour clamps value, stores it and returns what was actually applied.
func (m *Model) SetHour(hour int, value float64) (float64, error) {
	if hour < 0 || hour >= models.HoursPerDay {
		return 0, fmt.Errorf("%w: %d", ErrHourOutOfRange, hour)
	}
	applied := m.bounds.Clamp(value)
	m.curve[hour] = applied
	m.touch()
	return applied, nil
}

// SetExtendedIndex edits the hour behind an extended-curve index.
func (m *Model) SetExtendedIndex(index int, value float64) (int, float64, error) {
	hour, ok := models.ExtendedToHour(index)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	applied, err := m.SetHour(hour, value)
	return hour, applied, err
}

// ReplaceAll swaps in a whole curve. Values are clamped; the number of
// clamped hours is returned. Nothing changes when the length is wrong.
func (m *Model) ReplaceAll(values []float64) (int, error) {
	if len(values) != models.HoursPerDay {
		return 0, fmt.Errorf("%w: got %d values, want %d", ErrInvalidCurveLength, len(values), models.HoursPerDay)
	}
	clamped := 0
	var next models.DayCurve
	for i, v := range values {
		next[i] = m.bounds.Clamp(v)
		if next[i] != v {
			clamped++
		}
	}
	m.curve = next
	m.touch()
	return clamped, nil
}

// Smooth applies a circular 3-point moving average. All three terms are
// read from the curve as it was before the pass. Averages of in-range values
// stay in range, so no clamping is applied.
func (m *Model) Smooth() {
	prev := m.curve
	n := models.HoursPerDay
	for i := range m.curve {
		m.curve[i] = (prev[(i-1+n)%n] + prev[i] + prev[(i+1)%n]) / 3
	}
	m.touch()
}

// ReapplyBounds clamps the working curve after the safety range changed and
// returns how many hours moved.
func (m *Model) ReapplyBounds() int {
	moved := 0
	for i, v := range m.curve {
		if c := m.bounds.Clamp(v); c != v {
			m.curve[i] = c
			moved++
		}
	}
	if moved > 0 {
		m.touch()
	}
	return moved
}

func (m *Model) touch() {
	m.extended = m.curve.Extended()
	m.dirty = true
}
