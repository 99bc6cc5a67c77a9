// Package codec converts seasonal matrices to and from the controller's
// binary layout: 366 days x 24 hours of little-endian int16 tenths of a degree.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"terracurve/internal/models"
)

const (
	cellSize = 2
	// DayBytes is the size of one encoded day.
	DayBytes = models.HoursPerDay * cellSize
	// BufferSize is the fixed size of a full encoded year.
	BufferSize = models.DaysPerYear * DayBytes
)

// ErrMalformedBuffer is returned when a buffer is empty or has an odd length.
var ErrMalformedBuffer = errors.New("malformed seasonal buffer")

// ToTenths converts degrees to wire tenths, rounding half away from zero and
// saturating at the int16 range. clamped reports whether saturation occurred.
func ToTenths(celsius float64) (v int16, clamped bool) {
	if math.IsNaN(celsius) {
		return 0, true
	}
	r := math.Round(celsius * 10)
	switch {
	case r > math.MaxInt16:
		return math.MaxInt16, true
	case r < math.MinInt16:
		return math.MinInt16, true
	}
	return int16(r), false
}

// FromTenths converts wire tenths to degrees.
func FromTenths(v int16) float64 {
	return float64(v) / 10.0
}

// Encode writes m into a BufferSize byte slice. Days beyond len(m) are zero,
// days beyond DaysPerYear are ignored. Encode never fails: out-of-range values
// are saturated and counted in the returned clamp total.
func Encode(m models.Matrix) ([]byte, int) {
	buf := make([]byte, BufferSize)
	clamped := 0
	for day := 0; day < len(m) && day < models.DaysPerYear; day++ {
		for hour, t := range m[day] {
			v, c := ToTenths(t)
			if c {
				clamped++
			}
			off := (day*models.HoursPerDay + hour) * cellSize
			binary.LittleEndian.PutUint16(buf[off:], uint16(v))
		}
	}
	return buf, clamped
}

// Decode reads as many complete days as buf holds. A trailing partial day
// is discarded.
func Decode(buf []byte) (models.Matrix, error) {
	if len(buf) == 0 || len(buf)%cellSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedBuffer, len(buf))
	}

	days := len(buf) / DayBytes
	if days > models.DaysPerYear {
		days = models.DaysPerYear
	}
	m := make(models.Matrix, days)
	for day := range m {
		for hour := 0; hour < models.HoursPerDay; hour++ {
			off := (day*models.HoursPerDay + hour) * cellSize
			m[day][hour] = FromTenths(int16(binary.LittleEndian.Uint16(buf[off:])))
		}
	}
	return m, nil
}

// EncodeDay converts a curve to the JSON integer form used by the firmware.
func EncodeDay(c models.DayCurve) ([]int16, int) {
	out := make([]int16, models.HoursPerDay)
	clamped := 0
	for i, t := range c {
		v, sat := ToTenths(t)
		if sat {
			clamped++
		}
		out[i] = v
	}
	return out, clamped
}

// DecodeDay converts 24 firmware integers back to a curve.
func DecodeDay(tenths []int16) (models.DayCurve, error) {
	var c models.DayCurve
	if len(tenths) != models.HoursPerDay {
		return c, fmt.Errorf("day curve has %d values, want %d", len(tenths), models.HoursPerDay)
	}
	for i, v := range tenths {
		c[i] = FromTenths(v)
	}
	return c, nil
}
