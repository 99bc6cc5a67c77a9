package curve

import (
	"math"
	"sort"

	"terracurve/internal/models"
)

type presetFunc func(hour int) float64

// plateau builds a shape with fixed levels for 6-10h, 10-16h and 16-22h.
func plateau(night, morning, midday, evening float64) presetFunc {
	return func(h int) float64 {
		switch {
		case h >= 6 && h < 10:
			return morning
		case h >= 10 && h < 16:
			return midday
		case h >= 16 && h < 22:
			return evening
		}
		return night
	}
}

var presets = map[string]presetFunc{
	"constant": func(int) float64 { return 25 },
	"sea":      plateau(24, 26, 29, 26),
	"forest":   plateau(23, 24, 28, 25),
	"tropical": func(h int) float64 {
		v := 28 + math.Sin(float64(h-8)/24*2*math.Pi)*4
		return math.Round(v*10) / 10
	},
	"desert": func(h int) float64 {
		switch {
		case h >= 6 && h < 9:
			return 27
		case h >= 9 && h < 17:
			return 32
		case h >= 17 && h < 23:
			return 28
		}
		return 23
	},
}

// Presets lists the known preset names.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyPreset replaces the curve with a named shape. Unknown names leave the
// curve untouched and return false.
func (m *Model) ApplyPreset(name string) bool {
	fn, ok := presets[name]
	if !ok {
		return false
	}
	values := make([]float64, models.HoursPerDay)
	for h := range values {
		values[h] = fn(h)
	}
	_, _ = m.ReplaceAll(values)
	return true
}
