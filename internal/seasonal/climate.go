package seasonal

import (
	"fmt"
	"math"
	"time"

	"terracurve/internal/models"
)

// GapFill is used when no reading exists for the very first cell.
const GapFill = 20.0

const archiveTimeLayout = "2006-01-02T15:04"

// Accumulator averages hourly archive readings from any number of years into
// a seasonal matrix. Readings are placed by calendar date, so Mar 1 lands on
// the same index in leap and non-leap years.
type Accumulator struct {
	sum   [models.DaysPerYear][models.HoursPerDay]float64
	count [models.DaysPerYear][models.HoursPerDay]int
}

// Add folds in one series of parallel time/temperature arrays. Nil readings
// are skipped.
func (a *Accumulator) Add(times []string, temps []*float64) error {
	if len(times) != len(temps) {
		return fmt.Errorf("hourly series mismatch: %d times, %d temperatures", len(times), len(temps))
	}
	for i, ts := range times {
		if temps[i] == nil {
			continue
		}
		t, err := time.Parse(archiveTimeLayout, ts)
		if err != nil {
			return fmt.Errorf("failed to parse time %q: %w", ts, err)
		}
		day := models.DayIndex(int(t.Month())-1, t.Day())
		a.sum[day][t.Hour()] += *temps[i]
		a.count[day][t.Hour()]++
	}
	return nil
}

// Matrix returns averages rounded to a tenth. Empty cells take the previous
// hour, the previous day's last hour, or GapFill for the first cell.
func (a *Accumulator) Matrix() models.Matrix {
	m := make(models.Matrix, models.DaysPerYear)
	for d := range m {
		for h := range m[d] {
			switch {
			case a.count[d][h] > 0:
				m[d][h] = math.Round(a.sum[d][h]/float64(a.count[d][h])*10) / 10
			case h > 0:
				m[d][h] = m[d][h-1]
			case d > 0:
				m[d][h] = m[d-1][models.HoursPerDay-1]
			default:
				m[d][h] = GapFill
			}
		}
	}
	return m
}
