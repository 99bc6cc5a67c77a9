package seasonal

import (
	"fmt"

	"terracurve/internal/models"
)

// The month tools below reload the working copy only when the selected day
// lies inside the month; callers check Dirty for that day first.

// SmoothMonth averages every hour of the month with the same hour of the
// previous and next day, reading neighbours from the matrix as it was before
// the pass. The year wraps, so Jan 1 sees Dec 31.
func (s *Store) SmoothMonth(month int) error {
	first, last, err := models.MonthRange(month)
	if err != nil {
		return err
	}
	snapshot := s.matrix.Clone()
	n := len(snapshot)
	for d := first; d <= last; d++ {
		prev, next := snapshot[(d-1+n)%n], snapshot[(d+1)%n]
		for h := 0; h < models.HoursPerDay; h++ {
			s.matrix[d][h] = (prev[h] + snapshot[d][h] + next[h]) / 3
		}
	}
	s.reloadWithin(first, last)
	return nil
}

// CapMonth restricts every value of the month to [min, max] and returns the
// number of values changed.
func (s *Store) CapMonth(month int, min, max float64) (int, error) {
	first, last, err := models.MonthRange(month)
	if err != nil {
		return 0, err
	}
	if min > max {
		return 0, fmt.Errorf("%w: min %.1f > max %.1f", models.ErrInvalidBounds, min, max)
	}
	changed := 0
	for d := first; d <= last; d++ {
		for h, v := range s.matrix[d] {
			c := v
			if c < min {
				c = min
			}
			if c > max {
				c = max
			}
			if c != v {
				s.matrix[d][h] = c
				changed++
			}
		}
	}
	s.reloadWithin(first, last)
	return changed, nil
}

// CopyDayToMonth writes the committed curve of src into every day of month.
func (s *Store) CopyDayToMonth(src, month int) error {
	if err := checkDay(src); err != nil {
		return err
	}
	first, last, err := models.MonthRange(month)
	if err != nil {
		return err
	}
	c := s.matrix[src]
	for d := first; d <= last; d++ {
		s.matrix[d] = c
	}
	s.reloadWithin(first, last)
	return nil
}
