// Package seasonal owns the full-year temperature matrix and the day
// currently selected for editing.
package seasonal

import (
	"errors"
	"fmt"
	"math"

	"terracurve/internal/curve"
	"terracurve/internal/models"
)

var (
	// ErrDayIndexOutOfRange is returned for day indices outside 0..365.
	ErrDayIndexOutOfRange = errors.New("day index out of range")
	// ErrNoDaySelected is returned when an operation needs a selected day.
	ErrNoDaySelected = errors.New("no day selected")
)

// Summary aggregates every value of the matrix.
type Summary struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// DayInfo is the tooltip view of a single day.
type DayInfo struct {
	Day     int     `json:"day"`
	Label   string  `json:"label"`
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// Store holds the seasonal matrix and the working copy of the selected day.
// Edits to the working copy reach the matrix only through CommitSelectedDay.
type Store struct {
	matrix   models.Matrix
	bounds   *models.SafetyBounds
	fill     models.DayCurve
	selected int
	working  *curve.Model
}

// NewStore returns a store whose every day is a flat curve at fill.
func NewStore(bounds *models.SafetyBounds, fill float64) *Store {
	f := models.FlatCurve(fill)
	return &Store{
		matrix:   models.NewMatrix(models.DaysPerYear, f),
		bounds:   bounds,
		fill:     f,
		selected: -1,
	}
}

// Bounds returns the shared safety range.
func (s *Store) Bounds() *models.SafetyBounds {
	return s.bounds
}

// Load replaces the matrix and clears the selection. Partial matrices are
// padded with the fill curve; the number of padded days is returned.
func (s *Store) Load(m models.Matrix) int {
	next := models.NewMatrix(models.DaysPerYear, s.fill)
	n := copy(next, m)
	s.matrix = next
	s.ClearSelection()
	return models.DaysPerYear - n
}

// Matrix returns a copy of the full matrix.
func (s *Store) Matrix() models.Matrix {
	return s.matrix.Clone()
}

// Day returns the committed curve of day.
func (s *Store) Day(day int) (models.DayCurve, error) {
	if err := checkDay(day); err != nil {
		return models.DayCurve{}, err
	}
	return s.matrix[day], nil
}

// SelectDay makes day the edited day with a fresh working copy. Uncommitted
// edits of the previous selection are discarded; callers check Dirty first.
func (s *Store) SelectDay(day int) error {
	if err := checkDay(day); err != nil {
		return err
	}
	s.selected = day
	s.working = curve.New(s.bounds, s.matrix[day])
	return nil
}

// Selected returns the selected day, if any.
func (s *Store) Selected() (int, bool) {
	return s.selected, s.selected >= 0
}

// Working returns the working copy, or nil without a selection.
func (s *Store) Working() *curve.Model {
	return s.working
}

// Dirty reports uncommitted edits on the selected day.
func (s *Store) Dirty() bool {
	return s.working != nil && s.working.Dirty()
}

// ClearSelection drops the selection and its working copy.
func (s *Store) ClearSelection() {
	s.selected = -1
	s.working = nil
}

// Navigate selects the day delta positions away from the current one.
func (s *Store) Navigate(delta int) (int, error) {
	if s.selected < 0 {
		return 0, ErrNoDaySelected
	}
	next := s.selected + delta
	if err := s.SelectDay(next); err != nil {
		return s.selected, err
	}
	return next, nil
}

// CommitSelectedDay writes the working curve back into the matrix.
func (s *Store) CommitSelectedDay() (int, error) {
	if s.selected < 0 || s.working == nil {
		return 0, ErrNoDaySelected
	}
	s.matrix[s.selected] = s.working.Curve()
	s.working.MarkClean()
	return s.selected, nil
}

// ApplyCurveToEntireYear overwrites every day with c. Callers must obtain
// operator confirmation first. The working copy is reloaded from the result.
func (s *Store) ApplyCurveToEntireYear(c models.DayCurve) {
	for i := range s.matrix {
		s.matrix[i] = c
	}
	s.reloadWorking()
}

// DailyAverage returns the mean of a day's 24 values.
func (s *Store) DailyAverage(day int) (float64, error) {
	if err := checkDay(day); err != nil {
		return 0, err
	}
	return s.matrix[day].Average(), nil
}

// DailyMinMax returns a day's lowest and highest values.
func (s *Store) DailyMinMax(day int) (float64, float64, error) {
	if err := checkDay(day); err != nil {
		return 0, 0, err
	}
	lo, hi := s.matrix[day].MinMax()
	return lo, hi, nil
}

// YearlyMinMaxAvg aggregates all 366x24 values.
func (s *Store) YearlyMinMaxAvg() Summary {
	sum := Summary{Min: math.Inf(1), Max: math.Inf(-1)}
	total := 0.0
	for _, day := range s.matrix {
		for _, v := range day {
			sum.Min = math.Min(sum.Min, v)
			sum.Max = math.Max(sum.Max, v)
			total += v
		}
	}
	sum.Avg = total / float64(len(s.matrix)*models.HoursPerDay)
	return sum
}

// DayInfo returns the tooltip figures of day.
func (s *Store) DayInfo(day int) (DayInfo, error) {
	if err := checkDay(day); err != nil {
		return DayInfo{}, err
	}
	lo, hi := s.matrix[day].MinMax()
	return DayInfo{
		Day:     day,
		Label:   models.DayLabel(day),
		Average: s.matrix[day].Average(),
		Min:     lo,
		Max:     hi,
	}, nil
}

// Days returns the matrix length.
func (s *Store) Days() int {
	return len(s.matrix)
}

func (s *Store) reloadWorking() {
	if s.selected >= 0 {
		s.working = curve.New(s.bounds, s.matrix[s.selected])
	}
}

func (s *Store) reloadWithin(first, last int) {
	if s.selected >= first && s.selected <= last {
		s.reloadWorking()
	}
}

func checkDay(day int) error {
	if day < 0 || day >= models.DaysPerYear {
		return fmt.Errorf("%w: %d", ErrDayIndexOutOfRange, day)
	}
	return nil
}
