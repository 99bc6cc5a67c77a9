// Package heatmap places the 366 day indices on a month-by-week calendar
// grid, colours them by daily average and draws the result.
package heatmap

import (
	"errors"
	"fmt"
	"math"
	"time"

	"terracurve/internal/models"
)

const (
	weeksPerMonth = 6
	daysPerWeek   = 7
)

// ErrGeometry is returned for a canvas too small to hold the grid.
var ErrGeometry = errors.New("invalid heatmap geometry")

// Geometry describes the pixel grid. Each month is a column block of up to
// six week columns; rows are weekdays, Monday first.
type Geometry struct {
	Width    float64
	StartX   float64
	StartY   float64
	CellSize float64
	Padding  float64
}

// Cell is a grid position.
type Cell struct {
	Month   int `json:"month"`
	Week    int `json:"week"`
	Weekday int `json:"weekday"`
}

// Rect is a cell rectangle in canvas pixels.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// NewGeometry returns the standard panel geometry for a canvas width.
func NewGeometry(width float64) (Geometry, error) {
	g := Geometry{Width: width, StartX: 80, StartY: 30, CellSize: 10, Padding: 1}
	if g.CellWidth() <= 0 {
		return Geometry{}, fmt.Errorf("%w: width %.0f", ErrGeometry, width)
	}
	return g, nil
}

// MonthWidth is the horizontal space allotted to one month.
func (g Geometry) MonthWidth() float64 {
	return (g.Width - 100) / 12
}

// CellWidth fits six week columns and their padding inside a month.
func (g Geometry) CellWidth() float64 {
	w := (g.MonthWidth() - g.Padding*weeksPerMonth) / weeksPerMonth
	return math.Min(g.CellSize, w)
}

// Height is the canvas height including the legend band.
func (g Geometry) Height() float64 {
	return g.StartY + daysPerWeek*(g.CellSize+g.Padding) + 40
}

// Layout places a day index on the grid.
func Layout(day int) (Cell, error) {
	if day < 0 || day >= models.DaysPerYear {
		return Cell{}, fmt.Errorf("day %d out of range", day)
	}
	date := models.DayDate(day)
	offset := mondayFirst(date.AddDate(0, 0, 1-date.Day()).Weekday())
	return Cell{
		Month:   int(date.Month()) - 1,
		Week:    (date.Day() - 1 + offset) / daysPerWeek,
		Weekday: mondayFirst(date.Weekday()),
	}, nil
}

// CellRect returns the pixel rectangle of a cell.
func (g Geometry) CellRect(c Cell) Rect {
	cw := g.CellWidth()
	return Rect{
		X: g.StartX + float64(c.Month)*g.MonthWidth() + float64(c.Week)*(cw+g.Padding),
		Y: g.StartY + float64(c.Weekday)*(g.CellSize+g.Padding),
		W: cw,
		H: g.CellSize,
	}
}

// CenterOf returns the pixel centre of a day's cell.
func (g Geometry) CenterOf(day int) (float64, float64, error) {
	c, err := Layout(day)
	if err != nil {
		return 0, 0, err
	}
	r := g.CellRect(c)
	return r.X + r.W/2, r.Y + r.H/2, nil
}

// HitTest resolves a pixel to the day whose cell contains it. Padding gaps
// and grid slots with no day return false.
func (g Geometry) HitTest(x, y float64) (int, bool) {
	if x < g.StartX || y < g.StartY {
		return 0, false
	}
	mw, cw := g.MonthWidth(), g.CellWidth()

	month := int((x - g.StartX) / mw)
	if month >= 12 {
		return 0, false
	}
	localX := x - g.StartX - float64(month)*mw
	week := int(localX / (cw + g.Padding))
	if week >= weeksPerMonth || localX-float64(week)*(cw+g.Padding) >= cw {
		return 0, false
	}

	localY := y - g.StartY
	weekday := int(localY / (g.CellSize + g.Padding))
	if weekday >= daysPerWeek || localY-float64(weekday)*(g.CellSize+g.Padding) >= g.CellSize {
		return 0, false
	}

	first := models.DayDate(models.DayIndex(month, 1))
	dom := week*daysPerWeek + weekday - mondayFirst(first.Weekday()) + 1
	if dom < 1 || dom > models.DaysInMonth(month) {
		return 0, false
	}
	return models.DayIndex(month, dom), true
}

func mondayFirst(d time.Weekday) int {
	return (int(d) + 6) % daysPerWeek
}
