// Package editor turns pointer and touch gestures on the day chart into
// curve edits.
package editor

import (
	"errors"
	"fmt"
	"math"

	"terracurve/internal/curve"
	"terracurve/internal/models"
)

// State is the gesture state.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// ErrPlotArea is returned for an empty plot rectangle.
var ErrPlotArea = errors.New("invalid plot area")

// Point is a canvas position in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PlotArea is the chart rectangle; x spans extended indices 0..25.
type PlotArea struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

func (a PlotArea) contains(p Point) bool {
	return p.X >= a.Left && p.X <= a.Right && p.Y >= a.Top && p.Y <= a.Bottom
}

// Edit describes one applied point.
type Edit struct {
	Index     int     `json:"index"`
	Hour      int     `json:"hour"`
	Requested float64 `json:"requested"`
	Applied   float64 `json:"applied"`
	Clamped   bool    `json:"clamped"`
}

// View maps gestures onto the attached working curve. The y scale is taken
// from the curve when a gesture starts and held until it ends.
type View struct {
	area  PlotArea
	model *curve.Model
	state State
	yMin  float64
	yMax  float64
}

// NewView validates the plot rectangle.
func NewView(area PlotArea) (*View, error) {
	if area.Right <= area.Left || area.Bottom <= area.Top {
		return nil, fmt.Errorf("%w: %+v", ErrPlotArea, area)
	}
	return &View{area: area}, nil
}

// Attach points the view at a working curve, ending any gesture.
func (v *View) Attach(m *curve.Model) {
	v.model = m
	v.state = Idle
}

// Model returns the attached working curve.
func (v *View) Model() *curve.Model {
	return v.model
}

// State returns the gesture state.
func (v *View) State() State {
	return v.state
}

// Area returns the plot rectangle.
func (v *View) Area() PlotArea {
	return v.area
}

// YRange returns the temperature span of the y axis.
func (v *View) YRange() (float64, float64) {
	if v.state == Dragging || v.model == nil {
		return v.yMin, v.yMax
	}
	lo, hi := v.model.MinMax()
	return lo - 1, hi + 1
}

// Points projects the extended curve onto the canvas.
func (v *View) Points() []Point {
	if v.model == nil {
		return nil
	}
	ext := v.model.Extended()
	lo, hi := v.YRange()
	pts := make([]Point, len(ext))
	for i, t := range ext {
		pts[i] = Point{
			X: v.area.Left + float64(i)/float64(models.ExtendedLen-1)*(v.area.Right-v.area.Left),
			Y: v.area.Bottom - (t-lo)/(hi-lo)*(v.area.Bottom-v.area.Top),
		}
	}
	return pts
}

// PointerDown starts a drag when p lies inside the plot.
func (v *View) PointerDown(p Point) (Edit, bool) {
	if v.model == nil || v.state != Idle || !v.area.contains(p) {
		return Edit{}, false
	}
	v.yMin, v.yMax = v.YRange()
	v.state = Dragging
	return v.apply(p)
}

// PointerMove edits continuously while dragging.
func (v *View) PointerMove(p Point) (Edit, bool) {
	if v.state != Dragging {
		return Edit{}, false
	}
	return v.apply(p)
}

// PointerUp ends the gesture; the last value stands.
func (v *View) PointerUp() {
	v.state = Idle
}

// PointerLeave ends the gesture like PointerUp.
func (v *View) PointerLeave() {
	v.state = Idle
}

// TouchStart behaves as PointerDown for exactly one touch point.
func (v *View) TouchStart(touches []Point) (Edit, bool) {
	if len(touches) != 1 {
		return Edit{}, false
	}
	return v.PointerDown(touches[0])
}

// TouchMove behaves as PointerMove for exactly one touch point.
func (v *View) TouchMove(touches []Point) (Edit, bool) {
	if len(touches) != 1 {
		return Edit{}, false
	}
	return v.PointerMove(touches[0])
}

// TouchEnd ends the gesture.
func (v *View) TouchEnd() {
	v.state = Idle
}

// IndexAt inverts the x scale to the nearest extended index.
func (v *View) IndexAt(x float64) int {
	span := v.area.Right - v.area.Left
	i := int(math.Round((x - v.area.Left) / span * float64(models.ExtendedLen-1)))
	if i < 0 {
		return 0
	}
	if i > models.ExtendedLen-1 {
		return models.ExtendedLen - 1
	}
	return i
}

// TemperatureAt inverts the y scale, rounded to a tenth of a degree.
func (v *View) TemperatureAt(y float64) float64 {
	lo, hi := v.YRange()
	t := hi - (y-v.area.Top)/(v.area.Bottom-v.area.Top)*(hi-lo)
	return math.Round(t*10) / 10
}

func (v *View) apply(p Point) (Edit, bool) {
	index := v.IndexAt(p.X)
	requested := v.TemperatureAt(p.Y)
	hour, applied, err := v.model.SetExtendedIndex(index, requested)
	if err != nil {
		return Edit{}, false
	}
	return Edit{
		Index:     index,
		Hour:      hour,
		Requested: requested,
		Applied:   applied,
		Clamped:   applied != requested,
	}, true
}
