package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terracurve/internal/curve"
	"terracurve/internal/models"
)

// 250px wide so each extended index is 10px apart; y spans 19..21 over 200px.
func newView(t *testing.T) (*View, *curve.Model) {
	t.Helper()
	b, err := models.NewSafetyBounds(15, 35)
	require.NoError(t, err)
	m := curve.New(b, models.FlatCurve(20))
	v, err := NewView(PlotArea{Left: 50, Top: 0, Right: 300, Bottom: 200})
	require.NoError(t, err)
	v.Attach(m)
	return v, m
}

func TestNewViewRejectsEmptyArea(t *testing.T) {
	_, err := NewView(PlotArea{Left: 10, Right: 10, Top: 0, Bottom: 5})
	assert.ErrorIs(t, err, ErrPlotArea)
}

func TestDragLifecycle(t *testing.T) {
	v, m := newView(t)
	assert.Equal(t, Idle, v.State())

	edit, ok := v.PointerDown(Point{X: 60, Y: 0})
	require.True(t, ok)
	assert.Equal(t, Dragging, v.State())
	assert.Equal(t, 1, edit.Index)
	assert.Equal(t, 0, edit.Hour)
	assert.Equal(t, 21.0, edit.Applied)
	assert.False(t, edit.Clamped)

	// y scale stays frozen while dragging even though the curve max moved
	edit, ok = v.PointerMove(Point{X: 70, Y: 200})
	require.True(t, ok)
	assert.Equal(t, 1, edit.Hour)
	assert.Equal(t, 19.0, edit.Applied)

	v.PointerUp()
	assert.Equal(t, Idle, v.State())
	assert.Equal(t, 21.0, m.Curve()[0])
	assert.Equal(t, 19.0, m.Curve()[1])

	_, ok = v.PointerMove(Point{X: 80, Y: 100})
	assert.False(t, ok)
}

func TestPointerDownOutsidePlot(t *testing.T) {
	v, m := newView(t)
	_, ok := v.PointerDown(Point{X: 10, Y: 100})
	assert.False(t, ok)
	assert.Equal(t, Idle, v.State())
	assert.False(t, m.Dirty())
}

func TestExtendedWrapEditing(t *testing.T) {
	v, m := newView(t)

	edit, ok := v.PointerDown(Point{X: 50, Y: 100})
	require.True(t, ok)
	assert.Equal(t, 0, edit.Index)
	assert.Equal(t, 23, edit.Hour)

	edit, ok = v.PointerMove(Point{X: 300, Y: 100})
	require.True(t, ok)
	assert.Equal(t, 25, edit.Index)
	assert.Equal(t, 0, edit.Hour)

	// beyond the right edge snaps to the last index
	edit, ok = v.PointerMove(Point{X: 900, Y: 100})
	require.True(t, ok)
	assert.Equal(t, 25, edit.Index)
	v.PointerLeave()
	assert.Equal(t, Idle, v.State())
	assert.True(t, m.Dirty())
}

func TestClampedEditIsReported(t *testing.T) {
	b, err := models.NewSafetyBounds(19.5, 20.5)
	require.NoError(t, err)
	m := curve.New(b, models.FlatCurve(20))
	v, err := NewView(PlotArea{Left: 50, Top: 0, Right: 300, Bottom: 200})
	require.NoError(t, err)
	v.Attach(m)

	edit, ok := v.PointerDown(Point{X: 100, Y: 0})
	require.True(t, ok)
	assert.Equal(t, 21.0, edit.Requested)
	assert.Equal(t, 20.5, edit.Applied)
	assert.True(t, edit.Clamped)
}

func TestTouchSinglePointOnly(t *testing.T) {
	v, m := newView(t)

	_, ok := v.TouchStart([]Point{{X: 100, Y: 100}, {X: 120, Y: 100}})
	assert.False(t, ok)
	assert.Equal(t, Idle, v.State())

	edit, ok := v.TouchStart([]Point{{X: 100, Y: 50}})
	require.True(t, ok)
	assert.Equal(t, 4, edit.Hour)

	_, ok = v.TouchMove(nil)
	assert.False(t, ok)
	v.TouchEnd()
	assert.Equal(t, Idle, v.State())
	assert.Equal(t, 20.5, m.Curve()[4])
}

func TestDetachedViewIgnoresInput(t *testing.T) {
	v, err := NewView(PlotArea{Left: 0, Top: 0, Right: 100, Bottom: 100})
	require.NoError(t, err)
	_, ok := v.PointerDown(Point{X: 50, Y: 50})
	assert.False(t, ok)
	assert.Nil(t, v.Points())
}

func TestPointsProjection(t *testing.T) {
	v, _ := newView(t)
	pts := v.Points()
	require.Len(t, pts, models.ExtendedLen)
	assert.Equal(t, 50.0, pts[0].X)
	assert.Equal(t, 300.0, pts[25].X)
	assert.Equal(t, 100.0, pts[10].Y)
}
