package heatmap

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"terracurve/internal/models"
	"terracurve/internal/seasonal"
)

// Source is the read side of the seasonal store.
type Source interface {
	DailyAverage(day int) (float64, error)
	YearlyMinMaxAvg() seasonal.Summary
	Selected() (int, bool)
}

// CellView is one rendered day.
type CellView struct {
	Day      int        `json:"day"`
	Label    string     `json:"label"`
	Cell     Cell       `json:"cell"`
	Rect     Rect       `json:"rect"`
	Average  float64    `json:"average"`
	Color    color.RGBA `json:"-"`
	Hex      string     `json:"color"`
	Selected bool       `json:"selected"`
}

// Grid is the full projection of the store onto the canvas.
type Grid struct {
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Min    float64    `json:"min"`
	Max    float64    `json:"max"`
	Cells  []CellView `json:"cells"`
}

var (
	background = color.RGBA{31, 41, 55, 255}
	ink        = color.RGBA{209, 213, 219, 255}
	highlight  = color.RGBA{255, 255, 255, 255}

	monthNames   = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	weekdayNames = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
)

// Render computes every cell from src. It reads only.
func (g Geometry) Render(src Source) (Grid, error) {
	sum := src.YearlyMinMaxAvg()
	selected, hasSelection := src.Selected()

	grid := Grid{
		Width:  g.Width,
		Height: g.Height(),
		Min:    sum.Min,
		Max:    sum.Max,
		Cells:  make([]CellView, 0, models.DaysPerYear),
	}
	for day := 0; day < models.DaysPerYear; day++ {
		avg, err := src.DailyAverage(day)
		if err != nil {
			return Grid{}, err
		}
		cell, err := Layout(day)
		if err != nil {
			return Grid{}, err
		}
		c := ColorFor(avg, sum.Min, sum.Max)
		grid.Cells = append(grid.Cells, CellView{
			Day:      day,
			Label:    models.DayLabel(day),
			Cell:     cell,
			Rect:     g.CellRect(cell),
			Average:  math.Round(avg*10) / 10,
			Color:    c,
			Hex:      fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B),
			Selected: hasSelection && day == selected,
		})
	}
	return grid, nil
}

// Draw paints the grid with month and weekday labels and a legend.
func (g Geometry) Draw(grid Grid) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, int(math.Ceil(grid.Width)), int(math.Ceil(grid.Height))))
	draw.Draw(img, img.Bounds(), &image.Uniform{background}, image.Point{}, draw.Src)

	for _, c := range grid.Cells {
		r := pixelRect(c.Rect)
		draw.Draw(img, r, &image.Uniform{c.Color}, image.Point{}, draw.Src)
		if c.Selected {
			outline(img, r.Inset(-1), highlight)
		}
	}

	for m, name := range monthNames {
		text(img, int(g.StartX+float64(m)*g.MonthWidth()), int(g.StartY)-8, name)
	}
	for d, name := range weekdayNames {
		text(img, int(g.StartX)-40, int(g.StartY+float64(d)*(g.CellSize+g.Padding)+g.CellSize), name)
	}

	g.drawLegend(img, grid.Min, grid.Max)
	return img
}

// WritePNG renders and encodes the grid.
func (g Geometry) WritePNG(w io.Writer, grid Grid) error {
	if err := png.Encode(w, g.Draw(grid)); err != nil {
		return fmt.Errorf("failed to encode heatmap: %w", err)
	}
	return nil
}

func (g Geometry) drawLegend(img *image.RGBA, min, max float64) {
	top := int(g.StartY + daysPerWeek*(g.CellSize+g.Padding) + 10)
	left := int(g.StartX)
	width := int(g.Width-g.StartX) - 100
	if width <= 0 {
		return
	}
	for x := 0; x < width; x++ {
		c := ColorFor(min+(max-min)*float64(x)/float64(width), min, max)
		draw.Draw(img, image.Rect(left+x, top, left+x+1, top+8), &image.Uniform{c}, image.Point{}, draw.Src)
	}
	text(img, left, top+22, fmt.Sprintf("%.1f C", min))
	text(img, left+width-42, top+22, fmt.Sprintf("%.1f C", max))
}

func pixelRect(r Rect) image.Rectangle {
	return image.Rect(int(math.Floor(r.X)), int(math.Floor(r.Y)),
		int(math.Floor(r.X+r.W)), int(math.Floor(r.Y+r.H)))
}

func outline(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetRGBA(x, r.Min.Y, c)
		img.SetRGBA(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetRGBA(r.Min.X, y, c)
		img.SetRGBA(r.Max.X-1, y, c)
	}
}

func text(img *image.RGBA, x, y int, s string) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(ink),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
