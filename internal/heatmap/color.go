package heatmap

import (
	"image/color"
	"math"
)

// gradient runs cold to hot.
var gradient = []color.RGBA{
	{0, 100, 255, 255},
	{0, 200, 200, 255},
	{100, 255, 100, 255},
	{255, 255, 0, 255},
	{255, 150, 0, 255},
	{255, 0, 0, 255},
}

// NeutralColor is used when the value range is degenerate.
var NeutralColor = color.RGBA{100, 255, 100, 255}

// ColorFor maps t onto the gradient relative to [min, max].
func ColorFor(t, min, max float64) color.RGBA {
	if max == min || math.IsNaN(t) {
		return NeutralColor
	}
	ratio := (t - min) / (max - min)
	ratio = math.Max(0, math.Min(1, ratio))

	pos := ratio * float64(len(gradient)-1)
	i := int(pos)
	if i >= len(gradient)-1 {
		return gradient[len(gradient)-1]
	}
	f := pos - float64(i)
	a, b := gradient[i], gradient[i+1]
	return color.RGBA{
		R: lerp(a.R, b.R, f),
		G: lerp(a.G, b.G, f),
		B: lerp(a.B, b.B, f),
		A: 255,
	}
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}
