package chart

import (
	"image/color"
	"strconv"

	"pricecast/internal/domain"
	"pricecast/internal/insight"
)

const (
	YAxisTitle   = "Price (₪)"
	XAxisTitle   = "Date"
	SeriesLabel  = "Predicted Price"
	ExtremumSize = 8
	PointSize    = 4
)

type Marker int

const (
	MarkerNormal Marker = iota
	MarkerMin
	MarkerMax
)

var (
	colLine    = color.RGBA{R: 0x28, G: 0xa7, B: 0x45, A: 255}
	colMinimum = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	colMaximum = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// Plot is everything a renderer needs. MinIdx and MaxIdx come from the
// insight analysis so the highlighted points always match the message.
type Plot struct {
	Labels []string
	Values []float64
	MinIdx int
	MaxIdx int
}

func NewPlot(series domain.ForecastSeries, analysis insight.Analysis) Plot {
	return Plot{
		Labels: series.Labels(),
		Values: series.Values(),
		MinIdx: analysis.MinIdx,
		MaxIdx: analysis.MaxIdx,
	}
}

// MarkerAt classifies point i. When the minimum and maximum share an index
// the minimum marker wins.
func (p Plot) MarkerAt(i int) Marker {
	switch i {
	case p.MinIdx:
		return MarkerMin
	case p.MaxIdx:
		return MarkerMax
	default:
		return MarkerNormal
	}
}

func (p Plot) RadiusAt(i int) int {
	if i == p.MinIdx || i == p.MaxIdx {
		return ExtremumSize
	}
	return PointSize
}

func (p Plot) ColorAt(i int) color.RGBA {
	switch p.MarkerAt(i) {
	case MarkerMin:
		return colMinimum
	case MarkerMax:
		return colMaximum
	default:
		return colLine
	}
}

// TickLabel formats a y-axis value, e.g. 1469.5 -> "₪1469.5".
func TickLabel(v float64) string {
	return "₪" + strconv.FormatFloat(v, 'f', -1, 64)
}
