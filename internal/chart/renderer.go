package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"pricecast/internal/domain"
)

const (
	defaultChartWidth  = 960
	defaultChartHeight = 540
)

var (
	colBackground = color.RGBA{R: 250, G: 252, B: 255, A: 255}
	colGrid       = color.RGBA{R: 225, G: 232, B: 240, A: 255}
	colAxis       = color.RGBA{R: 58, G: 64, B: 90, A: 255}
)

type Renderer struct {
	width  int
	height int
}

func NewRenderer() *Renderer {
	return &Renderer{width: defaultChartWidth, height: defaultChartHeight}
}

// RenderForecastChart draws the forecast as a PNG line chart with one marker
// per point, the minimum in blue and the maximum in red.
func (r *Renderer) RenderForecastChart(plot Plot) (*domain.ChartImage, error) {
	if len(plot.Values) == 0 {
		return nil, fmt.Errorf("need at least 1 point to render chart")
	}

	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	fillRect(img, img.Bounds(), colBackground)

	pad := ExtremumSize + 2
	plotRect := image.Rect(60+pad, 20+pad, r.width-20-pad, r.height-40-pad)
	drawGrid(img, plotRect, max(1, len(plot.Values)-1), 6)
	drawLine(img, plotRect.Min.X, plotRect.Max.Y, plotRect.Max.X, plotRect.Max.Y, colAxis)
	drawLine(img, plotRect.Min.X, plotRect.Min.Y, plotRect.Min.X, plotRect.Max.Y, colAxis)

	minV, maxV := finiteBounds(plot.Values)
	drawSeries(img, plotRect, plot.Values, minV, maxV, colLine)

	// Extrema are drawn last so their markers sit on top.
	order := make([]int, 0, len(plot.Values))
	for i := range plot.Values {
		if plot.MarkerAt(i) == MarkerNormal {
			order = append(order, i)
		}
	}
	for i := range plot.Values {
		if plot.MarkerAt(i) != MarkerNormal {
			order = append(order, i)
		}
	}
	for _, i := range order {
		v := plot.Values[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		x := mapIndexToX(i, len(plot.Values), plotRect)
		y := mapValueToY(v, minV, maxV, plotRect)
		fillCircle(img, x, y, plot.RadiusAt(i), plot.ColorAt(i))
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}

	return &domain.ChartImage{
		MimeType: "image/png",
		Width:    r.width,
		Height:   r.height,
		Bytes:    buf.Bytes(),
	}, nil
}

func drawSeries(img *image.RGBA, rect image.Rectangle, series []float64, minV, maxV float64, col color.RGBA) {
	lastX, lastY := -1, -1
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			lastX, lastY = -1, -1
			continue
		}
		x := mapIndexToX(i, len(series), rect)
		y := mapValueToY(v, minV, maxV, rect)
		if lastX >= 0 {
			drawLine(img, lastX, lastY, x, y, col)
			drawLine(img, lastX, lastY+1, x, y+1, col)
		}
		lastX, lastY = x, y
	}
}

func drawGrid(img *image.RGBA, rect image.Rectangle, verticalLines, horizontalLines int) {
	for i := 0; i <= verticalLines; i++ {
		x := rect.Min.X + (rect.Dx()*i)/max(1, verticalLines)
		drawLine(img, x, rect.Min.Y, x, rect.Max.Y, colGrid)
	}
	for i := 0; i <= horizontalLines; i++ {
		y := rect.Min.Y + (rect.Dy()*i)/max(1, horizontalLines)
		drawLine(img, rect.Min.X, y, rect.Max.X, y, colGrid)
	}
}

func mapIndexToX(idx, total int, rect image.Rectangle) int {
	if total <= 1 {
		return rect.Min.X + rect.Dx()/2
	}
	return rect.Min.X + (idx*(rect.Dx()-1))/(total-1)
}

func mapValueToY(value, minV, maxV float64, rect image.Rectangle) int {
	if maxV <= minV {
		return rect.Max.Y
	}
	ratio := (value - minV) / (maxV - minV)
	ratio = math.Max(0, math.Min(1, ratio))
	return rect.Max.Y - int(ratio*float64(rect.Dy()-1))
}

// finiteBounds ignores NaN and Inf; a flat series is widened to a unit range.
func finiteBounds(values []float64) (float64, float64) {
	minV := math.Inf(1)
	maxV := math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	if math.IsInf(minV, 1) || math.IsInf(maxV, -1) {
		return 0, 1
	}
	if minV == maxV {
		return minV - 0.5, maxV + 0.5
	}
	return minV, maxV
}

func fillRect(img *image.RGBA, rect image.Rectangle, col color.RGBA) {
	r := rect.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}

func fillCircle(img *image.RGBA, cx, cy, radius int, col color.RGBA) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			if p := image.Pt(cx+dx, cy+dy); p.In(img.Bounds()) {
				img.SetRGBA(p.X, p.Y, col)
			}
		}
	}
}

func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		if image.Pt(x0, y0).In(img.Bounds()) {
			img.SetRGBA(x0, y0, col)
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				break
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				break
			}
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
