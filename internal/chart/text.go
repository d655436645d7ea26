package chart

import (
	"math"
	"strings"
	"unicode/utf8"
)

const (
	GlyphPoint   = '•'
	GlyphMinimum = '▼'
	GlyphMaximum = '▲'
	glyphTrace   = '·'
)

// RenderText draws the plot as a terminal line chart roughly width columns
// wide and height rows tall, with ₪ tick labels on the left and the first and
// last date underneath.
func RenderText(plot Plot, width, height int) string {
	if len(plot.Values) == 0 {
		return ""
	}
	height = max(height, 3)

	minV, maxV := finiteBounds(plot.Values)
	top, bottom := TickLabel(maxV), TickLabel(minV)
	labelW := max(utf8.RuneCountInString(top), utf8.RuneCountInString(bottom))
	cols := max(width-labelW-2, 2*len(plot.Values)-1)

	grid := make([][]rune, height)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", cols))
	}

	colOf := func(i int) int {
		if len(plot.Values) <= 1 {
			return cols / 2
		}
		return i * (cols - 1) / (len(plot.Values) - 1)
	}
	rowOf := func(v float64) int {
		ratio := (v - minV) / (maxV - minV)
		ratio = math.Max(0, math.Min(1, ratio))
		return height - 1 - int(math.Round(ratio*float64(height-1)))
	}
	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

	for i := 0; i+1 < len(plot.Values); i++ {
		a, b := plot.Values[i], plot.Values[i+1]
		if !finite(a) || !finite(b) {
			continue
		}
		c0, c1 := colOf(i), colOf(i+1)
		for c := c0 + 1; c < c1; c++ {
			t := float64(c-c0) / float64(c1-c0)
			grid[rowOf(a+(b-a)*t)][c] = glyphTrace
		}
	}
	for i, v := range plot.Values {
		if !finite(v) {
			continue
		}
		glyph := GlyphPoint
		switch plot.MarkerAt(i) {
		case MarkerMin:
			glyph = GlyphMinimum
		case MarkerMax:
			glyph = GlyphMaximum
		}
		grid[rowOf(v)][colOf(i)] = glyph
	}

	var sb strings.Builder
	for r, row := range grid {
		label := ""
		switch r {
		case 0:
			label = top
		case height - 1:
			label = bottom
		}
		sb.WriteString(padLeft(label, labelW))
		sb.WriteString(" │")
		sb.WriteString(strings.TrimRight(string(row), " "))
		sb.WriteByte('\n')
	}
	sb.WriteString(strings.Repeat(" ", labelW))
	sb.WriteString(" └")
	sb.WriteString(strings.Repeat("─", cols))

	if len(plot.Labels) > 0 {
		first, last := plot.Labels[0], plot.Labels[len(plot.Labels)-1]
		gap := cols - utf8.RuneCountInString(first) - utf8.RuneCountInString(last)
		sb.WriteByte('\n')
		sb.WriteString(strings.Repeat(" ", labelW+2))
		sb.WriteString(first)
		if len(plot.Labels) > 1 && gap > 0 {
			sb.WriteString(strings.Repeat(" ", gap))
			sb.WriteString(last)
		}
	}
	return sb.String()
}

func padLeft(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return strings.Repeat(" ", width-n) + s
}
