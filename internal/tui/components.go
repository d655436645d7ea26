package tui

import (
	"errors"
	"fmt"
	"strings"

	"pricecast/internal/client"
	"pricecast/internal/domain"
	"pricecast/internal/insight"
)

// FormatInsight renders the recommendation line.
func FormatInsight(in domain.Insight) string {
	style := InsightBuyStyle
	if in.Recommendation == domain.RecommendationWait {
		style = InsightWaitStyle
	}
	return style.Render(in.Message())
}

// RenderSeriesTable lists each forecast day with the lowest and highest
// prices marked.
func RenderSeriesTable(series domain.ForecastSeries, analysis insight.Analysis) string {
	lines := make([]string, 0, len(series))
	for i, p := range series {
		line := fmt.Sprintf("%-12s %12s", p.Date, formatShekels(p.Price))
		switch {
		case i == analysis.MinIdx:
			line = MinimumStyle.Render(line + "  ▼ low")
		case i == analysis.MaxIdx:
			line = MaximumStyle.Render(line + "  ▲ high")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// describeError turns a client failure into the message shown to the user.
func describeError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrValidation):
		return client.ValidationPrompt
	case errors.Is(err, domain.ErrEmptySeries):
		return "No forecast is available yet."
	case errors.Is(err, domain.ErrMalformedResponse):
		return "The price service sent an unreadable response."
	case errors.Is(err, domain.ErrNetwork):
		return fmt.Sprintf("Could not reach the price service (%s).", strings.TrimPrefix(err.Error(), domain.ErrNetwork.Error()+": "))
	default:
		return err.Error()
	}
}

func formatShekels(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%.2f", v)
	whole, frac, _ := strings.Cut(s, ".")
	out := "₪" + addCommas(whole) + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}

func addCommas(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var result strings.Builder
	for i, ch := range s {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteByte(',')
		}
		result.WriteRune(ch)
	}
	return result.String()
}
