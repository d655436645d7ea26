// Package insight derives a buy/wait recommendation from a week-ahead forecast.
package insight

import (
	"math"

	"pricecast/internal/domain"
)

// Analysis carries the extremum indices alongside the insight so chart
// highlighting and the textual message always agree.
type Analysis struct {
	MinIdx  int            `json:"min_idx"`
	MaxIdx  int            `json:"max_idx"`
	Insight domain.Insight `json:"insight"`
}

// Derive scans the series once for its first minimum and first maximum and
// applies the decision rule. Only an empty series fails.
func Derive(series domain.ForecastSeries) (Analysis, error) {
	if len(series) == 0 {
		return Analysis{}, domain.ErrEmptySeries
	}

	minIdx, maxIdx := extremumIndices(series.Values())
	lowest := series[minIdx].Price
	highest := series[maxIdx].Price

	// highest == 0 yields NaN here; it is propagated, not guarded.
	dropPercent := (highest - lowest) / highest * 100
	dayGap := minIdx - maxIdx
	if dayGap < 0 {
		dayGap = -dayGap
	}

	// dropPercent >= 0 always holds for finite values; the guard is kept as-is.
	// For a NaN drop it is false, which falls through to BUY_NOW.
	rec := domain.RecommendationBuyNow
	if dropPercent >= 0 && maxIdx < minIdx {
		rec = domain.RecommendationWait
	}

	return Analysis{
		MinIdx: minIdx,
		MaxIdx: maxIdx,
		Insight: domain.Insight{
			Recommendation: rec,
			DropPercent:    dropPercent,
			DayGap:         dayGap,
		},
	}, nil
}

// Message derives the insight and formats it for display.
func Message(series domain.ForecastSeries) (string, error) {
	a, err := Derive(series)
	if err != nil {
		return "", err
	}
	return a.Insight.Message(), nil
}

// extremumIndices returns the index of the first minimum and the first maximum.
func extremumIndices(values []float64) (int, int) {
	minIdx, maxIdx := 0, 0
	minV, maxV := math.Inf(1), math.Inf(-1)
	for i, v := range values {
		if v < minV {
			minV = v
			minIdx = i
		}
		if v > maxV {
			maxV = v
			maxIdx = i
		}
	}
	return minIdx, maxIdx
}
