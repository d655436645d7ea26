package insight

import (
	"errors"
	"math"
	"testing"

	"pricecast/internal/domain"
)

func seriesOf(values ...float64) domain.ForecastSeries {
	out := make(domain.ForecastSeries, len(values))
	for i, v := range values {
		out[i] = domain.ForecastPoint{Date: "day", Price: v}
	}
	return out
}

func TestDeriveScenarios(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		minIdx  int
		maxIdx  int
		rec     domain.Recommendation
		drop    float64
		dayGap  int
		message string
	}{
		{
			name:    "strictly decreasing",
			values:  []float64{100, 90, 80, 70, 60},
			minIdx:  4,
			maxIdx:  0,
			rec:     domain.RecommendationWait,
			drop:    40,
			dayGap:  4,
			message: "Wait, expected to drop 40.0% in 4 days",
		},
		{
			name:    "strictly increasing",
			values:  []float64{60, 70, 80, 90, 100},
			minIdx:  0,
			maxIdx:  4,
			rec:     domain.RecommendationBuyNow,
			drop:    40,
			dayGap:  4,
			message: "Buy now, price unlikely to improve",
		},
		{
			name:    "single element",
			values:  []float64{50},
			minIdx:  0,
			maxIdx:  0,
			rec:     domain.RecommendationBuyNow,
			drop:    0,
			dayGap:  0,
			message: "Buy now, price unlikely to improve",
		},
		{
			name:    "all equal",
			values:  []float64{80, 80, 80},
			minIdx:  0,
			maxIdx:  0,
			rec:     domain.RecommendationBuyNow,
			drop:    0,
			dayGap:  0,
			message: "Buy now, price unlikely to improve",
		},
		{
			name:    "one day gap",
			values:  []float64{70, 100, 90, 95},
			minIdx:  0,
			maxIdx:  1,
			rec:     domain.RecommendationBuyNow,
			drop:    30,
			dayGap:  1,
			message: "Buy now, price unlikely to improve",
		},
		{
			name:    "peak then dip next day",
			values:  []float64{90, 100, 95, 96},
			minIdx:  0,
			maxIdx:  1,
			rec:     domain.RecommendationBuyNow,
			drop:    10,
			dayGap:  1,
			message: "Buy now, price unlikely to improve",
		},
		{
			name:    "wait one day",
			values:  []float64{100, 80, 90},
			minIdx:  1,
			maxIdx:  0,
			rec:     domain.RecommendationWait,
			drop:    20,
			dayGap:  1,
			message: "Wait, expected to drop 20.0% in 1 day",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Derive(seriesOf(tt.values...))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a.MinIdx != tt.minIdx || a.MaxIdx != tt.maxIdx {
				t.Fatalf("expected min=%d max=%d, got min=%d max=%d", tt.minIdx, tt.maxIdx, a.MinIdx, a.MaxIdx)
			}
			if a.Insight.Recommendation != tt.rec {
				t.Fatalf("expected %s, got %s", tt.rec, a.Insight.Recommendation)
			}
			if math.Abs(a.Insight.DropPercent-tt.drop) > 1e-9 {
				t.Fatalf("expected drop %.4f, got %.4f", tt.drop, a.Insight.DropPercent)
			}
			if a.Insight.DayGap != tt.dayGap {
				t.Fatalf("expected day gap %d, got %d", tt.dayGap, a.Insight.DayGap)
			}
			if got := a.Insight.Message(); got != tt.message {
				t.Fatalf("expected message %q, got %q", tt.message, got)
			}
		})
	}
}

func TestDeriveTieBreakFirstOccurrence(t *testing.T) {
	a, err := Derive(seriesOf(5, 3, 3, 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.MinIdx != 1 {
		t.Fatalf("expected first minimum at 1, got %d", a.MinIdx)
	}
	if a.MaxIdx != 0 {
		t.Fatalf("expected first maximum at 0, got %d", a.MaxIdx)
	}
	if a.Insight.Recommendation != domain.RecommendationWait || a.Insight.DayGap != 1 {
		t.Fatalf("unexpected insight: %+v", a.Insight)
	}
}

func TestDeriveEmptySeries(t *testing.T) {
	if _, err := Derive(nil); !errors.Is(err, domain.ErrEmptySeries) {
		t.Fatalf("expected ErrEmptySeries, got %v", err)
	}
	if _, err := Message(domain.ForecastSeries{}); !errors.Is(err, domain.ErrEmptySeries) {
		t.Fatalf("expected ErrEmptySeries from Message, got %v", err)
	}
}

func TestDeriveZeroMaximumIsNotMeaningful(t *testing.T) {
	a, err := Derive(seriesOf(0, 0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Insight.HasMeaningfulDrop() {
		t.Fatalf("expected non-finite drop, got %v", a.Insight.DropPercent)
	}
	if a.Insight.Recommendation != domain.RecommendationBuyNow {
		t.Fatalf("expected BUY_NOW for zero series, got %s", a.Insight.Recommendation)
	}
}

func TestDeriveBoundsHold(t *testing.T) {
	inputs := [][]float64{
		{1469, 1450.5, 1480.25, 1420, 1499.99, 1433, 1460},
		{10, 20},
		{20, 10},
		{3, 1, 4, 1, 5, 9, 2, 6},
	}
	for _, values := range inputs {
		a, err := Derive(seriesOf(values...))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.Insight.DayGap < 0 {
			t.Fatalf("negative day gap for %v", values)
		}
		if a.Insight.DropPercent < 0 {
			t.Fatalf("negative drop for %v", values)
		}
		wantGap := a.MinIdx - a.MaxIdx
		if wantGap < 0 {
			wantGap = -wantGap
		}
		if a.Insight.DayGap != wantGap {
			t.Fatalf("day gap mismatch for %v", values)
		}
		wantWait := a.MaxIdx < a.MinIdx
		if (a.Insight.Recommendation == domain.RecommendationWait) != wantWait {
			t.Fatalf("recommendation mismatch for %v: %+v", values, a)
		}
	}
}

func TestMessage(t *testing.T) {
	msg, err := Message(seriesOf(100, 90, 80, 70, 60))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg != "Wait, expected to drop 40.0% in 4 days" {
		t.Fatalf("unexpected message: %q", msg)
	}
}
