package tui

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"pricecast/internal/client"
	"pricecast/internal/domain"
	"pricecast/internal/insight"
)

func TestFormatShekels(t *testing.T) {
	cases := map[float64]string{
		0:        "₪0.00",
		99.5:     "₪99.50",
		1469:     "₪1,469.00",
		1234567:  "₪1,234,567.00",
		-1250.25: "-₪1,250.25",
	}
	for in, want := range cases {
		if got := formatShekels(in); got != want {
			t.Fatalf("formatShekels(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestDescribeError(t *testing.T) {
	if describeError(nil) != "" {
		t.Fatal("expected empty message for nil error")
	}
	if got := describeError(fmt.Errorf("%w: blank", domain.ErrValidation)); got != client.ValidationPrompt {
		t.Fatalf("unexpected validation message: %q", got)
	}
	if got := describeError(fmt.Errorf("%w: connection refused", domain.ErrNetwork)); got != "Could not reach the price service (connection refused)." {
		t.Fatalf("unexpected network message: %q", got)
	}
	if got := describeError(errors.New("boom")); got != "boom" {
		t.Fatalf("unexpected fallback message: %q", got)
	}
}

func TestRenderSeriesTableMarksExtremes(t *testing.T) {
	series := testSeries()
	analysis, err := insight.Derive(series)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	lines := strings.Split(RenderSeriesTable(series, analysis), "\n")
	if len(lines) != len(series) {
		t.Fatalf("expected %d lines, got %d", len(series), len(lines))
	}
	if !strings.Contains(lines[0], "▲ high") {
		t.Fatalf("expected first row marked high: %q", lines[0])
	}
	if !strings.Contains(lines[4], "▼ low") {
		t.Fatalf("expected last row marked low: %q", lines[4])
	}
}

func TestFormatInsightBuyNow(t *testing.T) {
	out := FormatInsight(domain.Insight{Recommendation: domain.RecommendationBuyNow})
	if !strings.Contains(out, "Buy now, price unlikely to improve") {
		t.Fatalf("unexpected insight: %q", out)
	}
}
