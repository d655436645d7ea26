package mcp

import (
	"fmt"
	"strconv"
	"strings"

	"pricecast/internal/domain"
	"pricecast/internal/insight"
)

type forecastNextWeekInput struct{}

type forecastNextWeekOutput struct {
	Points         []domain.ForecastPoint `json:"points"`
	MinIdx         int                    `json:"min_idx"`
	MaxIdx         int                    `json:"max_idx"`
	Recommendation string                 `json:"recommendation"`
	DropPercent    *float64               `json:"drop_percent,omitempty"`
	DayGap         int                    `json:"day_gap"`
	Message        string                 `json:"message"`
}

type currentPriceInput struct{}

type currentPriceOutput struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

type subscribeInput struct {
	PhoneNumber  string `json:"phone_number" jsonschema:"phone number of the subscriber"`
	DesiredPrice string `json:"desired_price" jsonschema:"target price in shekels, e.g. 1400"`
	Description  string `json:"description,omitempty" jsonschema:"optional product description"`
}

type subscribeOutput struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	SubscriptionID int64  `json:"subscription_id"`
}

type forecastDayOutput struct {
	Index int                  `json:"index"`
	Point domain.ForecastPoint `json:"point"`
}

func newForecastOutput(series domain.ForecastSeries, analysis insight.Analysis) forecastNextWeekOutput {
	out := forecastNextWeekOutput{
		Points:         append([]domain.ForecastPoint(nil), series...),
		MinIdx:         analysis.MinIdx,
		MaxIdx:         analysis.MaxIdx,
		Recommendation: string(analysis.Insight.Recommendation),
		DayGap:         analysis.Insight.DayGap,
		Message:        analysis.Insight.Message(),
	}
	if analysis.Insight.HasMeaningfulDrop() {
		drop := analysis.Insight.DropPercent
		out.DropPercent = &drop
	}
	return out
}

func normalizeDayIndex(raw string, size int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("day index is required")
	}
	idx, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid day index: %s", raw)
	}
	if idx < 0 || idx >= size {
		return 0, fmt.Errorf("day index out of range: %d (forecast has %d days)", idx, size)
	}
	return idx, nil
}
