package domain

import (
	"fmt"
	"math"
	"time"
)

// ForecastDateLayout is the layout used for forecast point dates, e.g. "08 Jul 2025".
const ForecastDateLayout = "02 Jan 2006"

type ForecastPoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// ForecastSeries is ordered chronologically; index position is the day offset.
type ForecastSeries []ForecastPoint

func (s ForecastSeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Price
	}
	return out
}

func (s ForecastSeries) Labels() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = p.Date
	}
	return out
}

type Recommendation string

const (
	RecommendationWait   Recommendation = "WAIT"
	RecommendationBuyNow Recommendation = "BUY_NOW"
)

type Insight struct {
	Recommendation Recommendation `json:"recommendation"`
	DropPercent    float64        `json:"drop_percent"`
	DayGap         int            `json:"day_gap"`
}

// HasMeaningfulDrop reports whether DropPercent is a finite number.
func (i Insight) HasMeaningfulDrop() bool {
	return !math.IsNaN(i.DropPercent) && !math.IsInf(i.DropPercent, 0)
}

func (i Insight) Message() string {
	if i.Recommendation != RecommendationWait {
		return "Buy now, price unlikely to improve"
	}
	plural := ""
	if i.DayGap > 1 {
		plural = "s"
	}
	return fmt.Sprintf("Wait, expected to drop %.1f%% in %d day%s", i.DropPercent, i.DayGap, plural)
}

type SubscriptionRequest struct {
	PhoneNumber  string `json:"phone_number"`
	DesiredPrice string `json:"desired_price"`
	Description  string `json:"description"`
}

type SubscriptionResult struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message"`
}

// PricePoint is one historical price observation.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

type Subscription struct {
	ID            int64      `json:"id"`
	PhoneNumber   string     `json:"phone_number"`
	DesiredPrice  float64    `json:"desired_price"`
	Description   string     `json:"description"`
	ModelID       string     `json:"model_id"`
	URL           string     `json:"url"`
	CurrentPrice  float64    `json:"current_price"`
	CreatedAt     time.Time  `json:"created_at"`
	NotifiedAt    *time.Time `json:"notified_at,omitempty"`
	NotifiedPrice *float64   `json:"notified_price,omitempty"`
}

type Product struct {
	ModelID     string `json:"model_id"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

type ChartImage struct {
	MimeType string
	Width    int
	Height   int
	Bytes    []byte
}
