package tui

import (
	"context"

	"pricecast/internal/domain"
)

// ForecastFetcher loads the week-ahead series.
type ForecastFetcher interface {
	FetchForecast(ctx context.Context) (domain.ForecastSeries, error)
}

// Subscriber submits a price-drop subscription. Both values are passed as typed.
type Subscriber interface {
	Subscribe(ctx context.Context, phone, desiredPrice string) (domain.SubscriptionResult, error)
}

// Services bundles the dependencies injected into the TUI.
type Services struct {
	Forecasts     ForecastFetcher
	Subscriptions Subscriber
	Product       domain.Product
	Username      string
	// DefaultPhone prefills the phone field when the popup opens.
	DefaultPhone string
}
