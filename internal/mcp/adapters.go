package mcp

import (
	"context"

	"pricecast/internal/domain"
	"pricecast/internal/insight"
	"pricecast/internal/service"
)

// ForecastReader exposes the week-ahead forecast and the latest price.
type ForecastReader interface {
	Analyze(ctx context.Context) (domain.ForecastSeries, insight.Analysis, error)
	CurrentPrice(ctx context.Context) (domain.PricePoint, error)
}

// Subscriber records price-drop subscriptions for the tracked product.
type Subscriber interface {
	Subscribe(ctx context.Context, in service.SubscribeInput) (domain.Subscription, error)
	Product() domain.Product
}
