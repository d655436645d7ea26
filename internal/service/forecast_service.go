package service

import (
	"context"
	"fmt"
	"log"

	"pricecast/internal/cache"
	"pricecast/internal/chart"
	"pricecast/internal/domain"
	"pricecast/internal/insight"

	"go.opentelemetry.io/otel/trace"
)

type HistorySource interface {
	History(ctx context.Context) ([]domain.PricePoint, error)
}

type ForecastModel interface {
	Forecast(history []domain.PricePoint) (domain.ForecastSeries, error)
}

type ForecastChartRenderer interface {
	RenderForecastChart(plot chart.Plot) (*domain.ChartImage, error)
}

// ForecastService turns the price history into the week-ahead series and
// keeps the latest result in the forecast cache.
type ForecastService struct {
	tracer   trace.Tracer
	source   HistorySource
	model    ForecastModel
	cache    *cache.ForecastCache
	renderer ForecastChartRenderer
}

func NewForecastService(
	tracer trace.Tracer,
	source HistorySource,
	model ForecastModel,
	forecastCache *cache.ForecastCache,
	renderer ForecastChartRenderer,
) *ForecastService {
	return &ForecastService{
		tracer:   tracer,
		source:   source,
		model:    model,
		cache:    forecastCache,
		renderer: renderer,
	}
}

// NextWeek serves the cached series when present and computes it otherwise.
// Cache failures are logged and never fail the request.
func (s *ForecastService) NextWeek(ctx context.Context) (domain.ForecastSeries, error) {
	ctx, span := s.tracer.Start(ctx, "forecast-service.next-week")
	defer span.End()

	cached, err := s.cache.Get(ctx)
	if err != nil {
		log.Printf("forecast cache read error: %v", err)
	}
	if len(cached) > 0 {
		return cached, nil
	}
	return s.Refresh(ctx)
}

// Refresh recomputes the forecast from the full history and overwrites the cache.
func (s *ForecastService) Refresh(ctx context.Context) (domain.ForecastSeries, error) {
	ctx, span := s.tracer.Start(ctx, "forecast-service.refresh")
	defer span.End()

	if s.source == nil || s.model == nil {
		return nil, fmt.Errorf("forecast service is not fully initialized")
	}

	history, err := s.source.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("load price history: %w", err)
	}
	series, err := s.model.Forecast(history)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, series); err != nil {
		log.Printf("forecast cache write error: %v", err)
	}
	return series, nil
}

// Analyze returns the series together with its derived insight.
func (s *ForecastService) Analyze(ctx context.Context) (domain.ForecastSeries, insight.Analysis, error) {
	series, err := s.NextWeek(ctx)
	if err != nil {
		return nil, insight.Analysis{}, err
	}
	analysis, err := insight.Derive(series)
	if err != nil {
		return nil, insight.Analysis{}, err
	}
	return series, analysis, nil
}

// Chart renders the forecast with the extremum markers taken from the analysis.
func (s *ForecastService) Chart(ctx context.Context) (*domain.ChartImage, insight.Analysis, error) {
	ctx, span := s.tracer.Start(ctx, "forecast-service.chart")
	defer span.End()

	if s.renderer == nil {
		return nil, insight.Analysis{}, fmt.Errorf("chart renderer is not configured")
	}
	series, analysis, err := s.Analyze(ctx)
	if err != nil {
		return nil, insight.Analysis{}, err
	}
	img, err := s.renderer.RenderForecastChart(chart.NewPlot(series, analysis))
	if err != nil {
		return nil, insight.Analysis{}, fmt.Errorf("render forecast chart: %w", err)
	}
	return img, analysis, nil
}

// CurrentPrice is the most recent observation in the history.
func (s *ForecastService) CurrentPrice(ctx context.Context) (domain.PricePoint, error) {
	ctx, span := s.tracer.Start(ctx, "forecast-service.current-price")
	defer span.End()

	if s.source == nil {
		return domain.PricePoint{}, fmt.Errorf("forecast service is not fully initialized")
	}
	history, err := s.source.History(ctx)
	if err != nil {
		return domain.PricePoint{}, fmt.Errorf("load price history: %w", err)
	}
	if len(history) == 0 {
		return domain.PricePoint{}, domain.ErrNoHistory
	}
	return history[len(history)-1], nil
}
