package job

import (
	"context"
	"fmt"
	"log"

	"pricecast/internal/domain"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/trace"
)

// DefaultWarmSchedule runs five seconds past midnight; the seconds field is enabled.
const DefaultWarmSchedule = "0 5 0 * * *"

type ForecastRefresher interface {
	Refresh(ctx context.Context) (domain.ForecastSeries, error)
}

// ForecastWarmer recomputes the cached forecast on a cron schedule.
type ForecastWarmer struct {
	tracer    trace.Tracer
	refresher ForecastRefresher
	schedule  string
	cron      *cron.Cron
}

func NewForecastWarmer(tracer trace.Tracer, refresher ForecastRefresher, schedule string) *ForecastWarmer {
	if schedule == "" {
		schedule = DefaultWarmSchedule
	}
	return &ForecastWarmer{
		tracer:    tracer,
		refresher: refresher,
		schedule:  schedule,
		cron:      cron.New(cron.WithSeconds()),
	}
}

// Start warms the cache once, registers the schedule and blocks until ctx
// is cancelled. An invalid schedule is returned before anything runs.
func (w *ForecastWarmer) Start(ctx context.Context) error {
	if w == nil || w.refresher == nil {
		log.Println("Forecast warmer disabled: no forecast service")
		<-ctx.Done()
		return nil
	}

	if _, err := w.cron.AddFunc(w.schedule, func() { w.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("register forecast warm schedule %q: %w", w.schedule, err)
	}

	w.RunOnce(ctx)
	w.cron.Start()
	log.Printf("Forecast warmer scheduled (%s)", w.schedule)

	<-ctx.Done()
	<-w.cron.Stop().Done()
	log.Println("Forecast warmer stopped")
	return nil
}

// RunOnce recomputes the forecast and overwrites the cache.
func (w *ForecastWarmer) RunOnce(ctx context.Context) {
	if w.tracer != nil {
		var span trace.Span
		ctx, span = w.tracer.Start(ctx, "forecast-warmer.run")
		defer span.End()
	}
	series, err := w.refresher.Refresh(ctx)
	if err != nil {
		log.Printf("forecast warm error: %v", err)
		return
	}
	log.Printf("forecast cache warmed with %d point(s)", len(series))
}
