package job

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"
)

const defaultAlertPollInterval = time.Minute

type PendingAlertChecker interface {
	CheckPending(ctx context.Context) (int, error)
}

// AlertPoller periodically compares pending subscriptions against the
// current price.
type AlertPoller struct {
	tracer   trace.Tracer
	checker  PendingAlertChecker
	interval time.Duration
}

func NewAlertPoller(tracer trace.Tracer, checker PendingAlertChecker, intervalSecs int) *AlertPoller {
	interval := time.Duration(intervalSecs) * time.Second
	if interval <= 0 {
		interval = defaultAlertPollInterval
	}
	return &AlertPoller{
		tracer:   tracer,
		checker:  checker,
		interval: interval,
	}
}

// Start checks once immediately and then on every tick. Blocks until ctx is cancelled.
func (p *AlertPoller) Start(ctx context.Context) {
	if p == nil || p.checker == nil {
		log.Println("Alert poller disabled: no alert service")
		<-ctx.Done()
		return
	}

	log.Printf("Alert poller starting (every %s)...", p.interval)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Println("Alert poller stopped")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *AlertPoller) poll(ctx context.Context) {
	if p.tracer != nil {
		var span trace.Span
		ctx, span = p.tracer.Start(ctx, "alert-poller.poll")
		defer span.End()
	}
	count, err := p.checker.CheckPending(ctx)
	if err != nil {
		log.Printf("alert poll error: %v", err)
		return
	}
	if count > 0 {
		log.Printf("sent %d price drop alert(s)", count)
	}
}
