package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"pricecast/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type PriceDropNotifier interface {
	NotifyPriceDrop(ctx context.Context, sub domain.Subscription, currentPrice float64) error
}

// AlertService fulfils pending subscriptions once the observed price reaches
// the subscriber's target.
type AlertService struct {
	tracer   trace.Tracer
	store    SubscriptionStore
	pricer   CurrentPricer
	notifier PriceDropNotifier
	now      func() time.Time
}

func NewAlertService(tracer trace.Tracer, store SubscriptionStore, pricer CurrentPricer, notifier PriceDropNotifier) *AlertService {
	return &AlertService{
		tracer:   tracer,
		store:    store,
		pricer:   pricer,
		notifier: notifier,
		now:      time.Now,
	}
}

// CheckPending notifies every pending subscription whose desired price is at
// or above the current price and marks it notified. A failed notification
// leaves the subscription pending for the next run.
func (s *AlertService) CheckPending(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "alert-service.check-pending")
	defer span.End()

	if s.store == nil || s.pricer == nil || s.notifier == nil {
		return 0, fmt.Errorf("alert service is not fully initialized")
	}

	pending, err := s.store.ListPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pending subscriptions: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	current, err := s.pricer.CurrentPrice(ctx)
	if err != nil {
		return 0, fmt.Errorf("current price: %w", err)
	}

	notified := 0
	for _, sub := range pending {
		if current.Price > sub.DesiredPrice {
			continue
		}
		if err := s.notifier.NotifyPriceDrop(ctx, sub, current.Price); err != nil {
			log.Printf("price drop alert failed for subscription %d: %v", sub.ID, err)
			continue
		}
		if err := s.store.MarkNotified(ctx, sub.ID, current.Price, s.now()); err != nil {
			return notified, fmt.Errorf("mark subscription %d notified: %w", sub.ID, err)
		}
		notified++
	}
	return notified, nil
}
