package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pricecast/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const (
	SubscribeAckMessage   = "Got it! We'll notify you on Telegram when the price will drop."
	MissingFieldsMessage  = "Missing phone_number or desired_price"
	InvalidPriceMessage   = "desired_price must be a number"
	InvalidCurrentMessage = "current_price must be a number"
)

type SubscriptionStore interface {
	Create(ctx context.Context, sub domain.Subscription) (domain.Subscription, error)
	ListPending(ctx context.Context) ([]domain.Subscription, error)
	MarkNotified(ctx context.Context, id int64, price float64, at time.Time) error
}

type CurrentPricer interface {
	CurrentPrice(ctx context.Context) (domain.PricePoint, error)
}

// ValidationError carries a message meant for the caller as-is. It matches
// domain.ErrValidation under errors.Is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == domain.ErrValidation }

// SubscribeInput is the raw request; numeric fields arrive as text.
type SubscribeInput struct {
	PhoneNumber  string
	DesiredPrice string
	Description  string
	CurrentPrice string
	URL          string
}

type SubscriptionService struct {
	tracer  trace.Tracer
	store   SubscriptionStore
	pricer  CurrentPricer
	product domain.Product
}

func NewSubscriptionService(tracer trace.Tracer, store SubscriptionStore, pricer CurrentPricer, product domain.Product) *SubscriptionService {
	return &SubscriptionService{
		tracer:  tracer,
		store:   store,
		pricer:  pricer,
		product: product,
	}
}

func (s *SubscriptionService) Product() domain.Product {
	return s.product
}

// Subscribe validates the request and records a pending price-drop alert.
// When no current price is supplied the latest observed price is used.
func (s *SubscriptionService) Subscribe(ctx context.Context, in SubscribeInput) (domain.Subscription, error) {
	ctx, span := s.tracer.Start(ctx, "subscription-service.subscribe")
	defer span.End()

	phone := strings.TrimSpace(in.PhoneNumber)
	desiredRaw := strings.TrimSpace(in.DesiredPrice)
	if phone == "" || desiredRaw == "" {
		return domain.Subscription{}, &ValidationError{Message: MissingFieldsMessage}
	}
	desired, err := strconv.ParseFloat(desiredRaw, 64)
	if err != nil {
		return domain.Subscription{}, &ValidationError{Message: InvalidPriceMessage}
	}

	current := 0.0
	if raw := strings.TrimSpace(in.CurrentPrice); raw != "" {
		current, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.Subscription{}, &ValidationError{Message: InvalidCurrentMessage}
		}
	} else if s.pricer != nil {
		if p, err := s.pricer.CurrentPrice(ctx); err == nil {
			current = p.Price
		}
	}

	url := strings.TrimSpace(in.URL)
	if url == "" {
		url = s.product.URL
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		description = s.product.Description
	}

	if s.store == nil {
		return domain.Subscription{}, fmt.Errorf("subscription store is not configured")
	}
	sub, err := s.store.Create(ctx, domain.Subscription{
		PhoneNumber:  phone,
		DesiredPrice: desired,
		Description:  description,
		ModelID:      s.product.ModelID,
		URL:          url,
		CurrentPrice: current,
	})
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("store subscription: %w", err)
	}
	return sub, nil
}
