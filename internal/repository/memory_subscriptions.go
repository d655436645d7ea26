package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"pricecast/internal/domain"
)

// MemorySubscriptionRepository keeps subscriptions in process memory. It is
// used when no DATABASE_URL is configured; contents are lost on restart.
type MemorySubscriptionRepository struct {
	now func() time.Time

	mu     sync.RWMutex
	nextID int64
	subs   map[int64]domain.Subscription
}

func NewMemorySubscriptionRepository(now func() time.Time) *MemorySubscriptionRepository {
	if now == nil {
		now = time.Now
	}
	return &MemorySubscriptionRepository{
		now:  now,
		subs: make(map[int64]domain.Subscription),
	}
}

func (r *MemorySubscriptionRepository) Create(ctx context.Context, sub domain.Subscription) (domain.Subscription, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	sub.ID = r.nextID
	sub.CreatedAt = r.now().UTC()
	sub.NotifiedAt = nil
	sub.NotifiedPrice = nil
	r.subs[sub.ID] = sub
	return sub, nil
}

func (r *MemorySubscriptionRepository) ListPending(ctx context.Context) ([]domain.Subscription, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Subscription, 0, len(r.subs))
	for _, s := range r.subs {
		if s.NotifiedAt == nil {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemorySubscriptionRepository) MarkNotified(ctx context.Context, id int64, price float64, at time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.subs[id]
	if !ok || s.NotifiedAt != nil {
		return nil
	}
	notifiedAt := at.UTC()
	notifiedPrice := price
	s.NotifiedAt = &notifiedAt
	s.NotifiedPrice = &notifiedPrice
	r.subs[id] = s
	return nil
}

// Len reports how many subscriptions are stored, notified or not.
func (r *MemorySubscriptionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
