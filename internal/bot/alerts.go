package bot

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"pricecast/internal/domain"

	tele "gopkg.in/telebot.v3"
)

type messageSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Notifier delivers price-drop alerts to the configured chat and to every
// chat that opted in with /alerts on.
type Notifier struct {
	sender messageSender

	mu          sync.RWMutex
	subscribers map[int64]struct{}
}

// NewNotifier returns a notifier that sends through sender. A zero
// defaultChatID adds no initial recipient.
func NewNotifier(sender messageSender, defaultChatID int64) *Notifier {
	n := &Notifier{
		sender:      sender,
		subscribers: make(map[int64]struct{}),
	}
	if defaultChatID != 0 {
		n.subscribers[defaultChatID] = struct{}{}
	}
	return n
}

func (n *Notifier) Subscribe(chatID int64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.subscribers[chatID]; exists {
		return false
	}
	n.subscribers[chatID] = struct{}{}
	return true
}

func (n *Notifier) Unsubscribe(chatID int64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.subscribers[chatID]; !exists {
		return false
	}
	delete(n.subscribers, chatID)
	return true
}

func (n *Notifier) IsSubscribed(chatID int64) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()

	_, exists := n.subscribers[chatID]
	return exists
}

func (n *Notifier) SubscriberCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subscribers)
}

// NotifyPriceDrop sends the alert for sub. Without a bot or recipients it
// does nothing and reports success.
func (n *Notifier) NotifyPriceDrop(ctx context.Context, sub domain.Subscription, currentPrice float64) error {
	_ = ctx
	if n == nil || n.sender == nil {
		return nil
	}

	chatIDs := n.snapshotSubscribers()
	if len(chatIDs) == 0 {
		log.Printf("price drop alert for subscription %d has no Telegram recipients", sub.ID)
		return nil
	}

	msg := FormatPriceDropAlert(sub, currentPrice)
	var failures []string
	for _, chatID := range chatIDs {
		if _, err := n.sender.Send(&tele.Chat{ID: chatID}, msg); err != nil {
			failures = append(failures, fmt.Sprintf("chat %d: %v", chatID, err))
		}
	}
	if len(failures) == len(chatIDs) {
		return fmt.Errorf("failed sending %d alerts: %s", len(failures), strings.Join(failures, "; "))
	}
	if len(failures) > 0 {
		log.Printf("price drop alert partially delivered: %s", strings.Join(failures, "; "))
	}
	return nil
}

func (n *Notifier) snapshotSubscribers() []int64 {
	n.mu.RLock()
	defer n.mu.RUnlock()

	chatIDs := make([]int64, 0, len(n.subscribers))
	for chatID := range n.subscribers {
		chatIDs = append(chatIDs, chatID)
	}
	sort.Slice(chatIDs, func(i, j int) bool { return chatIDs[i] < chatIDs[j] })
	return chatIDs
}

// FormatPriceDropAlert renders the alert body sent to Telegram.
func FormatPriceDropAlert(sub domain.Subscription, currentPrice float64) string {
	return fmt.Sprintf(
		"🚨 Price Drop Alert!\nModel: %s\nDescription: %s\nYour Target: ₪%.2f\nNew Price Alert: ₪%.2f\nLink: %s",
		sub.ModelID, sub.Description, sub.DesiredPrice, currentPrice, sub.URL,
	)
}

func parseAlertMode(args []string) (string, error) {
	if len(args) == 0 {
		return "status", nil
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "on":
		return "on", nil
	case "off":
		return "off", nil
	case "status":
		return "status", nil
	default:
		return "", fmt.Errorf("invalid mode")
	}
}
