package bot

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"pricecast/internal/domain"
	"pricecast/internal/insight"

	tele "gopkg.in/telebot.v3"
)

// ForecastQuerier is the part of the forecast service the bot commands use.
type ForecastQuerier interface {
	Analyze(ctx context.Context) (domain.ForecastSeries, insight.Analysis, error)
	Chart(ctx context.Context) (*domain.ChartImage, insight.Analysis, error)
	CurrentPrice(ctx context.Context) (domain.PricePoint, error)
}

// StartTelegramBot starts the command bot and returns the alert notifier
// bound to it. Without TELEGRAM_BOT_TOKEN it returns a notifier that drops
// every alert.
func StartTelegramBot(forecasts ForecastQuerier, product domain.Product, defaultChatID int64) *Notifier {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return NewNotifier(nil, 0)
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Printf("failed to create Telegram bot: %v", err)
		return NewNotifier(nil, 0)
	}
	notifier := NewNotifier(b, defaultChatID)

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/price", func(c tele.Context) error {
		if forecasts == nil {
			return c.Send("Forecast service unavailable")
		}
		point, err := forecasts.CurrentPrice(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching current price: %v", err))
		}
		return c.Send(formatCurrentPrice(product, point))
	})

	b.Handle("/forecast", func(c tele.Context) error {
		if forecasts == nil {
			return c.Send("Forecast service unavailable")
		}
		_ = c.Notify(tele.UploadingPhoto)
		return c.Send(forecastReply(context.Background(), forecasts))
	})

	b.Handle("/alerts", func(c tele.Context) error {
		chat := c.Chat()
		if chat == nil {
			return c.Send("Unable to detect chat")
		}

		mode, err := parseAlertMode(c.Args())
		if err != nil {
			return c.Send("Usage: /alerts on | /alerts off | /alerts status")
		}

		switch mode {
		case "on":
			if notifier.Subscribe(chat.ID) {
				return c.Send("Price drop alerts enabled for this chat.")
			}
			return c.Send("Price drop alerts are already enabled for this chat.")
		case "off":
			if notifier.Unsubscribe(chat.ID) {
				return c.Send("Price drop alerts disabled for this chat.")
			}
			return c.Send("Price drop alerts are already disabled for this chat.")
		default:
			if notifier.IsSubscribed(chat.ID) {
				return c.Send("Alerts status: ON")
			}
			return c.Send("Alerts status: OFF")
		}
	})

	log.Println("Telegram bot started")
	go b.Start()
	return notifier
}

// forecastReply is the chart photo captioned with the insight, or a plain
// text reply when no chart can be produced.
func forecastReply(ctx context.Context, forecasts ForecastQuerier) interface{} {
	series, analysis, err := forecasts.Analyze(ctx)
	if err != nil {
		return fmt.Sprintf("Error computing forecast: %v", err)
	}
	caption := formatForecast(series, analysis)

	img, _, err := forecasts.Chart(ctx)
	if err != nil || img == nil || len(img.Bytes) == 0 {
		return caption
	}
	return &tele.Photo{
		File:    tele.FromReader(bytes.NewReader(img.Bytes)),
		Caption: caption,
	}
}

func formatForecast(series domain.ForecastSeries, analysis insight.Analysis) string {
	lines := make([]string, 0, len(series)+2)
	lines = append(lines, analysis.Insight.Message())
	for i, p := range series {
		mark := ""
		switch i {
		case analysis.MinIdx:
			mark = " (low)"
		case analysis.MaxIdx:
			mark = " (high)"
		}
		lines = append(lines, fmt.Sprintf("%s: ₪%.2f%s", p.Date, p.Price, mark))
	}
	return strings.Join(lines, "\n")
}

func formatCurrentPrice(product domain.Product, point domain.PricePoint) string {
	return fmt.Sprintf(
		"%s\nPrice: ₪%.2f\nAs of: %s\n%s",
		product.Description, point.Price, point.Date.Format(domain.ForecastDateLayout), product.URL,
	)
}
