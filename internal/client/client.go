// Package client talks to the forecast API the way the product page does:
// it loads the week-ahead series and submits price-drop subscriptions.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pricecast/internal/domain"
)

// ValidationPrompt is shown when either subscribe field is blank.
const ValidationPrompt = "Please enter both phone and desired price."

const maxResponseBytes = 1 << 20

type Client struct {
	baseURL     string
	description string
	http        *http.Client
}

// New builds a client for baseURL. description is sent with every
// subscription as the product description.
func New(baseURL string, timeout time.Duration, description string) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		description: description,
		http:        &http.Client{Timeout: timeout},
	}
}

// FetchForecast loads the week-ahead series. Failures wrap one of
// domain.ErrNetwork, domain.ErrMalformedResponse or domain.ErrEmptySeries.
func (c *Client) FetchForecast(ctx context.Context) (domain.ForecastSeries, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/forecast_next_week", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("%w: %s", domain.ErrNetwork, apiErr.Error)
		}
		return nil, fmt.Errorf("%w: status %d", domain.ErrNetwork, resp.StatusCode)
	}

	var series domain.ForecastSeries
	if err := json.Unmarshal(body, &series); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if len(series) == 0 {
		return nil, domain.ErrEmptySeries
	}
	return series, nil
}

// Subscribe trims both fields and posts the subscription. A blank field
// fails with domain.ErrValidation before any request is made. The desired
// price is sent exactly as typed.
//
// Whatever message the server returns is handed back, including for
// non-2xx replies that carry a JSON body.
func (c *Client) Subscribe(ctx context.Context, phone, desiredPrice string) (domain.SubscriptionResult, error) {
	phone = strings.TrimSpace(phone)
	desiredPrice = strings.TrimSpace(desiredPrice)
	if phone == "" || desiredPrice == "" {
		return domain.SubscriptionResult{}, fmt.Errorf("%w: %s", domain.ErrValidation, ValidationPrompt)
	}

	payload, err := json.Marshal(domain.SubscriptionRequest{
		PhoneNumber:  phone,
		DesiredPrice: desiredPrice,
		Description:  c.description,
	})
	if err != nil {
		return domain.SubscriptionResult{}, fmt.Errorf("marshal subscription: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/subscribe", bytes.NewReader(payload))
	if err != nil {
		return domain.SubscriptionResult{}, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.SubscriptionResult{}, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.SubscriptionResult{}, fmt.Errorf("%w: read body: %v", domain.ErrNetwork, err)
	}

	var result domain.SubscriptionResult
	if err := json.Unmarshal(body, &result); err != nil || result.Message == "" {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return domain.SubscriptionResult{}, fmt.Errorf("%w: status %d", domain.ErrNetwork, resp.StatusCode)
		}
		if err == nil {
			err = errors.New("missing message")
		}
		return domain.SubscriptionResult{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return result, nil
}
