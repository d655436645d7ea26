package mcp

import (
	"context"
	"errors"
	"fmt"

	"pricecast/internal/domain"
	"pricecast/internal/service"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTools(server *mcp.Server, forecasts ForecastReader, subscriptions Subscriber) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "forecast_next_week",
		Description: "Get the week-ahead price forecast with the buy or wait recommendation",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ forecastNextWeekInput) (*mcp.CallToolResult, forecastNextWeekOutput, error) {
		if forecasts == nil {
			return nil, forecastNextWeekOutput{}, fmt.Errorf("forecast service unavailable")
		}
		series, analysis, err := forecasts.Analyze(ctx)
		if err != nil {
			return nil, forecastNextWeekOutput{}, err
		}
		return nil, newForecastOutput(series, analysis), nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "current_price",
		Description: "Get the latest observed price of the tracked product",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ currentPriceInput) (*mcp.CallToolResult, currentPriceOutput, error) {
		if forecasts == nil {
			return nil, currentPriceOutput{}, fmt.Errorf("forecast service unavailable")
		}
		point, err := forecasts.CurrentPrice(ctx)
		if err != nil {
			return nil, currentPriceOutput{}, err
		}
		return nil, currentPriceOutput{
			Date:  point.Date.Format(domain.ForecastDateLayout),
			Price: point.Price,
		}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "subscribe",
		Description: "Subscribe a phone number to a Telegram alert when the price drops to the desired price",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in subscribeInput) (*mcp.CallToolResult, subscribeOutput, error) {
		if subscriptions == nil {
			return nil, subscribeOutput{}, fmt.Errorf("subscription service unavailable")
		}
		sub, err := subscriptions.Subscribe(ctx, service.SubscribeInput{
			PhoneNumber:  in.PhoneNumber,
			DesiredPrice: in.DesiredPrice,
			Description:  in.Description,
		})
		if err != nil {
			var verr *service.ValidationError
			if errors.As(err, &verr) {
				return nil, subscribeOutput{}, errors.New(verr.Message)
			}
			return nil, subscribeOutput{}, err
		}
		return nil, subscribeOutput{
			Status:         "ok",
			Message:        service.SubscribeAckMessage,
			SubscriptionID: sub.ID,
		}, nil
	})
}
