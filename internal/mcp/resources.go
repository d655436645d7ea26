package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerResources(server *mcp.Server, forecasts ForecastReader, subscriptions Subscriber) {
	server.AddResource(&mcp.Resource{
		URI:         "product://info",
		Name:        "product-info",
		Description: "Model id, description and shop link of the tracked product",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		_ = ctx
		if subscriptions == nil {
			return nil, fmt.Errorf("subscription service unavailable")
		}
		return jsonResource(req.Params.URI, subscriptions.Product())
	})

	server.AddResource(&mcp.Resource{
		URI:         "forecast://next-week",
		Name:        "forecast-next-week",
		Description: "Week-ahead forecast with extremum indices and recommendation",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if forecasts == nil {
			return nil, fmt.Errorf("forecast service unavailable")
		}
		series, analysis, err := forecasts.Analyze(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, newForecastOutput(series, analysis))
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "forecast://day/{index}",
		Name:        "forecast-day",
		Description: "One forecast point by day offset, 0 being tomorrow",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if forecasts == nil {
			return nil, fmt.Errorf("forecast service unavailable")
		}

		parsed, err := url.Parse(req.Params.URI)
		if err != nil {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		if parsed.Scheme != "forecast" || parsed.Host != "day" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}

		series, _, err := forecasts.Analyze(ctx)
		if err != nil {
			return nil, err
		}
		idx, err := normalizeDayIndex(strings.Trim(parsed.Path, "/"), len(series))
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, forecastDayOutput{Index: idx, Point: series[idx]})
	})
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(body),
		}},
	}, nil
}
