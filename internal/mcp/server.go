package mcp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultRequestTimeout = 5 * time.Second
	subscribeToolName     = "subscribe"
)

// ServerConfig tunes the MCP server. SubscribeLimitPerMin caps subscribe
// tool calls per session, independently of the read-only tools.
type ServerConfig struct {
	RequestTimeout       time.Duration
	SubscribeLimitPerMin int

	now func() time.Time
}

func NewServer(tracer trace.Tracer, forecasts ForecastReader, subscriptions Subscriber, cfg ServerConfig) *sdkmcp.Server {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	now := cfg.now
	if now == nil {
		now = time.Now
	}

	srv := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "pricecast-mcp",
		Version: "1.0.0",
	}, &sdkmcp.ServerOptions{
		Instructions: "Read the week-ahead price forecast and its buy or wait advice, " +
			"or subscribe a phone number to a price drop alert.",
		Logger: slog.Default(),
	})

	srv.AddReceivingMiddleware(
		withTimeout(timeout),
		limitSubscribe(newRateLimiter(cfg.SubscribeLimitPerMin, defaultSubscribeCallsPerMin, now)),
	)
	if tracer != nil {
		srv.AddReceivingMiddleware(withSpan(tracer))
	}

	registerTools(srv, forecasts, subscriptions)
	registerResources(srv, forecasts, subscriptions)
	return srv
}

// NewHTTPTransportHandler serves the streamable HTTP transport behind the
// bearer token, the per-address rate limit and the body limit.
func NewHTTPTransportHandler(server *sdkmcp.Server, cfg HTTPHandlerConfig) http.Handler {
	base := sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return server
	}, &sdkmcp.StreamableHTTPOptions{})
	return wrapHTTPHandler(base, cfg)
}

func withTimeout(timeout time.Duration) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next(ctx, method, req)
		}
	}
}

// limitSubscribe answers over-limit subscribe calls with a tool error so the
// caller sees the reason; other methods pass through untouched.
func limitSubscribe(limiter *rateLimiter) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			call, ok := req.(*sdkmcp.CallToolRequest)
			if !ok || strings.TrimSpace(call.Params.Name) != subscribeToolName {
				return next(ctx, method, req)
			}
			session := ""
			if call.Session != nil {
				session = call.Session.ID()
			}
			if !limiter.Allow(session) {
				return &sdkmcp.CallToolResult{
					IsError: true,
					Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: "too many subscribe requests, try again in a minute"}},
				}, nil
			}
			return next(ctx, method, req)
		}
	}
}

func withSpan(tracer trace.Tracer) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			kind, target := requestTarget(req)
			name := "mcp." + strings.ReplaceAll(method, "/", ".")
			if kind == "tool" && target != "" {
				name = "mcp.tool." + target
			}

			ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attribute.String("mcp.method", method)))
			defer span.End()
			if target != "" {
				span.SetAttributes(attribute.String("mcp."+kind, target))
			}

			result, err := next(ctx, method, req)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else if tool, ok := result.(*sdkmcp.CallToolResult); ok && tool != nil && tool.IsError {
				span.SetStatus(codes.Error, "tool error")
			}
			return result, err
		}
	}
}

// requestTarget names the tool or resource a request addresses.
func requestTarget(req sdkmcp.Request) (kind, target string) {
	switch r := req.(type) {
	case *sdkmcp.CallToolRequest:
		return "tool", strings.TrimSpace(r.Params.Name)
	case *sdkmcp.ReadResourceRequest:
		return "resource", strings.TrimSpace(r.Params.URI)
	}
	return "", ""
}
