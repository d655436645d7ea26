package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"pricecast/internal/domain"
	"pricecast/internal/insight"
	"pricecast/internal/repository"
	"pricecast/internal/service"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/trace"
)

var testProduct = domain.Product{
	ModelID:     "1226219",
	Description: "Samsung UE55DU7100 4K 55 inch TV",
	URL:         "https://example.test/tv",
}

type stubForecastService struct {
	series  domain.ForecastSeries
	current domain.PricePoint
	err     error
}

func (s *stubForecastService) Analyze(ctx context.Context) (domain.ForecastSeries, insight.Analysis, error) {
	if s.err != nil {
		return nil, insight.Analysis{}, s.err
	}
	analysis, err := insight.Derive(s.series)
	if err != nil {
		return nil, insight.Analysis{}, err
	}
	return append(domain.ForecastSeries(nil), s.series...), analysis, nil
}

func (s *stubForecastService) CurrentPrice(ctx context.Context) (domain.PricePoint, error) {
	return s.current, s.err
}

func testServer() (*sdkmcp.Server, *stubForecastService, *repository.MemorySubscriptionRepository) {
	return testServerWithConfig(ServerConfig{RequestTimeout: time.Second})
}

func testServerWithConfig(cfg ServerConfig) (*sdkmcp.Server, *stubForecastService, *repository.MemorySubscriptionRepository) {
	forecasts := &stubForecastService{
		series: domain.ForecastSeries{
			{Date: "08 Jul 2025", Price: 1500},
			{Date: "09 Jul 2025", Price: 1480},
			{Date: "10 Jul 2025", Price: 1450},
			{Date: "11 Jul 2025", Price: 1470},
		},
		current: domain.PricePoint{Date: time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC), Price: 1499},
	}
	store := repository.NewMemorySubscriptionRepository(nil)
	tracer := trace.NewNoopTracerProvider().Tracer("mcp-test")
	subscriptions := service.NewSubscriptionService(tracer, store, forecasts, testProduct)

	srv := NewServer(nil, forecasts, subscriptions, cfg)
	return srv, forecasts, store
}

func connectInMemory(ctx context.Context, srv *sdkmcp.Server) (*sdkmcp.ClientSession, context.CancelFunc, error) {
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = srv.Run(runCtx, serverTransport) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return session, cancel, nil
}

type authRoundTripper struct {
	token string
	base  http.RoundTripper
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.token != "" {
		clone.Header.Set("Authorization", "Bearer "+t.token)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

func decodeResourceJSON(result *sdkmcp.ReadResourceResult, out any) error {
	if len(result.Contents) == 0 {
		return nil
	}
	return json.Unmarshal([]byte(result.Contents[0].Text), out)
}

func decodeStructured(result *sdkmcp.CallToolResult, out any) error {
	body, err := json.Marshal(result.StructuredContent)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}
