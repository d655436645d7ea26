package main

import (
	"context"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"pricecast/internal/bot"
	"pricecast/internal/cache"
	"pricecast/internal/chart"
	"pricecast/internal/config"
	"pricecast/internal/db"
	"pricecast/internal/forecast"
	"pricecast/internal/handler"
	"pricecast/internal/job"
	"pricecast/internal/repository"
	"pricecast/internal/service"
	"pricecast/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "pricecast/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	openStoresFunc         = repository.OpenStores
	startTelegramBotFunc   = bot.StartTelegramBot
	newAlertPollerFunc     = job.NewAlertPoller
	startAlertPollerFunc   = func(p *job.AlertPoller, ctx context.Context) { go p.Start(ctx) }
	newForecastWarmerFunc  = job.NewForecastWarmer
	startWarmerFunc        = startWarmer
	newRouterFunc          = gin.Default
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           pricecast API
// @version         1.0
// @description     Week-ahead price forecast and price drop alerts for a tracked product.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis
	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	defer db.Close()
	initRedisFunc(ctx)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	history, subscriptions, err := openStoresFunc(ctx, db.Pool, cfg.DatasetPath, tracer)
	if err != nil {
		log.Fatalf("failed to prepare storage: %v", err)
	}

	forecastCache := cache.NewForecastCache(cache.Client, time.Duration(cfg.ForecastCacheTTLSecs)*time.Second)
	model := forecast.New(cfg.ForecastLag, cfg.ForecastHorizon)
	forecastService := service.NewForecastService(tracer, history, model, forecastCache, chart.NewRenderer())
	subscriptionService := service.NewSubscriptionService(tracer, subscriptions, forecastService, cfg.Product())

	// Start Telegram bot
	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	notifier := startTelegramBotFunc(forecastService, cfg.Product(), cfg.TelegramChatID)

	// Start background jobs (stopped by ctx cancel)
	alertService := service.NewAlertService(tracer, subscriptions, forecastService, notifier)
	poller := newAlertPollerFunc(tracer, alertService, cfg.AlertPollSecs)
	startAlertPollerFunc(poller, ctx)
	warmer := newForecastWarmerFunc(tracer, forecastService, cfg.ForecastWarmCron)
	startWarmerFunc(warmer, ctx)

	// Create handlers and routes
	os.Setenv("PORT", cfg.Port)
	h := handler.New(tracer, forecastService, subscriptionService)

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName))
	r.Use(handler.CORSMiddleware(cfg.CORSAllowedOrigins))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    httpAddrFromEnv(),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

func httpAddrFromEnv() string {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		return ":8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func startWarmer(w *job.ForecastWarmer, ctx context.Context) {
	go func() {
		if err := w.Start(ctx); err != nil {
			log.Printf("forecast warmer stopped: %v", err)
		}
	}()
}
