package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"pricecast/internal/domain"
)

const (
	DefaultProductModelID     = "1226219"
	DefaultProductDescription = "Samsung UE55DU7100 4K 55 inch TV"
	DefaultProductURL         = "https://www.hashmalabait.co.il/product/%D7%98%D7%9C%D7%95%D7%95%D7%99%D7%96%D7%99%D7%94%2Dsamsung%2Due55du7100%2D4k%2D%E2%80%8F55%2D%E2%80%8F%D7%90%D7%99%D7%A0%D7%98%D7%A9%2D%D7%A1%D7%9E%D7%A1%D7%95%D7%A0%D7%92?aff=Zap&aff_a=1"
)

type Config struct {
	Port string

	TelegramBotToken string
	TelegramChatID   int64
	DatabaseURL      string
	RedisURL         string

	DatasetPath          string
	ForecastLag          int
	ForecastHorizon      int
	ForecastCacheTTLSecs int
	ForecastWarmCron     string
	AlertPollSecs        int

	ProductModelID     string
	ProductDescription string
	ProductURL         string

	CORSAllowedOrigins []string

	APIBaseURL        string
	ClientTimeoutSecs int

	SSHHost        string
	SSHPort        int
	SSHHostKeyPath string

	MCPTransport            string
	MCPHTTPBind             string
	MCPHTTPPort             int
	MCPAuthToken            string
	MCPRequestTimeoutSecs   int
	MCPRateLimitPerMin      int
	MCPSubscribeLimitPerMin int
}

func Load() *Config {
	cfg := &Config{
		Port:             strings.TrimSpace(os.Getenv("PORT")),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		MCPAuthToken:     os.Getenv("MCP_AUTH_TOKEN"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, price drop alerts will not be delivered")
	}
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set, subscriptions are kept in memory")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, forecast cache disabled")
	}

	if v := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TelegramChatID = n
		} else {
			log.Printf("Warning: invalid TELEGRAM_CHAT_ID=%q", v)
		}
	}

	cfg.DatasetPath = strings.TrimSpace(os.Getenv("DATASET_PATH"))
	if cfg.DatasetPath == "" {
		cfg.DatasetPath = "data/dataset.csv"
	}

	cfg.ForecastLag = positiveInt("FORECAST_LAG", 7)
	cfg.ForecastHorizon = positiveInt("FORECAST_HORIZON", 7)
	cfg.ForecastCacheTTLSecs = positiveInt("FORECAST_CACHE_TTL_SECS", 3600)
	cfg.AlertPollSecs = positiveInt("ALERT_POLL_SECS", 60)

	cfg.ForecastWarmCron = strings.TrimSpace(os.Getenv("FORECAST_WARM_CRON"))
	if cfg.ForecastWarmCron == "" {
		cfg.ForecastWarmCron = "0 5 0 * * *"
	}

	cfg.ProductModelID = stringOr("PRODUCT_MODEL_ID", DefaultProductModelID)
	cfg.ProductDescription = stringOr("PRODUCT_DESCRIPTION", DefaultProductDescription)
	cfg.ProductURL = stringOr("PRODUCT_URL", DefaultProductURL)

	cfg.CORSAllowedOrigins = parseList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	cfg.APIBaseURL = strings.TrimRight(stringOr("API_BASE_URL", "http://localhost:8080"), "/")
	cfg.ClientTimeoutSecs = positiveInt("CLIENT_TIMEOUT_SECS", 10)

	cfg.SSHHost = stringOr("SSH_HOST", "0.0.0.0")
	cfg.SSHPort = positiveInt("SSH_PORT", 2222)
	cfg.SSHHostKeyPath = stringOr("SSH_HOST_KEY_PATH", ".ssh/pricecast_ed25519")

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Printf("Warning: unsupported MCP_TRANSPORT=%q, defaulting to stdio", cfg.MCPTransport)
		cfg.MCPTransport = "stdio"
	}

	cfg.MCPHTTPBind = stringOr("MCP_HTTP_BIND", "127.0.0.1")
	cfg.MCPHTTPPort = positiveInt("MCP_HTTP_PORT", 8090)
	cfg.MCPRequestTimeoutSecs = positiveInt("MCP_REQUEST_TIMEOUT_SECS", 5)
	cfg.MCPRateLimitPerMin = positiveInt("MCP_RATE_LIMIT_PER_MIN", 60)
	cfg.MCPSubscribeLimitPerMin = positiveInt("MCP_SUBSCRIBE_LIMIT_PER_MIN", 5)

	return cfg
}

// Product is the tracked product described by the PRODUCT_* variables.
func (c *Config) Product() domain.Product {
	return domain.Product{
		ModelID:     c.ProductModelID,
		Description: c.ProductDescription,
		URL:         c.ProductURL,
	}
}

func positiveInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func stringOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
