package handler

import (
	"net/http"
	"time"

	"pricecast/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type Handler struct {
	tracer              trace.Tracer
	forecastService     *service.ForecastService
	subscriptionService *service.SubscriptionService
}

func New(
	tracer trace.Tracer,
	forecastService *service.ForecastService,
	subscriptionService *service.SubscriptionService,
) *Handler {
	return &Handler{
		tracer:              tracer,
		forecastService:     forecastService,
		subscriptionService: subscriptionService,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/forecast_next_week", h.GetForecastNextWeek)
	r.GET("/forecast_next_week/insight", h.GetForecastInsight)
	r.GET("/forecast_next_week/chart", h.GetForecastChart)
	r.POST("/subscribe", h.Subscribe)
}

// Health godoc
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CORSMiddleware lets the product page call the API from another origin.
// A "*" entry allows every origin.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			break
		}
	}
	if !cfg.AllowAllOrigins {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
