package handler

import (
	"errors"
	"net/http"

	"pricecast/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const notEnoughDataMessage = "Not enough data to forecast"

type insightResponse struct {
	MinIdx         int                   `json:"min_idx"`
	MaxIdx         int                   `json:"max_idx"`
	Recommendation domain.Recommendation `json:"recommendation"`
	DropPercent    *float64              `json:"drop_percent"`
	DayGap         int                   `json:"day_gap"`
	Message        string                `json:"message"`
}

// GetForecastNextWeek godoc
// @Summary      Week-ahead price forecast
// @Description  Returns the predicted daily prices for the next seven days
// @Tags         forecast
// @Produce      json
// @Success      200  {array}   domain.ForecastPoint
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /forecast_next_week [get]
func (h *Handler) GetForecastNextWeek(c *gin.Context) {
	if h.forecastService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "forecast service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-forecast-next-week")
	defer span.End()

	series, err := h.forecastService.NextWeek(ctx)
	if err != nil {
		writeForecastError(c, err)
		return
	}
	span.SetAttributes(attribute.Int("points", len(series)))
	c.JSON(http.StatusOK, series)
}

// GetForecastInsight godoc
// @Summary      Buy or wait recommendation
// @Description  Derives the recommendation and the extremum indices from the forecast
// @Tags         forecast
// @Produce      json
// @Success      200  {object}  handler.insightResponse
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /forecast_next_week/insight [get]
func (h *Handler) GetForecastInsight(c *gin.Context) {
	if h.forecastService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "forecast service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-forecast-insight")
	defer span.End()

	_, analysis, err := h.forecastService.Analyze(ctx)
	if err != nil {
		writeForecastError(c, err)
		return
	}

	resp := insightResponse{
		MinIdx:         analysis.MinIdx,
		MaxIdx:         analysis.MaxIdx,
		Recommendation: analysis.Insight.Recommendation,
		DayGap:         analysis.Insight.DayGap,
		Message:        analysis.Insight.Message(),
	}
	// encoding/json cannot represent NaN; a zero highest price reports null.
	if analysis.Insight.HasMeaningfulDrop() {
		drop := analysis.Insight.DropPercent
		resp.DropPercent = &drop
	}
	span.SetAttributes(attribute.String("recommendation", string(resp.Recommendation)))
	c.JSON(http.StatusOK, resp)
}

// GetForecastChart godoc
// @Summary      Forecast chart
// @Description  Returns the forecast as a PNG line chart with the minimum and maximum highlighted
// @Tags         forecast
// @Produce      png
// @Success      200  {file}  binary
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /forecast_next_week/chart [get]
func (h *Handler) GetForecastChart(c *gin.Context) {
	if h.forecastService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "forecast service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-forecast-chart")
	defer span.End()

	img, _, err := h.forecastService.Chart(ctx)
	if err != nil {
		writeForecastError(c, err)
		return
	}
	c.Data(http.StatusOK, img.MimeType, img.Bytes)
}

func writeForecastError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotEnoughData):
		c.JSON(http.StatusBadRequest, gin.H{"error": notEnoughDataMessage})
	case errors.Is(err, domain.ErrEmptySeries):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
