package handler

import (
	"errors"
	"net/http"
	"strconv"

	"pricecast/internal/domain"
	"pricecast/internal/service"

	"github.com/gin-gonic/gin"
)

// subscribeRequest accepts numbers either as JSON numbers or as strings;
// the page posts desired_price exactly as typed.
type subscribeRequest struct {
	PhoneNumber  string `json:"phone_number"`
	DesiredPrice any    `json:"desired_price"`
	Description  string `json:"description"`
	CurrentPrice any    `json:"current_price"`
	URL          string `json:"url"`
}

// Subscribe godoc
// @Summary      Subscribe to a price drop alert
// @Description  Stores a Telegram alert request for when the price reaches the desired price
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        request  body      domain.SubscriptionRequest  true  "Subscription request"
// @Success      200      {object}  domain.SubscriptionResult
// @Failure      400      {object}  domain.SubscriptionResult
// @Failure      500      {object}  domain.SubscriptionResult
// @Router       /subscribe [post]
func (h *Handler) Subscribe(c *gin.Context) {
	if h.subscriptionService == nil {
		c.JSON(http.StatusServiceUnavailable, domain.SubscriptionResult{Status: "error", Message: "subscription service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.subscribe")
	defer span.End()

	// An unreadable body is treated like an empty one and fails validation.
	var req subscribeRequest
	_ = c.ShouldBindJSON(&req)

	_, err := h.subscriptionService.Subscribe(ctx, service.SubscribeInput{
		PhoneNumber:  req.PhoneNumber,
		DesiredPrice: scalarText(req.DesiredPrice),
		Description:  req.Description,
		CurrentPrice: scalarText(req.CurrentPrice),
		URL:          req.URL,
	})
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, domain.SubscriptionResult{Status: "error", Message: verr.Message})
			return
		}
		c.JSON(http.StatusInternalServerError, domain.SubscriptionResult{Status: "error", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, domain.SubscriptionResult{Status: "ok", Message: service.SubscribeAckMessage})
}

func scalarText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return "?"
	}
}
