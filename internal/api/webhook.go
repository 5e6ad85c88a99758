package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	cache "github.com/patrickmn/go-cache"

	"github.com/greenest/greenest-go/internal/telegram"
)

// WebhookResponse acknowledges a bot update. The bot provider retries
// deliveries that do not get a 200, so every handled update, rejections
// included, answers 200.
type WebhookResponse struct {
	Status string `json:"status"`
	Tray   string `json:"tray,omitempty"`
}

// Webhook handles POST /webhook, the bot transport push endpoint.
// Redelivered updates (provider retries, double deliveries) are
// acknowledged without reprocessing via a TTL dedupe cache keyed by
// update_id.
func (c *Controller) Webhook(ctx echo.Context) error {
	var update telegram.Update
	if err := ctx.Bind(&update); err != nil {
		return c.HandleError(ctx, err, "request body is not a bot update", http.StatusBadRequest)
	}

	if update.UpdateID != 0 {
		key := strconv.FormatInt(update.UpdateID, 10)
		if err := c.dedupe.Add(key, struct{}{}, cache.DefaultExpiration); err != nil {
			if c.metrics != nil {
				c.metrics.WebhookDuplicatesTotal.Inc()
			}
			c.apiLogger.Debug("duplicate webhook update acknowledged", "update_id", update.UpdateID)
			return ctx.JSON(http.StatusOK, &WebhookResponse{Status: "duplicate"})
		}
	}

	res := c.pipeline.ProcessUpdate(ctx.Request().Context(), &update)
	return ctx.JSON(http.StatusOK, &WebhookResponse{
		Status: string(res.Status),
		Tray:   res.Tray,
	})
}
