package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// TriggerSummaryResponse reports the scheduled summary delivery.
type TriggerSummaryResponse struct {
	Status  string `json:"status"`
	Summary string `json:"summary"`
}

// TriggerSummary handles POST /trigger_summary, the endpoint an external
// scheduler hits. It requires the shared bearer secret; with no secret
// configured the endpoint stays closed.
func (c *Controller) TriggerSummary(ctx echo.Context) error {
	secret := c.Settings.Trigger.Secret
	if secret == "" || !bearerMatches(ctx.Request().Header.Get("Authorization"), secret) {
		return c.HandleError(ctx, nil, "invalid or missing bearer token", http.StatusForbidden)
	}

	text, err := c.pipeline.SendSummary(ctx.Request().Context(), 0)
	if err != nil {
		return c.HandleError(ctx, err, "failed to build summary", http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusOK, &TriggerSummaryResponse{
		Status:  "summary_sent",
		Summary: text,
	})
}

// bearerMatches compares the Authorization header against the shared
// secret in constant time.
func bearerMatches(header, secret string) bool {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	token := strings.TrimPrefix(header, prefix)
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}
