package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// RelayResponse wraps the downstream backend's answer. The payload and the
// backend response pass through unmodified; the relay adds nothing but the
// envelope.
type RelayResponse struct {
	Status            string          `json:"status"`
	Payload           json.RawMessage `json:"payload"`
	BackendStatusCode int             `json:"backend_status_code"`
	BackendResponse   string          `json:"backend_response"`
}

// statusClass buckets an HTTP status code for the forward counter.
func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

// Relay handles POST /relay: a transparent pass-through to the configured
// backend's direct-push endpoint. This is a forwarding front door, not a
// second normalization path.
func (c *Controller) Relay(ctx echo.Context) error {
	if c.Settings.Relay.BackendURL == "" {
		return c.HandleError(ctx, nil, "relay backend URL is not configured", http.StatusInternalServerError)
	}

	payload, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return c.HandleError(ctx, err, "failed to read relay payload", http.StatusBadRequest)
	}
	// Checked before forwarding: the wrapper echoes the payload as raw
	// JSON, so a non-JSON body would break the response after the backend
	// already received the forward.
	if !json.Valid(payload) {
		return c.HandleError(ctx, nil, "relay payload is not valid JSON", http.StatusBadRequest)
	}

	resp, err := c.relayHTTP.Post(ctx.Request().Context(), c.Settings.Relay.BackendURL, "application/json", payload)
	if err != nil {
		return c.HandleError(ctx, err, "relay backend unreachable", http.StatusBadGateway)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.HandleError(ctx, err, "failed to read backend response", http.StatusBadGateway)
	}

	if c.metrics != nil {
		c.metrics.RelayForwardsTotal.WithLabelValues(statusClass(resp.StatusCode)).Inc()
	}

	c.apiLogger.Info("relay forwarded",
		"backend_status", resp.StatusCode,
		"payload_bytes", len(payload))

	return ctx.JSON(http.StatusOK, &RelayResponse{
		Status:            "forwarded",
		Payload:           json.RawMessage(payload),
		BackendStatusCode: resp.StatusCode,
		BackendResponse:   string(body),
	})
}
