// Package api exposes the HTTP surface: the direct push endpoints, the bot
// webhook, the protected summary trigger, the relay front door and the
// liveness and metrics probes.
package api

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	cache "github.com/patrickmn/go-cache"

	"github.com/greenest/greenest-go/internal/conf"
	"github.com/greenest/greenest-go/internal/httpclient"
	"github.com/greenest/greenest-go/internal/ingest"
	"github.com/greenest/greenest-go/internal/logging"
	"github.com/greenest/greenest-go/internal/observability"
)

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Settings *conf.Settings

	pipeline  *ingest.Pipeline
	metrics   *observability.Metrics
	relayHTTP *httpclient.Client
	dedupe    *cache.Cache // webhook update_id dedupe
	apiLogger *slog.Logger
}

// New creates the controller and registers all routes.
func New(settings *conf.Settings, pipeline *ingest.Pipeline, metrics *observability.Metrics) *Controller {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	c := &Controller{
		Echo:     e,
		Settings: settings,
		pipeline: pipeline,
		metrics:  metrics,
		relayHTTP: httpclient.New(&httpclient.Config{
			DefaultTimeout: settings.RelayTimeout(),
		}),
		dedupe:    cache.New(settings.DedupeTTL(), 2*settings.DedupeTTL()),
		apiLogger: logging.ForService("api"),
	}

	c.initRoutes()
	return c
}

// initRoutes registers all endpoints.
func (c *Controller) initRoutes() {
	c.Echo.GET("/", c.Liveness)
	c.Echo.POST("/push_tray_data", c.PushTrayData)
	c.Echo.POST("/push_data", c.PushTrayData) // legacy alias
	c.Echo.POST("/webhook", c.Webhook)
	c.Echo.POST("/trigger_summary", c.TriggerSummary)
	c.Echo.POST("/relay", c.Relay)

	if c.metrics != nil {
		c.Echo.GET("/metrics", echo.WrapHandler(c.metrics.Handler()))
	}
}

// Start begins serving on the configured address. Blocks until shutdown.
func (c *Controller) Start() error {
	addr := fmt.Sprintf("%s:%d", c.Settings.Server.Host, c.Settings.Server.Port)
	c.apiLogger.Info("http server starting", "addr", addr)
	return c.Echo.Start(addr)
}

// Shutdown stops the HTTP server, waiting for in-flight requests up to
// the context deadline.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.apiLogger.Info("http server stopping")
	return c.Echo.Shutdown(ctx)
}

// Liveness is the health probe.
func (c *Controller) Liveness(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{
		"message": "✅ GreeNest tracker is running",
	})
}

// ErrorResponse is the JSON error body. Status is always "failed" so the
// direct-push contract holds; the correlation id ties the response to the
// server-side log line.
type ErrorResponse struct {
	Status        string `json:"status"`
	Error         string `json:"error"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// HandleError logs the failure with a correlation id and returns the
// uniform error body.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	correlationID := generateCorrelationID()

	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}

	c.apiLogger.Error("request failed",
		"correlation_id", correlationID,
		"message", message,
		"error", errorStr,
		"code", code,
		"path", ctx.Request().URL.Path,
		"method", ctx.Request().Method,
		"ip", ctx.RealIP(),
	)

	return ctx.JSON(code, &ErrorResponse{
		Status:        "failed",
		Error:         errorStr,
		Code:          code,
		CorrelationID: correlationID,
	})
}

// generateCorrelationID creates a short random identifier for error tracking.
func generateCorrelationID() string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "ERR-RAND"
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}
