// Package analyzer calls the external image analysis service that turns a
// tray photo into growth and health metrics. The service is an opaque
// collaborator: it may fail or time out, and the ingestion pipeline then
// substitutes a fallback result so the event still produces a stored row.
package analyzer

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/greenest/greenest-go/internal/errors"
	"github.com/greenest/greenest-go/internal/httpclient"
	"github.com/greenest/greenest-go/internal/logging"
)

// Request is the payload sent to the analysis service.
type Request struct {
	ImageURL string `json:"image_url"`
	TrayName string `json:"tray_name"`
}

// Client talks to the analysis service. An empty endpoint selects the
// built-in stub, which returns a fixed plausible result so the rest of the
// pipeline can run without the external service.
type Client struct {
	endpoint string
	timeout  time.Duration
	http     *httpclient.Client
	log      *slog.Logger
}

// New returns a Client for the given endpoint. A zero timeout falls back to
// the shared HTTP client default.
func New(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		timeout:  timeout,
		http:     httpclient.New(&httpclient.Config{DefaultTimeout: timeout}),
		log:      logging.ForService("analyzer"),
	}
}

// Analyze submits the image reference and returns the analysis result as a
// field map ready for normalization. The call is bounded by the configured
// timeout; timeouts and failures are classified so the caller can
// substitute the fallback record.
func (c *Client) Analyze(ctx context.Context, imageURL, trayName string) (map[string]any, error) {
	if c.endpoint == "" {
		return stubResult(trayName), nil
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.http.PostJSON(ctx, c.endpoint, Request{ImageURL: imageURL, TrayName: trayName})
	if err != nil {
		category := errors.CategoryAnalyzer
		if errors.Is(err, context.DeadlineExceeded) {
			category = errors.CategoryTimeout
		}
		return nil, errors.Newf("analysis request failed: %w", err).
			Component("analyzer").
			Category(category).
			Timing("analyze", time.Since(start)).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, errors.Newf("analysis service returned status %d: %s", resp.StatusCode, string(body)).
			Component("analyzer").
			Category(errors.CategoryAnalyzer).
			Context("status_code", resp.StatusCode).
			Build()
	}

	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.Newf("analysis response not parseable: %w", err).
			Component("analyzer").
			Category(errors.CategoryAnalyzer).
			Build()
	}

	// The analyzer does not know which tray it looked at beyond what we
	// told it; the caption-derived name is authoritative.
	result["tray_name"] = trayName

	c.log.Debug("analysis completed",
		"tray", trayName,
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// Fallback is the sentinel result substituted when analysis fails or times
// out. Ingestion must still produce a stored row and a user-visible notice.
func Fallback(trayName string) map[string]any {
	return map[string]any{
		"tray_name":          trayName,
		"notes":              "Analysis failed",
		"recommended_action": "Check manually",
	}
}

// stubResult mirrors the mock analysis used before the ML service existed.
func stubResult(trayName string) map[string]any {
	return map[string]any{
		"tray_name":          trayName,
		"seed_type":          "Chia",
		"growth_percent":     92.4,
		"health":             9.1,
		"days_since_sowing":  5,
		"est_harvest":        "In 2 days",
		"lighting_stage":     "Daylight",
		"mist_level":         "Moderate",
		"notes":              "Healthy & dense growth",
		"recommended_action": "Harvest tomorrow",
		"environment_flags":  "None",
	}
}
