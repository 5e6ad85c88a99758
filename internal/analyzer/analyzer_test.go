package analyzer

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenest/greenest-go/internal/errors"
)

const testEndpoint = "https://analyzer.example.com/analyze_tray"

func newMockedClient(t *testing.T, timeout time.Duration) *Client {
	t.Helper()
	c := New(testEndpoint, timeout)
	httpmock.ActivateNonDefault(c.http.HTTPClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestAnalyzeSuccess(t *testing.T) {
	c := newMockedClient(t, 5*time.Second)

	httpmock.RegisterResponder(http.MethodPost, testEndpoint,
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
			"tray_name":      "wrong-name-from-service",
			"growth_percent": 77.2,
			"health":         8.4,
			"notes":          "even growth",
		}))

	result, err := c.Analyze(context.Background(), "https://files.example.com/img.jpg", "Tray-A1")
	require.NoError(t, err)

	// Caption-derived tray name overrides whatever the service echoed.
	assert.Equal(t, "Tray-A1", result["tray_name"])
	assert.InDelta(t, 77.2, result["growth_percent"], 0.001)
}

func TestAnalyzeServiceError(t *testing.T) {
	c := newMockedClient(t, 5*time.Second)

	httpmock.RegisterResponder(http.MethodPost, testEndpoint,
		httpmock.NewStringResponder(http.StatusBadGateway, "upstream model unavailable"))

	_, err := c.Analyze(context.Background(), "https://files.example.com/img.jpg", "Tray-A1")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryAnalyzer))
}

func TestAnalyzeTimeout(t *testing.T) {
	c := newMockedClient(t, 50*time.Millisecond)

	httpmock.RegisterResponder(http.MethodPost, testEndpoint,
		func(req *http.Request) (*http.Response, error) {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(2 * time.Second):
				return httpmock.NewStringResponse(http.StatusOK, "{}"), nil
			}
		})

	_, err := c.Analyze(context.Background(), "https://files.example.com/img.jpg", "Tray-A1")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryTimeout))
}

func TestAnalyzeStubWithoutEndpoint(t *testing.T) {
	t.Parallel()

	c := New("", 0)
	result, err := c.Analyze(context.Background(), "ignored", "Tray-B2")
	require.NoError(t, err)

	assert.Equal(t, "Tray-B2", result["tray_name"])
	assert.NotEmpty(t, result["recommended_action"])
}

func TestFallbackShape(t *testing.T) {
	t.Parallel()

	fb := Fallback("Tray-C3")
	assert.Equal(t, "Tray-C3", fb["tray_name"])
	assert.Equal(t, "Check manually", fb["recommended_action"])
	assert.Equal(t, "Analysis failed", fb["notes"])
}
