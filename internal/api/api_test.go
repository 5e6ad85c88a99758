package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenest/greenest-go/internal/conf"
	"github.com/greenest/greenest-go/internal/ingest"
	"github.com/greenest/greenest-go/internal/notify"
	"github.com/greenest/greenest-go/internal/record"
	"github.com/greenest/greenest-go/internal/sheetstore"
)

type stubBot struct {
	sent []string
}

func (s *stubBot) FileURL(_ context.Context, fileID string) (string, error) {
	return "https://files.example.com/" + fileID, nil
}

func (s *stubBot) SendMessage(_ context.Context, _ int64, text string) error {
	s.sent = append(s.sent, text)
	return nil
}

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(_ context.Context, _, trayName string) (map[string]any, error) {
	return map[string]any{"tray_name": trayName, "growth_percent": 71.5}, nil
}

func testSettings() *conf.Settings {
	s := &conf.Settings{}
	s.Server.Port = 10000
	s.Trigger.Secret = "sekrit"
	s.Relay.BackendURL = "https://backend.example.com/push_tray_data"
	return s
}

func newTestController(t *testing.T, store sheetstore.Store) (*Controller, *stubBot) {
	t.Helper()

	bot := &stubBot{}
	pipeline := ingest.New(store, notify.New(bot),
		ingest.WithBot(bot),
		ingest.WithAnalyzer(stubAnalyzer{}),
		ingest.WithClock(func() time.Time {
			return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
		}),
	)
	return New(testSettings(), pipeline, nil), bot
}

func doJSON(c *Controller, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)
	return rec
}

func TestLiveness(t *testing.T) {
	t.Parallel()

	c, _ := newTestController(t, sheetstore.NewMemStore())
	rec := doJSON(c, http.MethodGet, "/", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "running")
}

func TestPushTrayData(t *testing.T) {
	t.Parallel()

	store := sheetstore.NewMemStore()
	c, _ := newTestController(t, store)

	rec := doJSON(c, http.MethodPost, "/push_tray_data",
		`{"tray_name":"Tray-A1","growth":55,"health_score":8.2}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp PushResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	require.Len(t, resp.Row, 12)
	assert.Equal(t, "Tray-A1", resp.Row[0])
	assert.Equal(t, "55", resp.Row[2], "legacy growth spelling normalized")
	assert.Equal(t, "8.2", resp.Row[3], "legacy health_score spelling normalized")

	grid := store.Grid()
	require.Len(t, grid, 2)
	assert.Equal(t, record.HeaderTitles, grid[0])
}

func TestPushDataAlias(t *testing.T) {
	t.Parallel()

	store := sheetstore.NewMemStore()
	c, _ := newTestController(t, store)

	rec := doJSON(c, http.MethodPost, "/push_data", `{"tray_name":"Tray-B2"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, store.Grid(), 2)
}

func TestPushTrayDataStoreFailure(t *testing.T) {
	t.Parallel()

	store := sheetstore.NewMemStore()
	store.FailAppend = fmt.Errorf("append rejected")
	c, _ := newTestController(t, store)

	rec := doJSON(c, http.MethodPost, "/push_tray_data", `{"tray_name":"Tray-C3"}`, nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp.Status)
	assert.Contains(t, resp.Error, "append rejected")
	assert.Len(t, resp.CorrelationID, 8)
}

func TestPushTrayDataMalformedBody(t *testing.T) {
	t.Parallel()

	c, _ := newTestController(t, sheetstore.NewMemStore())
	rec := doJSON(c, http.MethodPost, "/push_tray_data", `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookImageFlow(t *testing.T) {
	t.Parallel()

	store := sheetstore.NewMemStore()
	c, bot := newTestController(t, store)

	rec := doJSON(c, http.MethodPost, "/webhook", `{
		"update_id": 101,
		"message": {
			"chat": {"id": 555},
			"caption": "Tray-D4",
			"photo": [{"file_id": "f1", "width": 90}, {"file_id": "f2", "width": 1280}]
		}
	}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp WebhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "image_processed", resp.Status)
	assert.Equal(t, "Tray-D4", resp.Tray)

	require.Len(t, store.Grid(), 2)
	require.NotEmpty(t, bot.sent)
	assert.Contains(t, bot.sent[len(bot.sent)-1], "`Tray-D4`")
}

func TestWebhookMissingCaptionNoAppend(t *testing.T) {
	t.Parallel()

	store := sheetstore.NewMemStore()
	c, _ := newTestController(t, store)

	rec := doJSON(c, http.MethodPost, "/webhook", `{
		"update_id": 102,
		"message": {
			"chat": {"id": 555},
			"photo": [{"file_id": "f1", "width": 90}]
		}
	}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp WebhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "missing_caption", resp.Status)
	assert.Empty(t, store.Grid(), "zero store appends")
}

func TestWebhookDuplicateAcknowledged(t *testing.T) {
	t.Parallel()

	store := sheetstore.NewMemStore()
	c, _ := newTestController(t, store)

	body := `{
		"update_id": 103,
		"message": {
			"chat": {"id": 555},
			"caption": "Tray-E5",
			"photo": [{"file_id": "f1", "width": 1280}]
		}
	}`

	first := doJSON(c, http.MethodPost, "/webhook", body, nil)
	require.Equal(t, http.StatusOK, first.Code)
	require.Len(t, store.Grid(), 2)

	second := doJSON(c, http.MethodPost, "/webhook", body, nil)
	require.Equal(t, http.StatusOK, second.Code)

	var resp WebhookResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.Equal(t, "duplicate", resp.Status)
	assert.Len(t, store.Grid(), 2, "redelivery must not append a second row")
}

func TestTriggerSummaryAuth(t *testing.T) {
	t.Parallel()

	store := sheetstore.NewMemStore()
	c, _ := newTestController(t, store)

	// no header
	rec := doJSON(c, http.MethodPost, "/trigger_summary", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// wrong token
	rec = doJSON(c, http.MethodPost, "/trigger_summary", "",
		map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTriggerSummaryClosedWithoutSecret(t *testing.T) {
	t.Parallel()

	store := sheetstore.NewMemStore()
	pipeline := ingest.New(store, notify.New(&stubBot{}))
	settings := testSettings()
	settings.Trigger.Secret = ""
	c := New(settings, pipeline, nil)

	// With no secret configured the endpoint stays closed, even for a
	// bearer token that trivially matches the empty string.
	rec := doJSON(c, http.MethodPost, "/trigger_summary", "",
		map[string]string{"Authorization": "Bearer "})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(c, http.MethodPost, "/trigger_summary", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTriggerSummaryDelivers(t *testing.T) {
	t.Parallel()

	store := sheetstore.NewMemStore()
	c, _ := newTestController(t, store)

	// seed one row through the push endpoint
	doJSON(c, http.MethodPost, "/push_tray_data", `{"tray_name":"Tray-F6","growth_percent":90}`, nil)

	rec := doJSON(c, http.MethodPost, "/trigger_summary", "",
		map[string]string{"Authorization": "Bearer sekrit"})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp TriggerSummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "summary_sent", resp.Status)
	assert.Contains(t, resp.Summary, "`Tray-F6`")
}

func TestRelayPassThrough(t *testing.T) {
	store := sheetstore.NewMemStore()
	c, _ := newTestController(t, store)

	httpmock.ActivateNonDefault(c.relayHTTP.HTTPClient())
	t.Cleanup(httpmock.DeactivateAndReset)

	var forwarded []byte
	httpmock.RegisterResponder(http.MethodPost, "https://backend.example.com/push_tray_data",
		func(req *http.Request) (*http.Response, error) {
			body, err := io.ReadAll(req.Body)
			if err != nil {
				return nil, err
			}
			forwarded = body
			return httpmock.NewStringResponse(http.StatusAccepted, "ok"), nil
		})

	payload := `{"tray_name":"Tray-G7","growth_percent":42}`
	rec := doJSON(c, http.MethodPost, "/relay", payload, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp RelayResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "forwarded", resp.Status)
	assert.Equal(t, http.StatusAccepted, resp.BackendStatusCode)
	assert.Equal(t, "ok", resp.BackendResponse)
	assert.JSONEq(t, payload, string(resp.Payload), "payload echoed unmodified")
	assert.JSONEq(t, payload, string(forwarded), "payload forwarded verbatim")

	// the relaying instance itself stores nothing
	assert.Empty(t, store.Grid())
}

func TestRelayRejectsNonJSONBeforeForwarding(t *testing.T) {
	store := sheetstore.NewMemStore()
	c, _ := newTestController(t, store)

	httpmock.ActivateNonDefault(c.relayHTTP.HTTPClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	httpmock.RegisterResponder(http.MethodPost, "https://backend.example.com/push_tray_data",
		httpmock.NewStringResponder(http.StatusOK, "ok"))

	rec := doJSON(c, http.MethodPost, "/relay", `{not json`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, httpmock.GetTotalCallCount(), "invalid payload must not reach the backend")
}

func TestRelayWithoutBackendConfigured(t *testing.T) {
	t.Parallel()

	store := sheetstore.NewMemStore()
	bot := &stubBot{}
	pipeline := ingest.New(store, notify.New(bot))
	settings := testSettings()
	settings.Relay.BackendURL = ""
	c := New(settings, pipeline, nil)

	rec := doJSON(c, http.MethodPost, "/relay", `{}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestBearerMatches(t *testing.T) {
	t.Parallel()

	assert.True(t, bearerMatches("Bearer sekrit", "sekrit"))
	assert.False(t, bearerMatches("Bearer sekrit2", "sekrit"))
	assert.False(t, bearerMatches("sekrit", "sekrit"))
	assert.False(t, bearerMatches("", "sekrit"))
}
