package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockedClient(t *testing.T) *Client {
	t.Helper()
	c := New("test-token", "")
	httpmock.ActivateNonDefault(c.http.HTTPClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestFileURL(t *testing.T) {
	c := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodGet,
		"https://api.telegram.org/bottest-token/getFile",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
			"ok": true,
			"result": map[string]any{
				"file_id":   "abc123",
				"file_path": "photos/file_42.jpg",
			},
		}))

	u, err := c.FileURL(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "https://api.telegram.org/file/bottest-token/photos/file_42.jpg", u)
}

func TestFileURLRejected(t *testing.T) {
	c := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodGet,
		"https://api.telegram.org/bottest-token/getFile",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
			"ok":          false,
			"description": "file not found",
		}))

	_, err := c.FileURL(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestSendMessage(t *testing.T) {
	c := newMockedClient(t)

	var captured sendMessageRequest
	httpmock.RegisterResponder(http.MethodPost,
		"https://api.telegram.org/bottest-token/sendMessage",
		func(req *http.Request) (*http.Response, error) {
			if err := json.NewDecoder(req.Body).Decode(&captured); err != nil {
				return nil, err
			}
			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{"ok": true})
		})

	err := c.SendMessage(context.Background(), 4242, "tray update")
	require.NoError(t, err)
	assert.Equal(t, int64(4242), captured.ChatID)
	assert.Equal(t, "tray update", captured.Text)
	assert.Equal(t, "Markdown", captured.ParseMode)
}

func TestSendMessageErrorStatus(t *testing.T) {
	c := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodPost,
		"https://api.telegram.org/bottest-token/sendMessage",
		httpmock.NewStringResponder(http.StatusForbidden, `{"ok":false}`))

	err := c.SendMessage(context.Background(), 4242, "tray update")
	require.Error(t, err)
}

func TestUpdateHelpers(t *testing.T) {
	t.Parallel()

	var u Update
	require.NoError(t, json.Unmarshal([]byte(`{
		"update_id": 7,
		"message": {
			"message_id": 9,
			"chat": {"id": 1234},
			"caption": "  Tray-A1  ",
			"photo": [
				{"file_id": "small", "width": 90},
				{"file_id": "large", "width": 1280}
			]
		}
	}`), &u))

	assert.True(t, u.HasPhoto())
	assert.Equal(t, "large", u.LargestPhoto().FileID)
	assert.Equal(t, "Tray-A1", u.CaptionTrayName())
	assert.Equal(t, int64(1234), u.ChatID())
	assert.False(t, u.IsSummaryCommand())

	text := Update{Message: &Message{Text: "/summary", Chat: Chat{ID: 5}}}
	assert.True(t, text.IsSummaryCommand())
	assert.False(t, text.HasPhoto())

	empty := Update{}
	assert.False(t, empty.HasPhoto())
	assert.Equal(t, int64(0), empty.ChatID())
	assert.Equal(t, "", empty.CaptionTrayName())
}
