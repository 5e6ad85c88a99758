package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/greenest/greenest-go/internal/errors"
	"github.com/greenest/greenest-go/internal/httpclient"
	"github.com/greenest/greenest-go/internal/logging"
)

// DefaultAPIBase is the production bot API origin.
const DefaultAPIBase = "https://api.telegram.org"

// Client is the two-operation bot transport: resolve an uploaded file's
// download URL and send a text message to a chat.
type Client struct {
	token   string
	apiBase string
	http    *httpclient.Client
	log     *slog.Logger
}

// New returns a Client for the given bot token. apiBase is overridable for
// tests and self-hosted bot API servers; empty selects the default.
func New(token, apiBase string) *Client {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	return &Client{
		token:   token,
		apiBase: apiBase,
		http:    httpclient.New(nil),
		log:     logging.ForService("telegram"),
	}
}

// getFileResponse is the bot API envelope for getFile.
type getFileResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		FileID   string `json:"file_id"`
		FilePath string `json:"file_path"`
	} `json:"result"`
	Description string `json:"description"`
}

// FileURL resolves the download URL for an uploaded file id.
func (c *Client) FileURL(ctx context.Context, fileID string) (string, error) {
	endpoint := fmt.Sprintf("%s/bot%s/getFile?file_id=%s", c.apiBase, c.token, url.QueryEscape(fileID))

	var resp getFileResponse
	if err := c.http.GetJSON(ctx, endpoint, &resp); err != nil {
		return "", errors.Newf("getFile failed: %w", err).
			Component("telegram").
			Category(errors.CategoryTelegram).
			Build()
	}
	if !resp.OK || resp.Result.FilePath == "" {
		return "", errors.Newf("getFile rejected: %s", resp.Description).
			Component("telegram").
			Category(errors.CategoryTelegram).
			Build()
	}

	return fmt.Sprintf("%s/file/bot%s/%s", c.apiBase, c.token, resp.Result.FilePath), nil
}

// sendMessageRequest is the bot API payload for sendMessage.
type sendMessageRequest struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// SendMessage delivers a Markdown text message to the chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.apiBase, c.token)

	resp, err := c.http.PostJSON(ctx, endpoint, sendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "Markdown",
	})
	if err != nil {
		return errors.Newf("sendMessage failed: %w", err).
			Component("telegram").
			Category(errors.CategoryTelegram).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return errors.Newf("sendMessage returned status %d: %s", resp.StatusCode, string(body)).
			Component("telegram").
			Category(errors.CategoryTelegram).
			Context("status_code", resp.StatusCode).
			Build()
	}

	c.log.Debug("message sent", "chat_id", chatID, "length", len(text))
	return nil
}
