// Package telegram is the bot transport: it parses webhook update
// envelopes, resolves uploaded file URLs and sends text messages. It is the
// only component that talks to the bot API.
package telegram

import "strings"

// Update is the webhook envelope pushed by the bot API.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is the user message inside an update. Only the fields the
// ingestion flow consumes are mapped.
type Message struct {
	MessageID int64       `json:"message_id"`
	Chat      Chat        `json:"chat"`
	Text      string      `json:"text"`
	Caption   string      `json:"caption"`
	Photo     []PhotoSize `json:"photo"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID int64 `json:"id"`
}

// PhotoSize is one resolution variant of an uploaded photo. The bot API
// sends variants in ascending size; the last one is the full resolution.
type PhotoSize struct {
	FileID   string `json:"file_id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	FileSize int64  `json:"file_size"`
}

// HasPhoto reports whether the update carries an uploaded image.
func (u *Update) HasPhoto() bool {
	return u.Message != nil && len(u.Message.Photo) > 0
}

// LargestPhoto returns the highest-resolution variant of the uploaded
// photo, or nil when there is none.
func (u *Update) LargestPhoto() *PhotoSize {
	if !u.HasPhoto() {
		return nil
	}
	return &u.Message.Photo[len(u.Message.Photo)-1]
}

// CaptionTrayName returns the trimmed caption, which carries the tray name
// for image uploads. Empty means the caption is missing.
func (u *Update) CaptionTrayName() string {
	if u.Message == nil {
		return ""
	}
	return strings.TrimSpace(u.Message.Caption)
}

// ChatID returns the conversation id, or 0 when the update has no message.
func (u *Update) ChatID() int64 {
	if u.Message == nil {
		return 0
	}
	return u.Message.Chat.ID
}

// IsSummaryCommand reports whether the update is the /summary text command.
func (u *Update) IsSummaryCommand() bool {
	if u.Message == nil {
		return false
	}
	text := strings.TrimSpace(u.Message.Text)
	return text == "/summary" || strings.HasPrefix(text, "/summary@")
}
