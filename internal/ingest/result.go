// Package ingest drives one inbound event through the fixed sequence
// normalize, header check, durable append, best-effort notify. Each event
// runs on its own request handler; the only ordering contract is within a
// single event.
package ingest

import "github.com/greenest/greenest-go/internal/notify"

// Status is the terminal state of one ingestion event.
type Status string

const (
	// StatusSuccess: the row was durably appended.
	StatusSuccess Status = "success"
	// StatusFailed: a mandatory step (header check or append) failed.
	StatusFailed Status = "failed"
	// StatusImageProcessed: bot image flow completed through the append.
	StatusImageProcessed Status = "image_processed"
	// StatusMissingCaption: image arrived without a tray-name caption.
	StatusMissingCaption Status = "missing_caption"
	// StatusNoImage: bot update carried no photo.
	StatusNoImage Status = "no_image"
	// StatusSummarySent: the /summary chat command was served.
	StatusSummarySent Status = "summary_sent"
)

// Result is the outcome of a direct ingestion event. Row and RowIndex are
// set on success; Err on failure. Report is advisory and never affects
// Status.
type Result struct {
	Status   Status
	Row      []string
	RowIndex int64
	Err      error
	Report   *notify.DeliveryReport
}

// BotResult is the outcome of a bot webhook event.
type BotResult struct {
	Status Status
	Tray   string
	Ingest *Result // set when the flow reached the ingestion path
}
