package notify

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/greenest/greenest-go/internal/logging"
)

// ChatSender delivers a text message to one chat. The telegram client
// satisfies this; tests substitute a fake.
type ChatSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Sink is a destination-less side channel that broadcasts the same text to
// preconfigured services (shoutrrr URLs).
type Sink interface {
	Name() string
	Broadcast(ctx context.Context, title, text string) error
}

// Delivery records the outcome for one destination.
type Delivery struct {
	Target string `json:"target"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

// DeliveryReport is the advisory per-destination result of one fan-out. It
// is attached to the event response but never turns a success into a
// failure.
type DeliveryReport struct {
	Deliveries []Delivery `json:"deliveries"`
}

// AllOK reports whether every destination was reached.
func (r *DeliveryReport) AllOK() bool {
	for i := range r.Deliveries {
		if !r.Deliveries[i].OK {
			return false
		}
	}
	return true
}

// Notifier fans one rendered message out to chat destinations and sinks,
// isolating failures per destination.
type Notifier struct {
	chat  ChatSender
	sinks []Sink
	log   *slog.Logger
}

// New returns a Notifier. chat may be nil when no bot token is configured;
// chat destinations are then skipped and reported as failed.
func New(chat ChatSender, sinks ...Sink) *Notifier {
	return &Notifier{
		chat:  chat,
		sinks: sinks,
		log:   logging.ForService("notify"),
	}
}

// Send delivers text to every chat destination and every sink. Each failure
// is logged and recorded in the report; none is propagated.
func (n *Notifier) Send(ctx context.Context, destinations []int64, title, text string) DeliveryReport {
	report := DeliveryReport{}

	for _, chatID := range destinations {
		target := "chat:" + strconv.FormatInt(chatID, 10)
		if n.chat == nil {
			report.Deliveries = append(report.Deliveries, Delivery{
				Target: target,
				Error:  "chat transport not configured",
			})
			continue
		}
		if err := n.chat.SendMessage(ctx, chatID, text); err != nil {
			n.log.Warn("chat delivery failed", "chat_id", chatID, "error", err)
			report.Deliveries = append(report.Deliveries, Delivery{Target: target, Error: err.Error()})
			continue
		}
		report.Deliveries = append(report.Deliveries, Delivery{Target: target, OK: true})
	}

	for _, sink := range n.sinks {
		target := "sink:" + sink.Name()
		if err := sink.Broadcast(ctx, title, text); err != nil {
			n.log.Warn("sink delivery failed", "sink", sink.Name(), "error", err)
			report.Deliveries = append(report.Deliveries, Delivery{Target: target, Error: err.Error()})
			continue
		}
		report.Deliveries = append(report.Deliveries, Delivery{Target: target, OK: true})
	}

	return report
}
