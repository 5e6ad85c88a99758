package notify

import (
	"context"
	"io"
	"log"
	"slices"
	"strings"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/greenest/greenest-go/internal/errors"
)

// ShoutrrrSink broadcasts to extra notification services (discord, email,
// anything shoutrrr speaks) configured as service URLs. One sender covers
// all URLs.
type ShoutrrrSink struct {
	urls    []string
	sender  *router.ServiceRouter
	timeout time.Duration
}

// NewShoutrrrSink validates the service URLs and builds the sender. An
// empty URL list yields a nil sink so callers can wire it conditionally.
func NewShoutrrrSink(urls []string, timeout time.Duration) (*ShoutrrrSink, error) {
	cleaned := make([]string, 0, len(urls))
	for _, u := range urls {
		if trimmed := strings.TrimSpace(u); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return nil, nil
	}

	sender, err := shoutrrr.CreateSender(cleaned...)
	if err != nil {
		return nil, errors.Newf("invalid shoutrrr URL configuration: %w", err).
			Component("notify").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if timeout > 0 {
		sender.Timeout = timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))

	return &ShoutrrrSink{
		urls:    slices.Clone(cleaned),
		sender:  sender,
		timeout: timeout,
	}, nil
}

func (s *ShoutrrrSink) Name() string { return "shoutrrr" }

// Broadcast sends the text to every configured service URL. The first
// per-URL error is returned; the router attempts all URLs regardless.
func (s *ShoutrrrSink) Broadcast(ctx context.Context, title, text string) error {
	_ = ctx // the router enforces its own timeout

	params := stypes.Params{}
	if title != "" {
		params.SetTitle(title)
	}

	errs := s.sender.Send(text, &params)
	for _, e := range errs {
		if e != nil {
			return errors.New(e).
				Component("notify").
				Category(errors.CategoryNotification).
				Build()
		}
	}
	return nil
}
