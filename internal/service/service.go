// Package service assembles the tracker from its parts: configuration in,
// store, bot transport, analyzer, notifier and pipeline wired together, an
// HTTP server or a one-shot job on top.
package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/greenest/greenest-go/internal/analyzer"
	"github.com/greenest/greenest-go/internal/api"
	"github.com/greenest/greenest-go/internal/conf"
	"github.com/greenest/greenest-go/internal/ingest"
	"github.com/greenest/greenest-go/internal/logging"
	"github.com/greenest/greenest-go/internal/notify"
	"github.com/greenest/greenest-go/internal/observability"
	"github.com/greenest/greenest-go/internal/sheetstore"
	"github.com/greenest/greenest-go/internal/telegram"
)

const shutdownTimeout = 10 * time.Second

// components holds everything a command needs once wiring is done.
type components struct {
	store    sheetstore.Store
	pipeline *ingest.Pipeline
	metrics  *observability.Metrics
	log      *slog.Logger
}

// build wires the pipeline from settings. With no spreadsheet configured
// the tracker runs on an in-memory store, which is only useful for local
// development and is called out loudly in the log.
func build(ctx context.Context, settings *conf.Settings) (*components, error) {
	log := logging.ForService("service")

	var store sheetstore.Store
	if settings.Sheet.ID == "" {
		log.Warn("no spreadsheet configured, using in-memory store; data is lost on restart")
		store = sheetstore.NewMemStore()
	} else {
		s, err := sheetstore.Connect(ctx, &settings.Sheet)
		if err != nil {
			return nil, err
		}
		store = s
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		return nil, err
	}

	opts := []ingest.Option{
		ingest.WithMetrics(metrics),
		ingest.WithTitle(settings.Main.Name),
	}

	var chat notify.ChatSender
	if settings.Telegram.Token != "" {
		bot := telegram.New(settings.Telegram.Token, settings.Telegram.APIBase)
		chat = bot
		opts = append(opts, ingest.WithBot(bot))
	} else {
		log.Warn("no bot token configured, webhook replies and chat notifications disabled")
	}
	if settings.Telegram.ChatID != 0 {
		opts = append(opts, ingest.WithDefaultChat(settings.Telegram.ChatID))
	}

	var sinks []notify.Sink
	if sink, err := notify.NewShoutrrrSink(settings.Notify.ShoutrrrURLs, shutdownTimeout); err != nil {
		log.Error("notification sink setup failed", "error", err)
	} else if sink != nil {
		sinks = append(sinks, sink)
	}

	opts = append(opts, ingest.WithAnalyzer(
		analyzer.New(settings.Analyzer.Endpoint, settings.AnalyzerTimeout())))

	pipeline := ingest.New(store, notify.New(chat, sinks...), opts...)

	return &components{
		store:    store,
		pipeline: pipeline,
		metrics:  metrics,
		log:      log,
	}, nil
}

// Run starts the HTTP server and blocks until SIGINT or SIGTERM, then
// shuts down gracefully.
func Run(settings *conf.Settings) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := build(ctx, settings)
	if err != nil {
		return err
	}
	defer func() { _ = c.store.Close() }()

	controller := api.New(settings, c.pipeline, c.metrics)

	errCh := make(chan error, 1)
	go func() {
		if err := controller.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	c.log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return controller.Shutdown(shutdownCtx)
}

// PushSummary builds the dashboard summary once and delivers it to the
// default chat. This is the scheduled daily job, run from cron or a
// workflow runner instead of the HTTP trigger.
func PushSummary(settings *conf.Settings) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	c, err := build(ctx, settings)
	if err != nil {
		return err
	}
	defer func() { _ = c.store.Close() }()

	text, err := c.pipeline.SendSummary(ctx, 0)
	if err != nil {
		return err
	}
	c.log.Info("summary delivered", "chars", len(text))
	return nil
}
