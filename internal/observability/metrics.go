// Package observability provides Prometheus metrics for the tracker.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry

	// Ingestion pipeline
	IngestEventsTotal *prometheus.CounterVec // events by source and status
	RowsAppendedTotal prometheus.Counter     // durable appends
	HeaderRepairs     prometheus.Counter     // header drift repairs

	// Collaborators
	AnalyzerFailuresTotal  prometheus.Counter     // analyzer failures and timeouts
	NotifyDeliveriesTotal  *prometheus.CounterVec // deliveries by target kind and outcome
	RelayForwardsTotal     *prometheus.CounterVec // relay forwards by backend status class
	SummaryBuildsTotal     prometheus.Counter     // summary aggregations
	WebhookDuplicatesTotal prometheus.Counter     // deduped webhook redeliveries
}

// NewMetrics creates a Metrics instance with a private registry.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	m := &Metrics{registry: registry}

	m.IngestEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greenest_ingest_events_total",
			Help: "Ingestion events by inbound source and terminal status",
		},
		[]string{"source", "status"},
	)

	m.RowsAppendedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "greenest_rows_appended_total",
		Help: "Data rows durably appended to the tabular store",
	})

	m.HeaderRepairs = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "greenest_header_repairs_total",
		Help: "Schema header rows repaired after drift",
	})

	m.AnalyzerFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "greenest_analyzer_failures_total",
		Help: "Image analysis calls that failed or timed out",
	})

	m.NotifyDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greenest_notify_deliveries_total",
			Help: "Notification deliveries by target kind and outcome",
		},
		[]string{"target", "outcome"},
	)

	m.RelayForwardsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greenest_relay_forwards_total",
			Help: "Relay forwards by backend status class",
		},
		[]string{"status_class"},
	)

	m.SummaryBuildsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "greenest_summary_builds_total",
		Help: "Summary aggregations served",
	})

	m.WebhookDuplicatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "greenest_webhook_duplicates_total",
		Help: "Webhook updates acknowledged as duplicates without reprocessing",
	})

	collectors := []prometheus.Collector{
		m.IngestEventsTotal,
		m.RowsAppendedTotal,
		m.HeaderRepairs,
		m.AnalyzerFailuresTotal,
		m.NotifyDeliveriesTotal,
		m.RelayForwardsTotal,
		m.SummaryBuildsTotal,
		m.WebhookDuplicatesTotal,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	return m, nil
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordDelivery increments the delivery counter for one target/outcome pair.
func (m *Metrics) RecordDelivery(target string, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "error"
	}
	m.NotifyDeliveriesTotal.WithLabelValues(target, outcome).Inc()
}
