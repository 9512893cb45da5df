// Package metrics exposes Prometheus counters for the campaign pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the pipeline. A nil *Metrics
// is a valid no-op receiver so components can run unmetered in tests.
type Metrics struct {
	EmailsSentTotal     prometheus.Counter
	EmailsFailedTotal   *prometheus.CounterVec
	EnrichmentRunsTotal *prometheus.CounterVec
	APIRetriesTotal     *prometheus.CounterVec
	RowsProcessedTotal  prometheus.Counter

	registry *prometheus.Registry
}

// New creates a Metrics instance with all metrics registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		EmailsSentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "automail_emails_sent_total",
			Help: "Total number of emails accepted by the relay",
		}),
		EmailsFailedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "automail_emails_failed_total",
			Help: "Total number of failed rows by delivery status",
		}, []string{"delivery_status"}),
		EnrichmentRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "automail_enrichment_runs_total",
			Help: "Total number of enrichment attempts by outcome",
		}, []string{"outcome"}),
		APIRetriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "automail_api_retries_total",
			Help: "Total number of rate-limit backoff waits by provider",
		}, []string{"provider"}),
		RowsProcessedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "automail_rows_processed_total",
			Help: "Total number of contact rows processed",
		}),
		registry: reg,
	}

	reg.MustRegister(
		m.EmailsSentTotal,
		m.EmailsFailedTotal,
		m.EnrichmentRunsTotal,
		m.APIRetriesTotal,
		m.RowsProcessedTotal,
	)

	return m
}

// Handler returns the HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RowProcessed counts one processed row.
func (m *Metrics) RowProcessed() {
	if m == nil {
		return
	}
	m.RowsProcessedTotal.Inc()
}

// EmailSent counts one relay-accepted send.
func (m *Metrics) EmailSent() {
	if m == nil {
		return
	}
	m.EmailsSentTotal.Inc()
}

// EmailFailed counts one failed row under its delivery status.
func (m *Metrics) EmailFailed(deliveryStatus string) {
	if m == nil {
		return
	}
	m.EmailsFailedTotal.WithLabelValues(deliveryStatus).Inc()
}

// EnrichmentRun counts one enrichment attempt outcome (found/not_found).
func (m *Metrics) EnrichmentRun(outcome string) {
	if m == nil {
		return
	}
	m.EnrichmentRunsTotal.WithLabelValues(outcome).Inc()
}

// APIRetry counts one backoff wait against the named provider.
func (m *Metrics) APIRetry(provider string) {
	if m == nil {
		return
	}
	m.APIRetriesTotal.WithLabelValues(provider).Inc()
}
