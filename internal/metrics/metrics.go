// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "excellense"

// Outcome label values shared by the counters.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeBlocked = "blocked"
	OutcomeInvalid = "invalid"
)

// Metrics owns a private registry so tests can build as many as they
// like without clashing on the global default registerer.
type Metrics struct {
	registry *prometheus.Registry

	UploadsTotal            *prometheus.CounterVec
	UploadRows              prometheus.Histogram
	LoginsTotal             *prometheus.CounterVec
	AdminRequestTransitions *prometheus.CounterVec
}

// New creates and registers every collector.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		UploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "uploads",
			Name:      "total",
			Help:      "Workbook uploads by outcome.",
		}, []string{"outcome"}),
		UploadRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "uploads",
			Name:      "rows",
			Help:      "Data rows parsed per stored upload.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		LoginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		AdminRequestTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admin_requests",
			Name:      "transitions_total",
			Help:      "Admin request state changes by resulting status.",
		}, []string{"status"}),
	}
	reg.MustRegister(
		m.UploadsTotal,
		m.UploadRows,
		m.LoginsTotal,
		m.AdminRequestTransitions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordUpload counts one upload attempt; rows is observed only on success.
func (m *Metrics) RecordUpload(outcome string, rows int) {
	if m == nil {
		return
	}
	m.UploadsTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess {
		m.UploadRows.Observe(float64(rows))
	}
}

// RecordLogin counts one login attempt.
func (m *Metrics) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(outcome).Inc()
}

// RecordAdminRequest counts an admin request entering status.
func (m *Metrics) RecordAdminRequest(status string) {
	if m == nil {
		return
	}
	m.AdminRequestTransitions.WithLabelValues(status).Inc()
}
