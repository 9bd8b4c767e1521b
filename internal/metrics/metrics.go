// Package metrics exposes Prometheus collectors for the entry desk and the
// verification bridge.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Lookup outcomes recorded by the duplicate checker.
const (
	LookupDuplicate = "duplicate"
	LookupUnique    = "unique"
	LookupFailed    = "failed"
	LookupStale     = "stale"
)

// Metrics groups the collectors registered on one registry.
type Metrics struct {
	registry      *prometheus.Registry
	lookups       *prometheus.CounterVec
	saves         *prometheus.CounterVec
	verifications *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chequedesk",
			Name:      "duplicate_lookups_total",
			Help:      "Cheque number uniqueness lookups by outcome.",
		}, []string{"outcome"}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chequedesk",
			Name:      "cheque_saves_total",
			Help:      "Cheque save attempts by result.",
		}, []string{"result"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chequedesk",
			Name:      "verifications_total",
			Help:      "Verification requests by resolved status.",
		}, []string{"status"}),
	}
	reg.MustRegister(m.lookups, m.saves, m.verifications)
	return m
}

// Lookup counts one duplicate lookup outcome.
func (m *Metrics) Lookup(outcome string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(outcome).Inc()
}

// Save counts one save attempt ("created", "rejected" or "failed").
func (m *Metrics) Save(result string) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues(result).Inc()
}

// Verification counts one verification by status.
func (m *Metrics) Verification(status string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(status).Inc()
}

// Registry returns the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
