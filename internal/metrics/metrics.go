// Package metrics collects and exposes Prometheus metrics for the gate and
// the completion relay.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the interface handlers use to report outcomes.
type Recorder interface {
	RecordAdmission(outcome string)
	RecordRelay(provider string, success bool)
	RecordRelayLatency(d time.Duration)
}

// Admission outcomes.
const (
	OutcomeAllowedMetered   = "allowed_metered"
	OutcomeAllowedUnmetered = "allowed_unmetered"
	OutcomeUnauthenticated  = "unauthenticated"
	OutcomeQuotaExhausted   = "quota_exhausted"
)

// Collector is the Prometheus-backed Recorder implementation.
type Collector struct {
	admissions   *prometheus.CounterVec
	relayResults *prometheus.CounterVec
	relayLatency prometheus.Histogram
}

// NewCollector registers the service metrics on reg and returns the collector.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lina_admissions_total",
			Help: "Gate admission decisions by outcome.",
		}, []string{"outcome"}),
		relayResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lina_relay_results_total",
			Help: "Completion relay calls by provider and result.",
		}, []string{"provider", "result"}),
		relayLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lina_relay_latency_seconds",
			Help:    "Latency of completion relay calls.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(c.admissions, c.relayResults, c.relayLatency)
	return c
}

func (c *Collector) RecordAdmission(outcome string) {
	c.admissions.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordRelay(provider string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	c.relayResults.WithLabelValues(provider, result).Inc()
}

func (c *Collector) RecordRelayLatency(d time.Duration) {
	c.relayLatency.Observe(d.Seconds())
}

// Handler returns the exposition endpoint for the given gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

var _ Recorder = (*Collector)(nil)
