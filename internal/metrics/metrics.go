// Package metrics defines Prometheus metrics for friendcrawl.
//
// Metrics live on a private registry owned by a Metrics value rather than on
// the global default registry, so that tests and concurrent runs do not share
// counters. All methods are safe to call on a nil *Metrics, which lets
// components treat metrics as optional.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Probe outcomes recorded by the seed selector.
const (
	ProbeMissing  = "missing"
	ProbeBanned   = "banned"
	ProbeTooFew   = "too_few_friends"
	ProbeSelected = "selected"
)

// Metrics holds the crawler's collectors.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	retries         *prometheus.CounterVec
	seedProbes      *prometheus.CounterVec
	collectSteps    prometheus.Counter
	budgetUsed      prometheus.Gauge
	frontierSize    prometheus.Gauge
	graphSize       prometheus.Gauge
	budgetExhausted prometheus.Counter
}

// New creates a Metrics value with all collectors registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "friendcrawl_upstream_requests_total",
				Help: "Upstream HTTP requests by response class",
			},
			[]string{"status"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "friendcrawl_upstream_retries_total",
				Help: "Retries scheduled after retryable upstream failures, by reason",
			},
			[]string{"reason"},
		),
		seedProbes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "friendcrawl_seed_probes_total",
				Help: "Seed candidates probed by outcome",
			},
			[]string{"outcome"},
		),
		collectSteps: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "friendcrawl_collect_steps_total",
				Help: "Users processed by the collector",
			},
		),
		budgetUsed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "friendcrawl_collect_budget_used",
				Help: "Iteration budget consumed by the current collection",
			},
		),
		frontierSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "friendcrawl_frontier_size",
				Help: "IDs waiting in the collection frontier",
			},
		),
		graphSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "friendcrawl_graph_users",
				Help: "Users recorded in the collected graph",
			},
		),
		budgetExhausted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "friendcrawl_budget_exhausted_total",
				Help: "Collections stopped by the iteration budget",
			},
		),
	}

	m.registry.MustRegister(
		m.requests, m.retries, m.seedProbes,
		m.collectSteps, m.budgetUsed, m.frontierSize,
		m.graphSize, m.budgetExhausted,
	)

	return m
}

// Registry returns the registry holding all collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler exposing the metrics in Prometheus format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest counts one upstream response by status class (e.g. "200", "429", "error").
func (m *Metrics) ObserveRequest(status string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(status).Inc()
}

// ObserveRetry counts one retryable failure.
func (m *Metrics) ObserveRetry(reason string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(reason).Inc()
}

// ObserveProbe counts one seed candidate by outcome.
func (m *Metrics) ObserveProbe(outcome string) {
	if m == nil {
		return
	}
	m.seedProbes.WithLabelValues(outcome).Inc()
}

// ObserveStep records one processed user and the collector state after it.
func (m *Metrics) ObserveStep(budgetUsed, frontier, graphUsers int) {
	if m == nil {
		return
	}
	m.collectSteps.Inc()
	m.budgetUsed.Set(float64(budgetUsed))
	m.frontierSize.Set(float64(frontier))
	m.graphSize.Set(float64(graphUsers))
}

// ObserveBudgetExhausted counts one collection stopped by its budget.
func (m *Metrics) ObserveBudgetExhausted() {
	if m == nil {
		return
	}
	m.budgetExhausted.Inc()
}
