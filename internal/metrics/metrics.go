// Package metrics exposes Prometheus collectors for simulations and Monte
// Carlo runs.
package metrics

import (
	"time"

	"github.com/iwvelando/finance-montecarlo/pkg/montecarlo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "finance_montecarlo"

// Collector records simulation telemetry on its own registry. It implements
// montecarlo.Recorder.
type Collector struct {
	registry *prometheus.Registry

	simulations  *prometheus.CounterVec
	trials       *prometheus.CounterVec
	runs         *prometheus.CounterVec
	runDuration  prometheus.Histogram
	activeRuns   prometheus.Gauge
	requestTotal *prometheus.CounterVec
}

var _ montecarlo.Recorder = (*Collector)(nil)

// New creates a Collector with every metric registered on a fresh registry,
// plus the standard Go and process collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		simulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_total",
			Help:      "Deterministic ledger simulations by outcome.",
		}, []string{"outcome"}),
		trials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "montecarlo_trials_total",
			Help:      "Monte Carlo trials by outcome.",
		}, []string{"outcome"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "montecarlo_runs_total",
			Help:      "Monte Carlo runs by terminal state.",
		}, []string{"state"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "montecarlo_run_duration_seconds",
			Help:      "Wall-clock duration of Monte Carlo runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		activeRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "montecarlo_active_runs",
			Help:      "Monte Carlo runs currently in progress.",
		}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by endpoint and status code.",
		}, []string{"endpoint", "code"}),
	}

	c.registry.MustRegister(
		c.simulations,
		c.trials,
		c.runs,
		c.runDuration,
		c.activeRuns,
		c.requestTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the registry the collectors are registered on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// SimulationFinished counts one deterministic simulation.
func (c *Collector) SimulationFinished(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.simulations.WithLabelValues(outcome).Inc()
}

// RunStarted marks a Monte Carlo run as active until RunFinished.
func (c *Collector) RunStarted() {
	c.activeRuns.Inc()
}

// TrialFinished counts one Monte Carlo trial.
func (c *Collector) TrialFinished(failed, timedOut bool) {
	switch {
	case timedOut:
		c.trials.WithLabelValues("timeout").Inc()
	case failed:
		c.trials.WithLabelValues("error").Inc()
	default:
		c.trials.WithLabelValues("ok").Inc()
	}
}

// RunFinished records a run's terminal state and duration.
func (c *Collector) RunFinished(state montecarlo.RunState, elapsed time.Duration) {
	c.activeRuns.Dec()
	c.runs.WithLabelValues(string(state)).Inc()
	c.runDuration.Observe(elapsed.Seconds())
}

// RequestHandled counts one API request.
func (c *Collector) RequestHandled(endpoint string, code int) {
	c.requestTotal.WithLabelValues(endpoint, statusLabel(code)).Inc()
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
