// Package metrics exposes toycc's compile activity as Prometheus
// metrics: how many compiles ran and with what result, how many
// functions were lowered, and how long each pipeline stage took.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus collector toycc registers.
type Metrics struct {
	compilesTotal          *prometheus.CounterVec
	functionsCompiledTotal prometheus.Counter
	compileDuration        *prometheus.HistogramVec

	registry *prometheus.Registry
}

// stageDurationBuckets covers sub-millisecond lexing up to multi-second
// compiles of large units.
var stageDurationBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// New creates and registers toycc's metrics in a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{registry: registry}

	m.compilesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "toycc",
			Name:      "compiles_total",
			Help:      "Total number of compile invocations, by result.",
		},
		[]string{"result"},
	)

	m.functionsCompiledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "toycc",
			Name:      "functions_compiled_total",
			Help:      "Total number of functions lowered to IR across all compiles.",
		},
	)

	m.compileDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "toycc",
			Name:      "compile_duration_seconds",
			Help:      "Time spent in each compile pipeline stage.",
			Buckets:   stageDurationBuckets,
		},
		[]string{"stage"},
	)

	registry.MustRegister(m.compilesTotal, m.functionsCompiledTotal, m.compileDuration)
	return m
}

// RecordCompile records the outcome of one compile invocation. result is
// "ok" or "error".
func (m *Metrics) RecordCompile(result string) {
	m.compilesTotal.WithLabelValues(result).Inc()
}

// AddFunctionsCompiled increments the function counter by n, once per
// compile after irgen has produced its Program.
func (m *Metrics) AddFunctionsCompiled(n int) {
	m.functionsCompiledTotal.Add(float64(n))
}

// ObserveStageDuration records how long a single pipeline stage
// (lex, parse, analyze, irgen, emit) took.
func (m *Metrics) ObserveStageDuration(stage string, seconds float64) {
	m.compileDuration.WithLabelValues(stage).Observe(seconds)
}

// Handler returns the HTTP handler toycc serve exposes on /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
