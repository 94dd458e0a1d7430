// Package metrics holds the Prometheus collectors for parse and load activity.
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ntstore"

// Metrics groups the collectors registered on a private registry
type Metrics struct {
	registry *prometheus.Registry

	statementsParsed   prometheus.Counter
	statementsInserted prometheus.Counter
	parseErrors        *prometheus.CounterVec
	filesLoaded        *prometheus.CounterVec
	loadDuration       prometheus.Histogram
}

// New creates the collectors and registers them along with the Go runtime collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		statementsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "statements_parsed_total",
			Help:      "Statements successfully parsed.",
		}),
		statementsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "statements_inserted_total",
			Help:      "Statements newly written to the store.",
		}),
		parseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_errors_total",
			Help:      "Parse failures by error kind.",
		}, []string{"kind"}),
		filesLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_loaded_total",
			Help:      "Files processed by the loader by result.",
		}, []string{"result"}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Time spent loading a single file.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.statementsParsed,
		m.statementsInserted,
		m.parseErrors,
		m.filesLoaded,
		m.loadDuration,
	)
	return m
}

// Registry returns the registry the collectors live on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// StatementsParsed adds n successfully parsed statements
func (m *Metrics) StatementsParsed(n int) {
	if m == nil {
		return
	}
	m.statementsParsed.Add(float64(n))
}

// StatementsInserted adds n newly stored statements
func (m *Metrics) StatementsInserted(n int) {
	if m == nil {
		return
	}
	m.statementsInserted.Add(float64(n))
}

// ParseError counts one parse failure of the given kind
func (m *Metrics) ParseError(kind string) {
	if m == nil {
		return
	}
	m.parseErrors.WithLabelValues(kind).Inc()
}

// FileLoaded records a processed file and how long it took
func (m *Metrics) FileLoaded(ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.filesLoaded.WithLabelValues(result).Inc()
	m.loadDuration.Observe(elapsed.Seconds())
}
