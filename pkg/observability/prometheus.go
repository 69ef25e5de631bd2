package observability

import (
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics implements Metrics on a Prometheus registry. Vectors are
// created on first use; the label names of a metric are fixed by that first
// call and later calls with a different label set are dropped.
type PrometheusMetrics struct {
	registry *prometheus.Registry
	factory  promauto.Factory

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

// NewPrometheusMetrics creates a collector backed by a fresh registry that
// also exports the Go runtime and process collectors.
func NewPrometheusMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &PrometheusMetrics{
		registry:   registry,
		factory:    promauto.With(registry),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

// Registry exposes the underlying registry.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *PrometheusMetrics) Counter(name string, value int64, tags ...Tag) {
	names, values := splitTags(tags)
	m.mu.Lock()
	vec, ok := m.counters[name]
	if !ok {
		vec = m.factory.NewCounterVec(prometheus.CounterOpts{
			Name: promName(name) + "_total",
			Help: name,
		}, names)
		m.counters[name] = vec
	}
	m.mu.Unlock()

	if c, err := vec.GetMetricWithLabelValues(values...); err == nil {
		c.Add(float64(value))
	}
}

func (m *PrometheusMetrics) Gauge(name string, value float64, tags ...Tag) {
	names, values := splitTags(tags)
	m.mu.Lock()
	vec, ok := m.gauges[name]
	if !ok {
		vec = m.factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: promName(name),
			Help: name,
		}, names)
		m.gauges[name] = vec
	}
	m.mu.Unlock()

	if g, err := vec.GetMetricWithLabelValues(values...); err == nil {
		g.Set(value)
	}
}

func (m *PrometheusMetrics) Histogram(name string, value float64, tags ...Tag) {
	m.observe(promName(name), name, prometheus.DefBuckets, value, tags)
}

// Timing records durations in seconds.
func (m *PrometheusMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	m.observe(promName(name)+"_seconds", name, prometheus.ExponentialBuckets(0.0005, 2, 14), duration.Seconds(), tags)
}

func (m *PrometheusMetrics) observe(promMetric, help string, buckets []float64, value float64, tags []Tag) {
	names, values := splitTags(tags)
	m.mu.Lock()
	vec, ok := m.histograms[promMetric]
	if !ok {
		vec = m.factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    promMetric,
			Help:    help,
			Buckets: buckets,
		}, names)
		m.histograms[promMetric] = vec
	}
	m.mu.Unlock()

	if h, err := vec.GetMetricWithLabelValues(values...); err == nil {
		h.Observe(value)
	}
}

// promName turns "ganttline.reschedule.total" into "ganttline_reschedule".
// A trailing ".total" is dropped because counters get the _total suffix.
func promName(name string) string {
	name = strings.TrimSuffix(name, ".total")
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

func splitTags(tags []Tag) ([]string, []string) {
	sorted := append([]Tag(nil), tags...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	names := make([]string, len(sorted))
	values := make([]string, len(sorted))
	for i, t := range sorted {
		names[i] = t.Key
		values[i] = t.Value
	}
	return names, values
}
