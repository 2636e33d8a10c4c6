// Package metrics exposes Prometheus counters for allowance consumption, the
// drink approval workflow and assistant completions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric names.
const (
	MetricConsumptionsTotal     = "eventmeals_consumptions_total"
	MetricRejectionsTotal       = "eventmeals_consumption_rejections_total"
	MetricOrderTransitionsTotal = "eventmeals_drink_order_transitions_total"
	MetricCompletionSeconds     = "eventmeals_assistant_completion_seconds"
	MetricCompletionErrorsTotal = "eventmeals_assistant_completion_errors_total"
)

// Recorder owns a private registry. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	consumptions      *prometheus.CounterVec
	rejections        *prometheus.CounterVec
	orderTransitions  *prometheus.CounterVec
	completionSeconds prometheus.Histogram
	completionErrors  prometheus.Counter
}

func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	r := &Recorder{
		registry: registry,
		consumptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricConsumptionsTotal,
			Help: "Successful allowance consumptions by kind.",
		}, []string{"kind"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRejectionsTotal,
			Help: "Rejected consumption attempts by kind and reason.",
		}, []string{"kind", "reason"}),
		orderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricOrderTransitionsTotal,
			Help: "Drink order state changes by resulting status.",
		}, []string{"status"}),
		completionSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricCompletionSeconds,
			Help:    "Latency of completion model calls.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		completionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricCompletionErrorsTotal,
			Help: "Failed completion model calls.",
		}),
	}

	registry.MustRegister(
		r.consumptions,
		r.rejections,
		r.orderTransitions,
		r.completionSeconds,
		r.completionErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) Consumed(kind string, quantity int) {
	if r == nil {
		return
	}
	r.consumptions.WithLabelValues(kind).Add(float64(quantity))
}

func (r *Recorder) Rejected(kind, reason string) {
	if r == nil {
		return
	}
	r.rejections.WithLabelValues(kind, reason).Inc()
}

func (r *Recorder) OrderTransition(status string) {
	if r == nil {
		return
	}
	r.orderTransitions.WithLabelValues(status).Inc()
}

// Completion observes one model call.
func (r *Recorder) Completion(elapsed time.Duration, err error) {
	if r == nil {
		return
	}
	r.completionSeconds.Observe(elapsed.Seconds())
	if err != nil {
		r.completionErrors.Inc()
	}
}

// Registry exposes the underlying registry, for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
