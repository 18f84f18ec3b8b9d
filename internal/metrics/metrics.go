// Package metrics exposes Prometheus collectors for model calls, busy
// rejections and archive size.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "riskdraft"

// Counter reports the current archive length.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Metrics holds the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	calls        *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	busy         *prometheus.CounterVec
}

// New registers collectors on a fresh registry. archive may be nil.
func New(archive Counter) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_calls_total",
			Help:      "Model calls by stage and outcome.",
		}, []string{"stage", "outcome"}),
		callDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_call_duration_seconds",
			Help:      "Model call latency by stage.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"stage"}),
		busy: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "busy_rejections_total",
			Help:      "Requests refused because the same call was already in flight.",
		}, []string{"operation"}),
	}
	reg.MustRegister(m.calls, m.callDuration, m.busy)

	if archive != nil {
		m.TrackArchive(archive)
	}
	return m
}

// TrackArchive registers the archive size gauge. Call it at most once.
func (m *Metrics) TrackArchive(archive Counter) {
	if m == nil || archive == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "archived_processes",
		Help:      "Processes currently in the archive.",
	}, func() float64 {
		n, err := archive.Count(context.Background())
		if err != nil {
			return 0
		}
		return float64(n)
	}))
}

// ObserveCall records one model call.
func (m *Metrics) ObserveCall(stage string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.calls.WithLabelValues(stage, outcome).Inc()
	m.callDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// BusyRejected counts a fail-fast refusal.
func (m *Metrics) BusyRejected(operation string) {
	if m == nil {
		return
	}
	m.busy.WithLabelValues(operation).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
