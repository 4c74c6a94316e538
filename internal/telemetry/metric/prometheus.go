// Package metric provides Prometheus metrics for tokgate.
package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tokgate"

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Connection metrics
	ConnectionsAccepted prometheus.Counter
	ConnectionsActive   prometheus.Gauge
	ConnectionsRejected *prometheus.CounterVec

	// Security metrics
	LoginsTotal     *prometheus.CounterVec
	RateLimitDenied prometheus.Counter
	CSRFRejected    prometheus.Counter
	AuthFailures    prometheus.Counter

	// Worker metrics
	TaskPanics prometheus.Counter
}

// NewRegistry creates a registry with the Go runtime and process
// collectors plus the application metrics.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, by method and status code.",
		}, []string{"method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time from request parse to response flush.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		ConnectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "conn",
			Name:      "accepted_total",
			Help:      "Connections accepted by the listener.",
		}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "conn",
			Name:      "active",
			Help:      "Connections accepted and not yet closed.",
		}),
		ConnectionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "conn",
			Name:      "rejected_total",
			Help:      "Connections closed without dispatch, by reason.",
		}, []string{"reason"}),

		LoginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		RateLimitDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "ratelimit_denied_total",
			Help:      "Requests rejected by the per-address rate limiter.",
		}),
		CSRFRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "csrf_rejected_total",
			Help:      "Requests rejected for a missing or invalid CSRF token.",
		}),
		AuthFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "session_rejected_total",
			Help:      "Requests rejected for a missing or invalid session.",
		}),

		TaskPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "task_panics_total",
			Help:      "Worker tasks that panicked and were recovered.",
		}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.RequestsTotal,
		r.RequestDuration,
		r.ConnectionsAccepted,
		r.ConnectionsActive,
		r.ConnectionsRejected,
		r.LoginsTotal,
		r.RateLimitDenied,
		r.CSRFRejected,
		r.AuthFailures,
		r.TaskPanics,
	)
	return r
}

// Prometheus returns the underlying registry, for components that register
// their own collectors.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.reg
}

// MustRegister registers additional collectors.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.reg.MustRegister(cs...)
}

// ObserveRequest records one served request.
func (r *Registry) ObserveRequest(method string, status int, elapsed time.Duration) {
	r.RequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Handler returns the exposition handler for /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{
		Registry:          r.reg,
		EnableOpenMetrics: false,
	})
}
