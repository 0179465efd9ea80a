// Package metrics exposes Prometheus collectors for the desk service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "edumap_desk"

// Recorder owns a registry and the collectors registered on it.
type Recorder struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	authEvents   *prometheus.CounterVec
	signIns      *prometheus.CounterVec
	ecpUploads   *prometheus.CounterVec
}

// New creates a recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
			},
			[]string{"method", "route"},
		),
		authEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "events_total",
				Help:      "Session state changes observed by the session manager.",
			},
			[]string{"event"},
		),
		signIns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "sign_in_attempts_total",
				Help:      "Sign-in form submissions by outcome.",
			},
			[]string{"outcome"},
		),
		ecpUploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ecp",
				Name:      "submissions_total",
				Help:      "E-signature form submissions by outcome.",
			},
			[]string{"outcome"},
		),
	}
	r.registry.MustRegister(r.httpRequests, r.httpDuration, r.authEvents, r.signIns, r.ecpUploads)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one completed request.
func (r *Recorder) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// AuthEvent counts one session state change.
func (r *Recorder) AuthEvent(event string) {
	if r == nil {
		return
	}
	r.authEvents.WithLabelValues(event).Inc()
}

// SignIn counts one sign-in attempt outcome.
func (r *Recorder) SignIn(outcome string) {
	if r == nil {
		return
	}
	r.signIns.WithLabelValues(outcome).Inc()
}

// ECPUpload counts one ECP submission outcome.
func (r *Recorder) ECPUpload(outcome string) {
	if r == nil {
		return
	}
	r.ecpUploads.WithLabelValues(outcome).Inc()
}
