// Package metrics exports engine operation counters to Prometheus.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"creditbot/internal/game"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements game.Recorder.
type Collector struct {
	registry *prometheus.Registry
	ops      *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "creditbot"
	}
	c := &Collector{registry: prometheus.NewRegistry()}
	c.ops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operations_total",
			Help:      "Economy operations by name and outcome.",
		},
		[]string{"op", "result"},
	)
	c.latency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operation_seconds",
			Help:      "Economy operation latency including the snapshot write.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		[]string{"op"},
	)
	c.registry.MustRegister(c.ops, c.latency)
	return c
}

func (c *Collector) ObserveOp(op string, err error, elapsed time.Duration) {
	c.ops.WithLabelValues(op, Result(err)).Inc()
	c.latency.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Result buckets an engine error into a low-cardinality label.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, game.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, game.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, game.ErrNotFound):
		return "not_found"
	case errors.Is(err, game.ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, game.ErrPersistence):
		return "persistence_failure"
	default:
		return "error"
	}
}
