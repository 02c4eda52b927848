// Package metrics exposes Prometheus metrics for the API.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Auth metrics
	LoginAttemptsTotal *prometheus.CounterVec
	AccountLocksTotal  prometheus.Counter

	// Business metrics
	InviteRedemptionsTotal *prometheus.CounterVec
	TaskTransitionsTotal   *prometheus.CounterVec
	AIRequestsTotal        *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics on registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "platform_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "platform_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		LoginAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "platform_login_attempts_total",
				Help: "Password and social login attempts by outcome",
			},
			[]string{"outcome"},
		),
		AccountLocksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "platform_account_locks_total",
				Help: "Accounts locked after repeated login failures",
			},
		),
		InviteRedemptionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "platform_invite_redemptions_total",
				Help: "Invite redemptions by scope and outcome code",
			},
			[]string{"scope", "outcome"},
		),
		TaskTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "platform_task_transitions_total",
				Help: "Product lifecycle transitions by action and resulting status",
			},
			[]string{"action", "status"},
		),
		AIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "platform_ai_requests_total",
				Help: "Text generation requests by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LoginAttemptsTotal,
		m.AccountLocksTotal,
		m.InviteRedemptionsTotal,
		m.TaskTransitionsTotal,
		m.AIRequestsTotal,
	)
	return m
}

// NewNop returns metrics on a private registry, for tests and tools that
// never scrape them.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// Middleware records request counts and latency per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
