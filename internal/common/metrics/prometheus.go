// Package metrics 提供 Prometheus 指标收集
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标收集器
type Metrics struct {
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge
	bookingsCreated      prometheus.Counter
	bookingConflicts     *prometheus.CounterVec
	bookingTransitions   *prometheus.CounterVec
	sweepRuns            *prometheus.CounterVec
	sweepCancelled       prometheus.Counter
	sweepFailures        prometheus.Counter
	notifications        *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	defaultOnce    sync.Once
)

// New 在指定注册器上创建指标收集器
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "hotel_booking"
	}
	factory := promauto.With(reg)

	return &Metrics{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		httpRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		bookingsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bookings_created_total",
				Help:      "Total number of bookings created",
			},
		),
		bookingConflicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_conflicts_total",
				Help:      "Booking attempts rejected because the room was taken",
			},
			[]string{"source"}, // check / constraint
		),
		bookingTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_transitions_total",
				Help:      "Booking status transitions by action and result",
			},
			[]string{"action", "result"},
		),
		sweepRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_sweep_runs_total",
				Help:      "Auto-cancellation sweep runs",
			},
			[]string{"trigger"},
		),
		sweepCancelled: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_sweep_cancelled_total",
				Help:      "Bookings cancelled by the sweeper",
			},
		),
		sweepFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_sweep_failures_total",
				Help:      "Per-booking failures during sweeps",
			},
		),
		notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Notification events by stage and result",
			},
			[]string{"event", "stage", "result"},
		),
	}
}

// Init 初始化默认指标收集器，注册到全局注册器，仅生效一次
func Init(namespace string) *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New(namespace, prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// Middleware 返回 Gin 中间件
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 跳过 metrics 端点本身
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		m.httpRequestsInFlight.Inc()

		c.Next()

		m.httpRequestsInFlight.Dec()
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
	}
}

// Handler 返回 Prometheus HTTP 处理器
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// 以下记录方法允许 nil 接收者，未启用指标时直接忽略

// RecordBookingCreated 记录预订创建
func (m *Metrics) RecordBookingCreated() {
	if m == nil {
		return
	}
	m.bookingsCreated.Inc()
}

// RecordBookingConflict 记录预订冲突
func (m *Metrics) RecordBookingConflict(source string) {
	if m == nil {
		return
	}
	m.bookingConflicts.WithLabelValues(source).Inc()
}

// RecordTransition 记录状态流转
func (m *Metrics) RecordTransition(action, result string) {
	if m == nil {
		return
	}
	m.bookingTransitions.WithLabelValues(action, result).Inc()
}

// RecordSweep 记录一次清理
func (m *Metrics) RecordSweep(trigger string, cancelled, failed int) {
	if m == nil {
		return
	}
	m.sweepRuns.WithLabelValues(trigger).Inc()
	m.sweepCancelled.Add(float64(cancelled))
	m.sweepFailures.Add(float64(failed))
}

// RecordNotification 记录通知处理
func (m *Metrics) RecordNotification(event, stage, result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(event, stage, result).Inc()
}
