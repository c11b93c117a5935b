package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and
// the reset engine.
type MetricsService struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	runsTotal         *prometheus.CounterVec
	runDuration       *prometheus.HistogramVec
	notificationsSent prometheus.Counter
	affectedUsers     prometheus.Histogram
	schedulerTicks    prometheus.Counter
}

// NewMetricsService registers the collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	runsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reset_runs_total",
		Help: "Total number of reset runs by trigger method and outcome",
	}, []string{"method", "outcome"})

	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reset_run_duration_seconds",
		Help:    "Wall-clock duration of successful reset runs",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
	}, []string{"method"})

	notificationsSent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reset_notifications_sent_total",
		Help: "Total advance-notification mails handed to the mailer",
	})

	affectedUsers := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "reset_affected_users",
		Help:    "Number of users affected per successful reset run",
		Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000},
	})

	schedulerTicks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_ticks_total",
		Help: "Total periodic scheduler passes",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, runsTotal, runDuration, notificationsSent, affectedUsers, schedulerTicks, goroutines)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		runsTotal:         runsTotal,
		runDuration:       runDuration,
		notificationsSent: notificationsSent,
		affectedUsers:     affectedUsers,
		schedulerTicks:    schedulerTicks,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveRun records one reset run attempt.
func (m *MetricsService) ObserveRun(method, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(method, outcome).Inc()
	if outcome == "success" {
		m.runDuration.WithLabelValues(method).Observe(duration.Seconds())
	}
}

// ObserveAffectedUsers records the audience size of one successful run.
func (m *MetricsService) ObserveAffectedUsers(n int) {
	if m == nil {
		return
	}
	m.affectedUsers.Observe(float64(n))
}

// AddNotificationsSent counts mails handed to the mailer.
func (m *MetricsService) AddNotificationsSent(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.notificationsSent.Add(float64(n))
}

// ObserveTick counts one periodic scheduler pass.
func (m *MetricsService) ObserveTick() {
	if m == nil {
		return
	}
	m.schedulerTicks.Inc()
}
