// Package metrics exposes Prometheus instrumentation for the client. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "anaclient"

// Response outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeError     = "error"
	OutcomeInvalid   = "invalid"
	OutcomeAbandoned = "abandoned"
	OutcomeUnmatched = "unmatched"
)

// Metrics holds the client's collectors.
type Metrics struct {
	RequestsSent    *prometheus.CounterVec
	Responses       *prometheus.CounterVec
	Notifications   *prometheus.CounterVec
	CrashReports    prometheus.Counter
	PendingCalls    prometheus.Gauge
	ResponseLatency *prometheus.HistogramVec
	EngineRestarts  prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg skips
// registration.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		RequestsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "requests",
				Name:      "sent_total",
				Help:      "Total number of requests sent to the engine",
			},
			[]string{"method"},
		),

		Responses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "responses",
				Name:      "total",
				Help:      "Total number of responses by outcome",
			},
			[]string{"outcome"},
		),

		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "notifications",
				Name:      "received_total",
				Help:      "Total number of notifications received, unknown events counted as \"unknown\"",
			},
			[]string{"event"},
		),

		CrashReports: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "crash_reports_total",
				Help:      "Total number of crash reports recovered from engine diagnostics",
			},
		),

		PendingCalls: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "requests",
				Name:      "pending",
				Help:      "Number of requests awaiting a response",
			},
		),

		ResponseLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "responses",
				Name:      "latency_seconds",
				Help:      "Time from sending a request to handling its response",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),

		EngineRestarts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "restarts_total",
				Help:      "Total number of supervised engine restarts",
			},
		),
	}

	if reg == nil {
		return m, nil
	}

	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RequestsSent,
		m.Responses,
		m.Notifications,
		m.CrashReports,
		m.PendingCalls,
		m.ResponseLatency,
		m.EngineRestarts,
	}
}

// RequestSent counts an outbound request.
func (m *Metrics) RequestSent(method string) {
	if m == nil {
		return
	}
	m.RequestsSent.WithLabelValues(method).Inc()
}

// ResponseHandled counts a response and observes its latency. A zero sentAt
// skips the latency observation.
func (m *Metrics) ResponseHandled(method, outcome string, sentAt time.Time) {
	if m == nil {
		return
	}
	m.Responses.WithLabelValues(outcome).Inc()
	if !sentAt.IsZero() {
		m.ResponseLatency.WithLabelValues(method).Observe(time.Since(sentAt).Seconds())
	}
}

// NotificationReceived counts a notification. Unknown events share a single
// label value.
func (m *Metrics) NotificationReceived(event string, known bool) {
	if m == nil {
		return
	}
	if !known {
		event = "unknown"
	}
	m.Notifications.WithLabelValues(event).Inc()
}

// CrashReported counts a recovered crash report.
func (m *Metrics) CrashReported() {
	if m == nil {
		return
	}
	m.CrashReports.Inc()
}

// SetPending records the number of pending calls.
func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.PendingCalls.Set(float64(n))
}

// EngineRestarted counts a supervised restart.
func (m *Metrics) EngineRestarted() {
	if m == nil {
		return
	}
	m.EngineRestarts.Inc()
}
