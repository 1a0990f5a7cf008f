// Package telemetry exposes prometheus metrics about the traffic of a node.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "floodnode"

// Metrics groups the collectors of one engine. Each Metrics owns its
// registry, so several nodes can run in the same process.
type Metrics struct {
	Registry *prometheus.Registry

	MessagesReceived *prometheus.CounterVec
	MessagesSent     *prometheus.CounterVec
	ParseFailures    prometheus.Counter
	NodeErrors       *prometheus.CounterVec
	HandleDuration   prometheus.Histogram

	buildInfo *prometheus.GaugeVec
	startTime time.Time
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		MessagesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_received_total",
				Help:      "Inbound messages, by body type.",
			},
			[]string{"type"},
		),

		MessagesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_sent_total",
				Help:      "Outbound messages, by body type.",
			},
			[]string{"type"},
		),

		ParseFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "parse_failures_total",
				Help:      "Inbound lines that could not be parsed.",
			},
		),

		NodeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "node_errors_total",
				Help:      "Messages rejected by the node, by error code.",
			},
			[]string{"code"},
		),

		HandleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "handle_duration_seconds",
				Help:      "Time spent handling one inbound message.",
				// 10us .. ~160ms.
				Buckets: prometheus.ExponentialBuckets(0.00001, 2, 15),
			},
		),

		buildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "build_info",
				Help:      "Build info (constant 1, labeled by version and agent).",
			},
			[]string{"version", "agent"},
		),

		startTime: time.Now(),
	}

	uptime := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Node uptime in seconds.",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	m.Registry.MustRegister(
		m.MessagesReceived,
		m.MessagesSent,
		m.ParseFailures,
		m.NodeErrors,
		m.HandleDuration,
		m.buildInfo,
		uptime,
	)

	return m
}

// SetBuildInfo should be called once at startup.
func (m *Metrics) SetBuildInfo(version, agent string) {
	m.buildInfo.WithLabelValues(version, agent).Set(1)
}

// Received counts an inbound message.
func (m *Metrics) Received(msgType string) {
	m.MessagesReceived.WithLabelValues(msgType).Inc()
}

// Sent counts an outbound message.
func (m *Metrics) Sent(msgType string) {
	m.MessagesSent.WithLabelValues(msgType).Inc()
}

// NodeError counts a rejected message. code is negative when the error has no
// code.
func (m *Metrics) NodeError(code int) {
	label := "none"
	if code >= 0 {
		label = strconv.Itoa(code)
	}
	m.NodeErrors.WithLabelValues(label).Inc()
}

// ObserveHandle records the time spent handling a message that started at
// start.
func (m *Metrics) ObserveHandle(start time.Time) {
	m.HandleDuration.Observe(time.Since(start).Seconds())
}

// Handler exposes the registry. Mount it with mux.Handle("/metrics", m.Handler()).
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
