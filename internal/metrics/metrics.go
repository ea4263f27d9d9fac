package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "postpilot"

// Metrics groups every collector the server exports on /metrics.
type Metrics struct {
	// Real-time hub
	HubConnections   prometheus.Gauge
	HubMessages      *prometheus.CounterVec
	HubDroppedClient *prometheus.CounterVec

	// Detector
	SweepDuration prometheus.Histogram
	SweepFailures *prometheus.CounterVec
	PostsPromoted prometheus.Counter

	// Post lifecycle
	PostTransitions *prometheus.CounterVec
	PostsByStatus   *prometheus.GaugeVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HubConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hub_connections",
			Help:      "Number of currently connected websocket clients",
		}),
		HubMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hub_messages_total",
			Help:      "Websocket messages by direction and type",
		}, []string{"direction", "type"}),
		HubDroppedClient: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hub_dropped_clients_total",
			Help:      "Clients removed by the hub, by reason",
		}, []string{"reason"}),

		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "detector_sweep_duration_seconds",
			Help:      "Duration of due-post detector sweeps",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		SweepFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detector_failures_total",
			Help:      "Detector failures by stage",
		}, []string{"stage"}),
		PostsPromoted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_promoted_total",
			Help:      "Posts promoted to posting by the detector or on client connect",
		}),

		PostTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "post_transitions_total",
			Help:      "Post status transitions",
		}, []string{"from", "to"}),
		PostsByStatus: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "posts",
			Help:      "Stored posts by status",
		}, []string{"status"}),
	}
}

// NewNop returns collectors registered nowhere.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
