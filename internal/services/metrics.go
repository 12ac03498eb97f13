package services

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the feed service.
type Metrics struct {
	OrchestrationsTotal   *prometheus.CounterVec
	OrchestrationDuration prometheus.Histogram
	FeedSize              *prometheus.GaugeVec
	IngestedTotal         *prometheus.CounterVec
	EscalationsTotal      *prometheus.CounterVec
	WebSocketClients      prometheus.Gauge
}

// NewMetrics registers and returns service metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrchestrationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestrator_runs_total",
			Help: "Feed orchestration passes by result.",
		}, []string{"result"}),
		OrchestrationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "orchestrator_run_duration_seconds",
			Help:    "Wall-clock duration of a feed orchestration pass, snapshot included.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms .. ~1s
		}),
		FeedSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "orchestrator_feed_size",
			Help: "Number of notifications in the last computed feed, by channel.",
		}, []string{"channel"}),
		IngestedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestrator_notifications_ingested_total",
			Help: "Notifications offered to the log, by source and result.",
		}, []string{"source", "result"}),
		EscalationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestrator_escalations_total",
			Help: "Escalation deliveries by provider and result.",
		}, []string{"provider", "result"}),
		WebSocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orchestrator_websocket_clients",
			Help: "Connected feed subscribers.",
		}),
	}
	reg.MustRegister(
		m.OrchestrationsTotal,
		m.OrchestrationDuration,
		m.FeedSize,
		m.IngestedTotal,
		m.EscalationsTotal,
		m.WebSocketClients,
	)
	return m
}
