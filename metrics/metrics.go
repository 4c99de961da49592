package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels for ReportsSubmittedTotal
const (
	ResultOK      = "ok"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

var (
	once sync.Once

	// ReportsSubmittedTotal counts report submissions by outcome.
	ReportsSubmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "incidentboard",
		Name:      "reports_submitted_total",
		Help:      "Total number of report submissions, labeled by result.",
	}, []string{"result"})

	// IngestDurationSeconds is the time from validation to broadcast for a stored report.
	IngestDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "incidentboard",
		Name:      "ingest_duration_seconds",
		Help:      "Time to validate, persist, aggregate and broadcast a report.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	// WSSessions is the current number of connected realtime sessions.
	WSSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "incidentboard",
		Name:      "ws_sessions",
		Help:      "Current number of connected WebSocket sessions.",
	})

	// BroadcastsTotal counts snapshots fanned out to all sessions.
	BroadcastsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "incidentboard",
		Name:      "broadcasts_total",
		Help:      "Total number of count snapshots broadcast to connected sessions.",
	})

	// DroppedSessionsTotal counts sessions dropped because their send buffer was full.
	DroppedSessionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "incidentboard",
		Name:      "ws_dropped_sessions_total",
		Help:      "Total number of WebSocket sessions dropped for not keeping up with broadcasts.",
	})
)

// Register registers the service metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ReportsSubmittedTotal,
			IngestDurationSeconds,
			WSSessions,
			BroadcastsTotal,
			DroppedSessionsTotal,
		)
	})
}
