package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion metrics
var (
	// MessagesIngested counts chat messages fully processed by the pipeline.
	MessagesIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_ingested_total",
			Help: "Total chat messages processed by the ingestion pipeline",
		},
	)

	// LinesDropped counts inbound IRC lines that were not keepalives and
	// did not parse as chat posts.
	LinesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "irc_lines_dropped_total",
			Help: "Total unrecognized IRC lines silently dropped",
		},
	)

	// KeepalivesAnswered counts PING probes answered with a PONG.
	KeepalivesAnswered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "irc_keepalives_answered_total",
			Help: "Total server PING probes answered",
		},
	)

	// ClassificationFailures counts per-message classifier errors.
	ClassificationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "classification_failures_total",
			Help: "Total messages the classifier failed to score",
		},
	)

	// PersistenceFailures counts failed database writes by statement.
	PersistenceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persistence_failures_total",
			Help: "Total failed database writes by statement",
		},
		[]string{"statement"},
	)

	// BreakerState tracks the persistence circuit breaker state
	// (0=closed, 1=half-open, 2=open).
	BreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "persistence_breaker_state",
			Help: "Persistence circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)

// Streaming metrics
var (
	// ConnectedSubscribers tracks currently connected dashboard subscribers.
	ConnectedSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stream_connected_subscribers",
			Help: "Number of connected dashboard stream subscribers",
		},
	)

	// BroadcastErrors counts publisher ticks that produced an error payload.
	BroadcastErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_broadcast_errors_total",
			Help: "Total publisher ticks that yielded an error payload",
		},
	)

	// SnapshotsPublished counts aggregate snapshots pushed to subscribers.
	SnapshotsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_snapshots_published_total",
			Help: "Total aggregate snapshots pushed to subscribers",
		},
	)
)
