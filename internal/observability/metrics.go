// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the indexer.
type Metrics struct {
	// Accounting metrics
	EventsProcessed  *prometheus.CounterVec
	HandlerErrors    *prometheus.CounterVec
	DuplicateEvents  *prometheus.CounterVec
	VaultsCreated    prometheus.Counter
	SnapshotsWritten prometheus.Counter

	// Ingestion metrics
	LogsReceived    prometheus.Counter
	LogsDecoded     *prometheus.CounterVec
	DecodeSkips     prometheus.Counter
	HighestBlock    prometheus.Gauge
	BlockBufferSize prometheus.Gauge

	// RPC metrics
	RPCCallLatency *prometheus.HistogramVec
	RPCCallErrors  *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "alm_vault_indexer"
	}

	return &Metrics{
		EventsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "accounting",
			Name:      "events_processed_total",
			Help:      "Total number of events processed by kind",
		}, []string{"kind"}),
		HandlerErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "accounting",
			Name:      "handler_errors_total",
			Help:      "Total number of handler failures by kind",
		}, []string{"kind"}),
		DuplicateEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "accounting",
			Name:      "duplicate_events_total",
			Help:      "Total number of redelivered events skipped by kind",
		}, []string{"kind"}),
		VaultsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "accounting",
			Name:      "vaults_created_total",
			Help:      "Total number of vault records created",
		}),
		SnapshotsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "accounting",
			Name:      "apr_snapshots_written_total",
			Help:      "Total number of APR snapshot rows written",
		}),

		LogsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "logs_received_total",
			Help:      "Total number of raw logs received",
		}),
		LogsDecoded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "logs_decoded_total",
			Help:      "Total number of logs decoded into events by kind",
		}, []string{"kind"}),
		DecodeSkips: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "decode_skips_total",
			Help:      "Total number of logs skipped as unknown or malformed",
		}),
		HighestBlock: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "highest_block_seen",
			Help:      "Highest block number seen",
		}),
		BlockBufferSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "block_buffer_size",
			Help:      "Current number of blocks held in the reorder buffer",
		}),

		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "evm",
			Name:      "rpc_call_latency_seconds",
			Help:      "JSON-RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evm",
			Name:      "rpc_call_errors_total",
			Help:      "Total number of JSON-RPC call failures by method",
		}, []string{"method"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
