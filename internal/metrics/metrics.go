// Package metrics defines all Prometheus metrics for dhcpwatch.
// All metrics use the "dhcpwatch_" prefix.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dhcpwatch"

// --- Packet Metrics ---

var (
	// PacketsReceived counts DHCP packets received by message type.
	PacketsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "packets_received_total",
		Help:      "Total DHCP packets received, by message type.",
	}, []string{"msg_type"})

	// PacketDecodeErrors counts datagrams dropped as malformed.
	PacketDecodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "packet_decode_errors_total",
		Help:      "Total datagrams dropped due to decode failure.",
	})

	// PacketProcessingDuration tracks end-to-end pipeline latency per packet.
	PacketProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "packet_processing_duration_seconds",
		Help:      "Packet processing duration in seconds.",
		Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 10.0},
	}, []string{"msg_type"})
)

// --- Detection Metrics ---

var (
	// Detections counts OS classifications by detection method.
	Detections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "detections_total",
		Help:      "Total OS detections, by method.",
	}, []string{"method"})

	// SMBProbes counts SMB probe attempts by result.
	SMBProbes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "smb_probes_total",
		Help:      "Total SMB probes performed, by result.",
	}, []string{"result"})

	// SMBProbeDuration tracks SMB probe latency.
	SMBProbeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "smb_probe_duration_seconds",
		Help:      "SMB probe duration in seconds.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1.0, 3.0, 6.0, 10.0},
	})

	// ProbeCacheHits counts SMB probe cache hits.
	ProbeCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "probe_cache_hits_total",
		Help:      "Total SMB probe cache hits.",
	})

	// ProbeCacheMisses counts SMB probe cache misses.
	ProbeCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "probe_cache_misses_total",
		Help:      "Total SMB probe cache misses.",
	})
)

// --- Persistence Metrics ---

var (
	// StoreInserts counts relational store inserts by result.
	StoreInserts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_inserts_total",
		Help:      "Total database inserts, by result.",
	}, []string{"result"})

	// RequestLogErrors counts failed JSON log appends.
	RequestLogErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "request_log_errors_total",
		Help:      "Total failed request log writes.",
	})
)

// --- Broadcast Metrics ---

var (
	// HubPublished counts requests delivered to at least one subscriber.
	HubPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hub_published_total",
		Help:      "Total requests published to the broadcast hub.",
	})

	// HubDropped counts requests dropped for slow or absent subscribers.
	HubDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hub_dropped_total",
		Help:      "Total broadcast items dropped due to full subscriber buffers.",
	})

	// WebsocketClients is a gauge of connected websocket viewers.
	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "websocket_clients",
		Help:      "Number of connected websocket clients.",
	})
)

// --- API Metrics ---

var (
	// APIRequests counts HTTP API requests by method, path, and status.
	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "Total HTTP API requests.",
	}, []string{"method", "path", "status"})

	// APIRequestDuration tracks API request latency.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "HTTP API request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// --- Server Info ---

var (
	// ServerInfo is a constant gauge with build metadata.
	ServerInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "server_info",
		Help:      "Server build and version info.",
	}, []string{"version"})

	// ServerStartTime records process start as a Unix timestamp.
	ServerStartTime = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "server_start_time_seconds",
		Help:      "Server start time as Unix timestamp.",
	})
)
