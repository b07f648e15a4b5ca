// Package monitor wires the decode, detection, and persistence stages
// behind the UDP listener.
package monitor

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/dhcpwatch/dhcpwatch/internal/detector"
	"github.com/dhcpwatch/dhcpwatch/internal/dhcp"
	"github.com/dhcpwatch/dhcpwatch/internal/history"
	"github.com/dhcpwatch/dhcpwatch/internal/hub"
	"github.com/dhcpwatch/dhcpwatch/internal/metrics"
	"github.com/dhcpwatch/dhcpwatch/internal/stats"
)

// Detector classifies one observation.
type Detector interface {
	Detect(ctx context.Context, mac, ip, fingerprint, vendorClass string) detector.Result
}

// RequestLogger appends one request to the JSON-lines log.
type RequestLogger interface {
	Append(req *dhcp.Request) error
}

// RequestStore persists one request.
type RequestStore interface {
	Insert(ctx context.Context, req *dhcp.Request) error
}

// DeviceRecorder updates the device registry.
type DeviceRecorder interface {
	Record(req *dhcp.Request) error
}

// ReverseResolver maps a source IP to a PTR name; empty means none.
type ReverseResolver interface {
	Lookup(ctx context.Context, ip string) string
}

// Processor turns raw datagrams into enriched, fanned-out requests. The
// log, store, inventory, and resolver fields are optional; nil disables
// that stage.
type Processor struct {
	detector  Detector
	ring      *history.Ring
	stats     *stats.Collector
	hub       *hub.Hub
	log       RequestLogger
	store     RequestStore
	inventory DeviceRecorder
	resolver  ReverseResolver
	logger    *slog.Logger
}

// NewProcessor assembles the pipeline.
func NewProcessor(det Detector, ring *history.Ring, collector *stats.Collector, h *hub.Hub, logger *slog.Logger) *Processor {
	return &Processor{
		detector: det,
		ring:     ring,
		stats:    collector,
		hub:      h,
		logger:   logger,
	}
}

// WithRequestLog attaches the JSON-lines sink.
func (p *Processor) WithRequestLog(log RequestLogger) *Processor {
	p.log = log
	return p
}

// WithStore attaches the relational sink.
func (p *Processor) WithStore(store RequestStore) *Processor {
	p.store = store
	return p
}

// WithInventory attaches the device registry.
func (p *Processor) WithInventory(inv DeviceRecorder) *Processor {
	p.inventory = inv
	return p
}

// WithReverseDNS attaches the PTR enrichment.
func (p *Processor) WithReverseDNS(resolver ReverseResolver) *Processor {
	p.resolver = resolver
	return p
}

// HandlePacket processes one datagram. Malformed input is warned about and
// dropped; sink failures are logged and do not stop the remaining stages.
func (p *Processor) HandlePacket(ctx context.Context, data []byte, src *net.UDPAddr) {
	start := time.Now()

	packet, err := dhcp.DecodePacket(data)
	if err != nil {
		metrics.PacketDecodeErrors.Inc()
		p.logger.Warn("dropping malformed packet",
			"source", src.String(), "size", len(data), "error", err)
		return
	}

	req := dhcp.NewRequest(packet, src)
	metrics.PacketsReceived.WithLabelValues(req.MessageType).Inc()

	result := p.detector.Detect(ctx, req.MACAddress, req.SourceIP, req.Fingerprint, req.VendorClassValue())
	applyResult(req, result)

	if p.resolver != nil && req.SourceIP != "" && req.SourceIP != "0.0.0.0" {
		req.ReverseDNS = p.resolver.Lookup(ctx, req.SourceIP)
	}

	// The request is complete; everything below shares the pointer.
	if p.log != nil {
		if err := p.log.Append(req); err != nil {
			p.logger.Error("request log append failed", "error", err)
		}
	}
	if p.store != nil {
		if err := p.store.Insert(ctx, req); err != nil {
			p.logger.Error("store insert failed", "mac", req.MACAddress, "error", err)
		}
	}
	if p.inventory != nil {
		if err := p.inventory.Record(req); err != nil {
			p.logger.Error("inventory update failed", "mac", req.MACAddress, "error", err)
		}
	}

	p.ring.Add(*req)
	p.stats.Record(req.MACAddress, req.MessageType, req.VendorClassValue())
	p.hub.Publish(req)

	metrics.PacketProcessingDuration.WithLabelValues(req.MessageType).Observe(time.Since(start).Seconds())

	p.logger.Info("observed request",
		"type", req.MessageType,
		"mac", req.MACAddress,
		"source", src.String(),
		"os", result.OSName,
		"method", result.Method)
}

// applyResult overlays the detection outcome onto the request.
func applyResult(req *dhcp.Request, result detector.Result) {
	osName := result.OSName
	deviceClass := result.DeviceClass
	method := result.Method
	confidence := result.Confidence

	req.OSName = &osName
	req.DeviceClass = &deviceClass
	req.DetectionMethod = &method
	req.Confidence = &confidence
	req.SMBDialect = result.SMBDialect
	req.SMBBuild = result.SMBBuild
}
