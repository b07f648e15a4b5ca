// Package detector fuses DHCP fingerprint lookups with SMB probe
// refinement into a single OS classification.
package detector

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dhcpwatch/dhcpwatch/internal/fingerprint"
	"github.com/dhcpwatch/dhcpwatch/internal/metrics"
	"github.com/dhcpwatch/dhcpwatch/internal/smb"
)

// Detection methods reported on enriched requests.
const (
	MethodLookup = "MAC/Fingerprint lookup"
	MethodNone   = "None"
)

// lookupConfidence is assigned to both fingerprint hits and successful SMB
// refinements.
const lookupConfidence = 0.95

// Result is the outcome of one classification.
type Result struct {
	OSName      string
	DeviceClass string
	Vendor      string
	Confidence  float64
	Method      string
	SMBDialect  *string
	SMBBuild    *int
}

// SMBProber abstracts the network probe for testing.
type SMBProber interface {
	Probe(ctx context.Context, ip string, timeout time.Duration) (smb.ProbeResult, error)
}

// Options configures the detector.
type Options struct {
	EnableSMBProbing bool
	SMBTimeout       time.Duration
	// ConfidenceThreshold is accepted for configuration compatibility but
	// not consulted by the probe policy. Reserved.
	ConfidenceThreshold float64
	// PingFailureProceeds: when the reachability check errors out (rather
	// than reporting the host down), probe anyway.
	PingFailureProceeds bool
}

// Detector classifies clients. The fingerprint DB provides the baseline;
// Windows clients with a reachable address may be refined via SMB.
type Detector struct {
	db     *fingerprint.DB
	prober SMBProber
	pinger Pinger
	cache  *Cache
	opts   Options
	logger *slog.Logger
}

// New creates a detector. pinger may be nil to skip reachability checks.
func New(db *fingerprint.DB, prober SMBProber, pinger Pinger, cache *Cache, opts Options, logger *slog.Logger) *Detector {
	return &Detector{
		db:     db,
		prober: prober,
		pinger: pinger,
		cache:  cache,
		opts:   opts,
		logger: logger,
	}
}

// Detect classifies one observation.
//
// The DHCP baseline always computes first: a MAC override or exact
// fingerprint hit yields confidence 0.95, a miss yields Unknown. SMB
// refinement runs only when probing is enabled, the source address is
// usable, and the vendor class marks a Microsoft client; any probe failure
// falls back to the baseline unchanged.
func (d *Detector) Detect(ctx context.Context, mac, ip, fp, vendorClass string) Result {
	baseline := d.baseline(mac, fp)

	if !d.shouldProbe(ip, vendorClass) {
		metrics.Detections.WithLabelValues(baseline.Method).Inc()
		return baseline
	}

	if d.pinger != nil {
		reachable, err := d.pinger.Ping(ctx, ip)
		if err == nil && !reachable {
			d.logger.Debug("host unreachable, skipping SMB probe", "ip", ip)
			metrics.Detections.WithLabelValues(baseline.Method).Inc()
			return baseline
		}
		if err != nil {
			if !d.opts.PingFailureProceeds {
				metrics.Detections.WithLabelValues(baseline.Method).Inc()
				return baseline
			}
			d.logger.Debug("reachability check unavailable, probing anyway",
				"ip", ip, "error", err)
		}
	}

	if cached, ok := d.cache.Get(ip); ok && cached.Success {
		metrics.ProbeCacheHits.Inc()
		result := fuse(baseline, cached)
		metrics.Detections.WithLabelValues(result.Method).Inc()
		return result
	}
	metrics.ProbeCacheMisses.Inc()

	probe, err := d.prober.Probe(ctx, ip, d.opts.SMBTimeout)
	if err != nil {
		d.logger.Debug("SMB probe transport error, keeping baseline", "ip", ip, "error", err)
		metrics.Detections.WithLabelValues(baseline.Method).Inc()
		return baseline
	}
	if !probe.Success {
		d.logger.Debug("SMB probe unsuccessful, keeping baseline",
			"ip", ip, "os_version", probe.OSVersion)
		metrics.Detections.WithLabelValues(baseline.Method).Inc()
		return baseline
	}

	d.cache.Put(ip, probe)
	result := fuse(baseline, probe)
	metrics.Detections.WithLabelValues(result.Method).Inc()
	return result
}

// baseline computes the pure DHCP classification.
func (d *Detector) baseline(mac, fp string) Result {
	if info, ok := d.db.LookupOS(mac, fp); ok {
		return Result{
			OSName:      info.OSName,
			DeviceClass: info.DeviceClass,
			Vendor:      info.Vendor,
			Confidence:  lookupConfidence,
			Method:      MethodLookup,
		}
	}
	return Result{
		OSName:      "Unknown",
		DeviceClass: "Unknown",
		Vendor:      "Unknown",
		Confidence:  0.0,
		Method:      MethodNone,
	}
}

// shouldProbe gates SMB refinement: probing enabled, a usable source
// address, and a vendor class containing "MSFT".
func (d *Detector) shouldProbe(ip, vendorClass string) bool {
	if !d.opts.EnableSMBProbing {
		return false
	}
	if ip == "" || ip == "0.0.0.0" {
		return false
	}
	return strings.Contains(vendorClass, "MSFT")
}

// fuse overlays a successful probe onto the baseline. The device class is
// the baseline's; everything else comes from the probe.
func fuse(baseline Result, probe smb.ProbeResult) Result {
	dialect := probe.Dialect
	method := "SMB probe (" + dialect + ")"
	result := Result{
		OSName:      probe.OSVersion,
		DeviceClass: baseline.DeviceClass,
		Vendor:      "Microsoft",
		Confidence:  lookupConfidence,
		Method:      method,
		SMBDialect:  &dialect,
	}
	if probe.Build != 0 {
		build := probe.Build
		result.SMBBuild = &build
	}
	return result
}

// ClearCache drops all cached probe results.
func (d *Detector) ClearCache() {
	d.cache.Clear()
}

// CacheStats reports resident and expired probe cache entries.
func (d *Detector) CacheStats() (total, expired int) {
	return d.cache.Stats()
}
