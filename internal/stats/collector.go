// Package stats aggregates counters over the observed request stream.
package stats

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time view of the collector, shaped for the API.
type Snapshot struct {
	TotalRequests     uint64            `json:"total_requests"`
	RequestTypes      map[string]uint64 `json:"request_types"`
	UniqueMACs        uint64            `json:"unique_macs"`
	RequestsPerMinute float64           `json:"requests_per_minute"`
	UptimeSeconds     uint64            `json:"uptime_seconds"`
	LastUpdated       string            `json:"last_updated"`
	VendorClasses     map[string]uint64 `json:"vendor_classes"`
}

// Collector counts requests by type and vendor class and tracks the set of
// distinct client MACs. One mutex guards everything so a snapshot never
// mixes a counter update with a stale set size.
type Collector struct {
	mu           sync.Mutex
	total        uint64
	byType       map[string]uint64
	byVendor     map[string]uint64
	macs         map[string]struct{}
	startedAt    time.Time
	lastUpdated  time.Time
	now          func() time.Time
}

// NewCollector creates a collector anchored at the current time.
func NewCollector() *Collector {
	now := time.Now()
	return &Collector{
		byType:      make(map[string]uint64),
		byVendor:    make(map[string]uint64),
		macs:        make(map[string]struct{}),
		startedAt:   now,
		lastUpdated: now,
		now:         time.Now,
	}
}

// Record counts one request. vendorClass may be empty.
func (c *Collector) Record(mac, messageType, vendorClass string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total++
	c.byType[messageType]++
	if vendorClass != "" {
		c.byVendor[vendorClass]++
	}
	if mac != "" {
		c.macs[mac] = struct{}{}
	}
	c.lastUpdated = c.now()
}

// Snapshot returns a consistent copy of all counters. The rate is computed
// over whole elapsed seconds since startup.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	types := make(map[string]uint64, len(c.byType))
	for k, v := range c.byType {
		types[k] = v
	}
	vendors := make(map[string]uint64, len(c.byVendor))
	for k, v := range c.byVendor {
		vendors[k] = v
	}

	elapsed := uint64(c.now().Sub(c.startedAt).Seconds())
	var perMinute float64
	if elapsed > 0 {
		perMinute = float64(c.total) / (float64(elapsed) / 60.0)
	}

	return Snapshot{
		TotalRequests:     c.total,
		RequestTypes:      types,
		UniqueMACs:        uint64(len(c.macs)),
		RequestsPerMinute: perMinute,
		UptimeSeconds:     elapsed,
		LastUpdated:       c.lastUpdated.UTC().Format(time.RFC3339),
		VendorClasses:     vendors,
	}
}
