// Package history keeps the most recent observed requests in memory for
// the API and websocket priming.
package history

import (
	"strings"
	"sync"

	"github.com/dhcpwatch/dhcpwatch/internal/dhcp"
)

// Ring is a fixed-capacity buffer of requests. When full, the oldest entry
// is overwritten.
type Ring struct {
	mu       sync.RWMutex
	entries  []dhcp.Request
	capacity int
	next     int
	full     bool
}

// NewRing creates a ring holding up to capacity entries.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring{
		entries:  make([]dhcp.Request, capacity),
		capacity: capacity,
	}
}

// Add records a request.
func (r *Ring) Add(req dhcp.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[r.next] = req
	r.next++
	if r.next == r.capacity {
		r.next = 0
		r.full = true
	}
}

// Len returns the number of resident entries.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.full {
		return r.capacity
	}
	return r.next
}

// Recent returns up to limit entries, newest first. limit <= 0 returns
// everything resident.
func (r *Ring) Recent(limit int) []dhcp.Request {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.next
	if r.full {
		n = r.capacity
	}
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]dhcp.Request, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := r.next - i
		if idx < 0 {
			idx += r.capacity
		}
		out = append(out, r.entries[idx])
	}
	return out
}

// Search filters resident entries newest first. mac and vendor match as
// substrings of the MAC address and vendor class; msgType matches the
// message-type name case-insensitively. Empty criteria match everything.
func (r *Ring) Search(mac, msgType, vendor string, limit int) []dhcp.Request {
	all := r.Recent(0)

	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}

	out := make([]dhcp.Request, 0, limit)
	for _, req := range all {
		if mac != "" && !strings.Contains(req.MACAddress, mac) {
			continue
		}
		if msgType != "" && !strings.EqualFold(req.MessageType, msgType) {
			continue
		}
		if vendor != "" {
			if req.VendorClass == nil || !strings.Contains(*req.VendorClass, vendor) {
				continue
			}
		}
		out = append(out, req)
		if len(out) == limit {
			break
		}
	}
	return out
}
