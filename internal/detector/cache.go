package detector

import (
	"sync"
	"time"

	"github.com/dhcpwatch/dhcpwatch/internal/smb"
)

// cacheEntry pairs a probe result with its acquisition time in epoch
// seconds.
type cacheEntry struct {
	result     smb.ProbeResult
	acquiredAt int64
}

// Cache holds successful SMB probe results per IP behind a reader/writer
// lock. Expired entries stay resident until overwritten or cleared.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() int64
}

// NewCache creates a cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     func() int64 { return time.Now().Unix() },
	}
}

// Get returns the cached result for ip. The second return is true only for
// entries younger than the TTL; an entry exactly at the TTL is expired.
func (c *Cache) Get(ip string) (smb.ProbeResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[ip]
	if !ok {
		return smb.ProbeResult{}, false
	}
	if c.now()-entry.acquiredAt >= int64(c.ttl.Seconds()) {
		return smb.ProbeResult{}, false
	}
	return entry.result, true
}

// Put stores a probe result for ip, stamped with the current time.
func (c *Cache) Put(ip string, result smb.ProbeResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[ip] = cacheEntry{result: result, acquiredAt: c.now()}
}

// Clear drops all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Stats returns the number of resident entries and how many of those have
// outlived the TTL.
func (c *Cache) Stats() (total, expired int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.now()
	total = len(c.entries)
	for _, entry := range c.entries {
		if now-entry.acquiredAt >= int64(c.ttl.Seconds()) {
			expired++
		}
	}
	return total, expired
}
