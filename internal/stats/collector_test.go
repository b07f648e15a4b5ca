package stats

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestCollectorCounts(t *testing.T) {
	c := NewCollector()
	c.Record("aa:bb:cc:dd:ee:01", "DISCOVER", "MSFT 5.0")
	c.Record("aa:bb:cc:dd:ee:01", "REQUEST", "MSFT 5.0")
	c.Record("aa:bb:cc:dd:ee:02", "DISCOVER", "")

	snap := c.Snapshot()
	if snap.TotalRequests != 3 {
		t.Errorf("TotalRequests = %d, want 3", snap.TotalRequests)
	}
	if snap.RequestTypes["DISCOVER"] != 2 || snap.RequestTypes["REQUEST"] != 1 {
		t.Errorf("RequestTypes = %v, want DISCOVER:2 REQUEST:1", snap.RequestTypes)
	}
	if snap.UniqueMACs != 2 {
		t.Errorf("UniqueMACs = %d, want 2", snap.UniqueMACs)
	}
	if snap.VendorClasses["MSFT 5.0"] != 2 {
		t.Errorf("VendorClasses = %v, want MSFT 5.0:2", snap.VendorClasses)
	}
	if len(snap.VendorClasses) != 1 {
		t.Errorf("empty vendor class should not be counted, got %v", snap.VendorClasses)
	}
}

func TestCollectorRequestsPerMinute(t *testing.T) {
	c := NewCollector()
	base := c.startedAt
	c.now = func() time.Time { return base.Add(120 * time.Second) }

	for i := 0; i < 10; i++ {
		c.Record("aa:bb:cc:dd:ee:01", "DISCOVER", "")
	}

	snap := c.Snapshot()
	if snap.UptimeSeconds != 120 {
		t.Errorf("UptimeSeconds = %d, want 120", snap.UptimeSeconds)
	}
	// 10 requests over 2 minutes.
	if snap.RequestsPerMinute != 5.0 {
		t.Errorf("RequestsPerMinute = %v, want 5.0", snap.RequestsPerMinute)
	}
}

func TestCollectorZeroElapsed(t *testing.T) {
	c := NewCollector()
	c.now = func() time.Time { return c.startedAt }
	c.Record("aa:bb:cc:dd:ee:01", "DISCOVER", "")

	snap := c.Snapshot()
	if snap.RequestsPerMinute != 0 {
		t.Errorf("RequestsPerMinute = %v, want 0 before a full second elapses", snap.RequestsPerMinute)
	}
}

func TestCollectorConcurrentRecords(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				mac := fmt.Sprintf("aa:bb:cc:dd:%02x:%02x", g, i)
				c.Record(mac, "REQUEST", "")
			}
		}(g)
	}
	wg.Wait()

	snap := c.Snapshot()
	if snap.TotalRequests != 800 {
		t.Errorf("TotalRequests = %d, want 800", snap.TotalRequests)
	}
	if snap.UniqueMACs != 800 {
		t.Errorf("UniqueMACs = %d, want 800", snap.UniqueMACs)
	}
}
