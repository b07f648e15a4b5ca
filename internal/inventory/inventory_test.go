package inventory

import (
	"path/filepath"
	"testing"

	"github.com/dhcpwatch/dhcpwatch/internal/dhcp"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	return s
}

func TestRecordNewDevice(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "inventory.db"))
	defer s.Close()

	osName := "Windows 11"
	class := "Desktop/Laptop"
	err := s.Record(&dhcp.Request{
		Timestamp:   "2026-08-24T10:00:00Z",
		SourceIP:    "192.168.1.50",
		MACAddress:  "aa:bb:cc:dd:ee:01",
		Hostname:    "DESKTOP-ABC123",
		OSName:      &osName,
		DeviceClass: &class,
	})
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}

	d := s.Get("aa:bb:cc:dd:ee:01")
	if d == nil {
		t.Fatal("device not found")
	}
	if d.FirstSeen != "2026-08-24T10:00:00Z" || d.LastSeen != d.FirstSeen {
		t.Errorf("first/last seen = %s/%s", d.FirstSeen, d.LastSeen)
	}
	if d.RequestCount != 1 {
		t.Errorf("RequestCount = %d, want 1", d.RequestCount)
	}
	if d.LastIP != "192.168.1.50" {
		t.Errorf("LastIP = %s, want 192.168.1.50", d.LastIP)
	}
	if d.OSName == nil || *d.OSName != "Windows 11" {
		t.Errorf("OSName = %v, want Windows 11", d.OSName)
	}
}

func TestRecordUpdatesExisting(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "inventory.db"))
	defer s.Close()

	first := &dhcp.Request{
		Timestamp:  "2026-08-24T10:00:00Z",
		SourceIP:   "0.0.0.0",
		MACAddress: "aa:bb:cc:dd:ee:01",
	}
	second := &dhcp.Request{
		Timestamp:  "2026-08-24T10:05:00Z",
		SourceIP:   "192.168.1.50",
		MACAddress: "aa:bb:cc:dd:ee:01",
		Hostname:   "laptop",
	}
	for _, req := range []*dhcp.Request{first, second} {
		if err := s.Record(req); err != nil {
			t.Fatalf("Record error: %v", err)
		}
	}

	d := s.Get("aa:bb:cc:dd:ee:01")
	if d.RequestCount != 2 {
		t.Errorf("RequestCount = %d, want 2", d.RequestCount)
	}
	if d.FirstSeen != "2026-08-24T10:00:00Z" {
		t.Errorf("FirstSeen = %s, want original timestamp", d.FirstSeen)
	}
	if d.LastSeen != "2026-08-24T10:05:00Z" {
		t.Errorf("LastSeen = %s, want updated timestamp", d.LastSeen)
	}
	// 0.0.0.0 from the DISCOVER never lands in LastIP.
	if d.LastIP != "192.168.1.50" {
		t.Errorf("LastIP = %s, want 192.168.1.50", d.LastIP)
	}
	if d.Hostname != "laptop" {
		t.Errorf("Hostname = %s, want laptop", d.Hostname)
	}
}

func TestRecordIgnoresEmptyMAC(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "inventory.db"))
	defer s.Close()

	if err := s.Record(&dhcp.Request{Timestamp: "2026-08-24T10:00:00Z"}); err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if s.Count() != 0 {
		t.Errorf("Count = %d, want 0", s.Count())
	}
}

func TestSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.db")

	s := openTestStore(t, path)
	if err := s.Record(&dhcp.Request{
		Timestamp:  "2026-08-24T10:00:00Z",
		SourceIP:   "192.168.1.50",
		MACAddress: "aa:bb:cc:dd:ee:01",
	}); err != nil {
		t.Fatalf("Record error: %v", err)
	}
	s.Close()

	s2 := openTestStore(t, path)
	defer s2.Close()
	d := s2.Get("aa:bb:cc:dd:ee:01")
	if d == nil {
		t.Fatal("device lost across reopen")
	}
	if d.RequestCount != 1 {
		t.Errorf("RequestCount = %d, want 1", d.RequestCount)
	}
}

func TestAllSorted(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "inventory.db"))
	defer s.Close()

	for _, mac := range []string{"cc:00:00:00:00:01", "aa:00:00:00:00:01", "bb:00:00:00:00:01"} {
		if err := s.Record(&dhcp.Request{Timestamp: "2026-08-24T10:00:00Z", MACAddress: mac}); err != nil {
			t.Fatalf("Record error: %v", err)
		}
	}

	all := s.All()
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	for i, want := range []string{"aa:00:00:00:00:01", "bb:00:00:00:00:01", "cc:00:00:00:00:01"} {
		if all[i].MACAddress != want {
			t.Errorf("All[%d] = %s, want %s", i, all[i].MACAddress, want)
		}
	}
}
