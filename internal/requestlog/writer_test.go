package requestlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dhcpwatch/dhcpwatch/internal/dhcp"
)

func TestAppendAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requests.jsonl")
	w, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}

	vendor := "MSFT 5.0"
	reqs := []*dhcp.Request{
		{Timestamp: "2026-08-24T10:00:00Z", MACAddress: "aa:bb:cc:dd:ee:01", MessageType: "DISCOVER", XID: "00000001"},
		{Timestamp: "2026-08-24T10:00:01Z", MACAddress: "aa:bb:cc:dd:ee:02", MessageType: "REQUEST", XID: "00000002", VendorClass: &vendor},
	}
	for _, req := range reqs {
		if err := w.Append(req); err != nil {
			t.Fatalf("Append error: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var lines []dhcp.Request
	for scanner.Scan() {
		var req dhcp.Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			t.Fatalf("line %d not valid JSON: %v", len(lines)+1, err)
		}
		lines = append(lines, req)
	}
	if len(lines) != 2 {
		t.Fatalf("read %d lines, want 2", len(lines))
	}
	if lines[0].MACAddress != "aa:bb:cc:dd:ee:01" {
		t.Errorf("line 1 MAC = %s, want aa:bb:cc:dd:ee:01", lines[0].MACAddress)
	}
	if lines[1].VendorClass == nil || *lines[1].VendorClass != "MSFT 5.0" {
		t.Errorf("line 2 vendor class = %v, want MSFT 5.0", lines[1].VendorClass)
	}
}

func TestAppendReopensExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requests.jsonl")

	for i := 0; i < 2; i++ {
		w, err := Open(path)
		if err != nil {
			t.Fatalf("Open error: %v", err)
		}
		if err := w.Append(&dhcp.Request{XID: fmt.Sprintf("%08x", i)}); err != nil {
			t.Fatalf("Append error: %v", err)
		}
		w.Close()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	count := 0
	for _, b := range data {
		if b == '\n' {
			count++
		}
	}
	if count != 2 {
		t.Errorf("file has %d lines, want 2 after reopen", count)
	}
}

func TestConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requests.jsonl")
	w, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				w.Append(&dhcp.Request{XID: fmt.Sprintf("%04x%04x", g, i)})
			}
		}(g)
	}
	wg.Wait()
	if err := w.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lines := 0
	for scanner.Scan() {
		var req dhcp.Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			t.Fatalf("interleaved or corrupt line %d: %v", lines+1, err)
		}
		lines++
	}
	if lines != 400 {
		t.Errorf("read %d lines, want 400", lines)
	}
}
