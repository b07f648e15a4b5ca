// Package requestlog appends observed requests to a JSON-lines file.
package requestlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/dhcpwatch/dhcpwatch/internal/dhcp"
	"github.com/dhcpwatch/dhcpwatch/internal/metrics"
)

// Writer serializes one request per line. Append and flush happen under a
// single mutex so concurrent processors never interleave lines.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	buf  *bufio.Writer
}

// Open opens or creates the log file in append mode.
func Open(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening request log %s: %w", path, err)
	}
	return &Writer{file: f, buf: bufio.NewWriter(f)}, nil
}

// Append writes one request as a JSON line and flushes.
func (w *Writer) Append(req *dhcp.Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		metrics.RequestLogErrors.Inc()
		return fmt.Errorf("encoding request log entry: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.buf.Write(data); err != nil {
		metrics.RequestLogErrors.Inc()
		return fmt.Errorf("writing request log entry: %w", err)
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		metrics.RequestLogErrors.Inc()
		return fmt.Errorf("writing request log entry: %w", err)
	}
	if err := w.buf.Flush(); err != nil {
		metrics.RequestLogErrors.Inc()
		return fmt.Errorf("flushing request log: %w", err)
	}
	return nil
}

// Close flushes pending data and closes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
