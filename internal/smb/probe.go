// Package smb implements an unauthenticated SMB2 NEGOTIATE probe used to
// refine Windows version detection.
package smb

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/dhcpwatch/dhcpwatch/internal/metrics"
)

// ProbeResult is the outcome of one SMB probe. A result is always produced
// for closed ports and connect timeouts; only transport failures after the
// connection is up surface as errors.
type ProbeResult struct {
	OSVersion string
	Build     int
	Dialect   string
	Success   bool
	// NTLMInfo is reserved for NTLMSSP challenge parsing, which would yield
	// the exact OS build.
	NTLMInfo string
}

// Prober negotiates SMB2 dialects against port 445 of observed clients.
type Prober struct {
	logger *slog.Logger
	port   string
}

// NewProber creates a prober.
func NewProber(logger *slog.Logger) *Prober {
	return &Prober{logger: logger, port: "445"}
}

// Probe dials ip:445 and negotiates. The timeout applies to the connect,
// the send, and the read independently. Connect refused and connect
// timeout yield non-success results; send and read failures return an
// error and the caller falls back to its DHCP baseline.
func (p *Prober) Probe(ctx context.Context, ip string, timeout time.Duration) (ProbeResult, error) {
	start := time.Now()
	defer func() {
		metrics.SMBProbeDuration.Observe(time.Since(start).Seconds())
	}()

	p.logger.Debug("probing SMB", "ip", ip)

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(ip, p.port))
	if err != nil {
		metrics.SMBProbes.WithLabelValues("unreachable").Inc()
		if isTimeout(err) {
			p.logger.Debug("SMB connect timeout", "ip", ip, "elapsed", time.Since(start).String())
			return ProbeResult{
				OSVersion: "Unknown (connection timeout)",
				Dialect:   "N/A",
			}, nil
		}
		p.logger.Debug("SMB port closed or filtered", "ip", ip, "error", err)
		return ProbeResult{
			OSVersion: "Unknown (SMB port closed)",
			Dialect:   "N/A",
		}, nil
	}
	defer conn.Close()

	frame := buildNegotiateFrame()
	if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		metrics.SMBProbes.WithLabelValues("error").Inc()
		return ProbeResult{}, fmt.Errorf("setting SMB write deadline: %w", err)
	}
	if _, err := conn.Write(frame); err != nil {
		metrics.SMBProbes.WithLabelValues("error").Inc()
		return ProbeResult{}, fmt.Errorf("sending SMB negotiate to %s: %w", ip, err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		metrics.SMBProbes.WithLabelValues("error").Inc()
		return ProbeResult{}, fmt.Errorf("setting SMB read deadline: %w", err)
	}
	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil {
		metrics.SMBProbes.WithLabelValues("error").Inc()
		return ProbeResult{}, fmt.Errorf("reading SMB response from %s: %w", ip, err)
	}
	if n == 0 {
		metrics.SMBProbes.WithLabelValues("error").Inc()
		return ProbeResult{}, fmt.Errorf("empty SMB response from %s", ip)
	}

	result, err := parseNegotiateResponse(buf[:n])
	if err != nil {
		metrics.SMBProbes.WithLabelValues("error").Inc()
		return ProbeResult{}, fmt.Errorf("parsing SMB response from %s: %w", ip, err)
	}

	metrics.SMBProbes.WithLabelValues("success").Inc()
	p.logger.Debug("SMB negotiate complete",
		"ip", ip, "dialect", result.Dialect, "os_version", result.OSVersion)
	return result, nil
}

// buildNegotiateFrame produces the NetBIOS-framed SMB2 NEGOTIATE request:
// a 4-byte big-endian length prefix, a 64-byte SMB2 header, and a 36-byte
// negotiate body advertising five dialects.
func buildNegotiateFrame() []byte {
	frame := make([]byte, 0, 4+64+36+10)

	// NetBIOS Session Service header, length filled below
	frame = append(frame, 0x00, 0x00, 0x00, 0x00)

	// SMB2 header
	frame = append(frame, 0xFE, 'S', 'M', 'B') // Protocol ID
	frame = append(frame, 0x40, 0x00)          // StructureSize (64)
	frame = append(frame, 0x00, 0x00)          // CreditCharge
	frame = append(frame, 0x00, 0x00, 0x00, 0x00) // Status
	frame = append(frame, 0x00, 0x00)          // Command: NEGOTIATE
	frame = append(frame, 0x00, 0x00)          // CreditRequest
	frame = append(frame, 0x00, 0x00, 0x00, 0x00) // Flags
	frame = append(frame, 0x00, 0x00, 0x00, 0x00) // NextCommand
	frame = append(frame, make([]byte, 8)...)  // MessageId
	frame = append(frame, 0x00, 0x00, 0x00, 0x00) // Reserved
	frame = append(frame, 0x00, 0x00, 0x00, 0x00) // TreeId
	frame = append(frame, make([]byte, 8)...)  // SessionId
	frame = append(frame, make([]byte, 16)...) // Signature

	// Negotiate request body
	frame = append(frame, 0x24, 0x00)          // StructureSize (36)
	frame = append(frame, 0x05, 0x00)          // DialectCount
	frame = append(frame, 0x00, 0x00)          // SecurityMode
	frame = append(frame, 0x00, 0x00)          // Reserved
	frame = append(frame, 0x00, 0x00, 0x00, 0x00) // Capabilities
	frame = append(frame, make([]byte, 16)...) // ClientGuid
	frame = append(frame, make([]byte, 8)...)  // ClientStartTime

	// Dialects, little-endian
	for _, d := range []uint16{DialectSMB202, DialectSMB210, DialectSMB300, DialectSMB302, DialectSMB311} {
		frame = binary.LittleEndian.AppendUint16(frame, d)
	}

	binary.BigEndian.PutUint32(frame[0:4], uint32(len(frame)-4))
	return frame
}

// parseNegotiateResponse validates the SMB2 header and extracts the
// DialectRevision at offset 68.
func parseNegotiateResponse(data []byte) (ProbeResult, error) {
	if len(data) < 68 {
		return ProbeResult{}, fmt.Errorf("response too short: %d bytes", len(data))
	}
	if data[4] != 0xFE || data[5] != 'S' || data[6] != 'M' || data[7] != 'B' {
		return ProbeResult{}, errors.New("invalid SMB2 signature")
	}

	dialect := "SMB 2.x/3.x"
	if len(data) >= 70 {
		dialect = DialectName(binary.LittleEndian.Uint16(data[68:70]))
	}

	osVersion, build := DialectToOS(dialect)
	return ProbeResult{
		OSVersion: osVersion,
		Build:     build,
		Dialect:   dialect,
		Success:   true,
	}, nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded)
}
