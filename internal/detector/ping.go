package detector

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

// Pinger reports whether a host answers an echo before we bother dialing
// SMB. The bool is the host's reachability; a non-nil error means the check
// itself could not run and says nothing about the host.
type Pinger interface {
	Ping(ctx context.Context, ip string) (bool, error)
}

// pingDeadline bounds each echo exchange.
const pingDeadline = time.Second

// ICMPPinger sends a single ICMP Echo Request per check. The raw socket is
// opened once and shared; if it cannot be opened (missing CAP_NET_RAW) every
// check reports an error so the caller can decide whether to proceed.
type ICMPPinger struct {
	conn   *icmp.PacketConn
	logger *slog.Logger

	mu  sync.Mutex
	seq uint16
}

// NewICMPPinger opens the shared ICMP socket. Socket failure is not fatal:
// the pinger is returned in degraded mode and logs one loud warning.
func NewICMPPinger(logger *slog.Logger) *ICMPPinger {
	p := &ICMPPinger{logger: logger}

	conn, err := icmp.ListenPacket("ip4:icmp", "0.0.0.0")
	if err != nil {
		logger.Warn("ICMP socket unavailable, reachability checks will report errors",
			"error", err,
			"hint", "grant CAP_NET_RAW or run as root")
		return p
	}

	p.conn = conn
	logger.Info("ICMP pinger initialized")
	return p
}

// Close closes the ICMP socket.
func (p *ICMPPinger) Close() error {
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Ping sends one echo with a one-second deadline. Returns (true, nil) on a
// matching reply, (false, nil) on timeout, and (false, err) when the socket
// is unavailable or the exchange fails outright.
func (p *ICMPPinger) Ping(ctx context.Context, ip string) (bool, error) {
	if p.conn == nil {
		return false, fmt.Errorf("ICMP socket unavailable")
	}

	target := net.ParseIP(ip)
	if target == nil {
		return false, fmt.Errorf("invalid IP %q", ip)
	}

	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	msg := &icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{
			ID:   os.Getpid() & 0xffff,
			Seq:  int(seq),
			Data: []byte("dhcpwatch-probe"),
		},
	}

	msgBytes, err := msg.Marshal(nil)
	if err != nil {
		return false, fmt.Errorf("marshalling ICMP echo request: %w", err)
	}

	deadline := time.Now().Add(pingDeadline)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := p.conn.SetDeadline(deadline); err != nil {
		return false, fmt.Errorf("setting ICMP deadline: %w", err)
	}

	if _, err := p.conn.WriteTo(msgBytes, &net.IPAddr{IP: target}); err != nil {
		return false, fmt.Errorf("sending ICMP echo to %s: %w", ip, err)
	}

	buf := make([]byte, 1500)
	for {
		select {
		case <-ctx.Done():
			return false, nil
		default:
		}

		n, peer, err := p.conn.ReadFrom(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				p.logger.Debug("ping timeout", "ip", ip)
				return false, nil
			}
			return false, fmt.Errorf("reading ICMP reply: %w", err)
		}

		reply, err := icmp.ParseMessage(1, buf[:n]) // 1 = ICMPv4
		if err != nil {
			continue
		}
		if reply.Type != ipv4.ICMPTypeEchoReply {
			continue
		}
		if echo, ok := reply.Body.(*icmp.Echo); ok {
			if echo.ID == os.Getpid()&0xffff && echo.Seq == int(seq) {
				p.logger.Debug("ping reply", "ip", ip, "responder", peer.String())
				return true, nil
			}
		}
	}
}
