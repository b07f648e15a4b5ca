package dhcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
)

// Handler consumes one raw datagram. Implementations own the full pipeline
// for the packet; the listener never inspects payloads itself.
type Handler interface {
	HandlePacket(ctx context.Context, data []byte, src *net.UDPAddr)
}

// Listener is the passive UDP capture loop. It binds the DHCP server port,
// reads datagrams, and fans each one out to the handler on its own
// goroutine. It never transmits.
type Listener struct {
	addr    string
	handler Handler
	logger  *slog.Logger

	conn *net.UDPConn
	wg   sync.WaitGroup
}

// NewListener creates a listener bound to addr (host:port).
func NewListener(addr string, handler Handler, logger *slog.Logger) *Listener {
	return &Listener{
		addr:    addr,
		handler: handler,
		logger:  logger,
	}
}

// Start binds the UDP socket. Fails fast on bind errors so startup can
// abort before any background work begins.
func (l *Listener) Start() error {
	udpAddr, err := net.ResolveUDPAddr("udp4", l.addr)
	if err != nil {
		return fmt.Errorf("resolving listen address %s: %w", l.addr, err)
	}

	conn, err := net.ListenUDP("udp4", udpAddr)
	if err != nil {
		return fmt.Errorf("binding UDP listener to %s: %w", l.addr, err)
	}
	l.conn = conn

	l.logger.Info("DHCP listener started", "address", l.addr)
	return nil
}

// Serve reads datagrams until the context is cancelled or the socket is
// closed. Each datagram is handled on its own goroutine; receive errors are
// logged and the loop continues.
func (l *Listener) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		l.conn.Close()
	}()

	for {
		buf := GetBuffer()
		n, src, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			PutBuffer(buf)
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			l.logger.Error("UDP receive failed", "error", err)
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		PutBuffer(buf)

		l.wg.Add(1)
		go func(data []byte, src *net.UDPAddr) {
			defer l.wg.Done()
			l.handler.HandlePacket(ctx, data, src)
		}(data, src)
	}
}

// Wait blocks until all in-flight packet handlers finish.
func (l *Listener) Wait() {
	l.wg.Wait()
}

// Addr returns the bound socket address, nil before Start.
func (l *Listener) Addr() net.Addr {
	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr()
}
