// Package rdns resolves PTR records for observed source addresses.
package rdns

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
)

// cacheEntry holds one resolved name with its expiry.
type cacheEntry struct {
	name      string
	expiresAt time.Time
}

// Resolver performs PTR lookups against a single upstream with an
// in-memory TTL cache. Negative answers are cached too so unresolvable
// hosts do not generate a query per packet.
type Resolver struct {
	server  string
	timeout time.Duration
	ttl     time.Duration
	logger  *slog.Logger

	mu    sync.RWMutex
	cache map[string]cacheEntry
	now   func() time.Time

	exchange func(ctx context.Context, msg *dns.Msg, server string) (*dns.Msg, error)
}

// New creates a resolver. server is host or host:port; port 53 is assumed
// when absent.
func New(server string, timeout, ttl time.Duration, logger *slog.Logger) *Resolver {
	if !strings.Contains(server, ":") {
		server = server + ":53"
	}
	r := &Resolver{
		server:  server,
		timeout: timeout,
		ttl:     ttl,
		logger:  logger,
		cache:   make(map[string]cacheEntry),
		now:     time.Now,
	}
	r.exchange = func(ctx context.Context, msg *dns.Msg, srv string) (*dns.Msg, error) {
		client := &dns.Client{Timeout: r.timeout}
		resp, _, err := client.ExchangeContext(ctx, msg, srv)
		return resp, err
	}
	return r
}

// Lookup returns the PTR name for ip, or empty when the address does not
// resolve. Failures are debug-logged; the caller treats empty as absent.
func (r *Resolver) Lookup(ctx context.Context, ip string) string {
	if name, ok := r.cached(ip); ok {
		return name
	}

	reverse, err := dns.ReverseAddr(ip)
	if err != nil {
		r.logger.Debug("invalid address for PTR lookup", "ip", ip, "error", err)
		return ""
	}

	msg := new(dns.Msg)
	msg.SetQuestion(reverse, dns.TypePTR)
	msg.RecursionDesired = true

	resp, err := r.exchange(ctx, msg, r.server)
	if err != nil {
		r.logger.Debug("PTR lookup failed", "ip", ip, "server", r.server, "error", err)
		return ""
	}

	name := ""
	for _, rr := range resp.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			name = strings.TrimSuffix(ptr.Ptr, ".")
			break
		}
	}

	r.store(ip, name)
	return name
}

func (r *Resolver) cached(ip string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[ip]
	if !ok || r.now().After(entry.expiresAt) {
		return "", false
	}
	return entry.name, true
}

func (r *Resolver) store(ip, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[ip] = cacheEntry{name: name, expiresAt: r.now().Add(r.ttl)}
}

// CacheSize returns the number of resident cache entries.
func (r *Resolver) CacheSize() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}
