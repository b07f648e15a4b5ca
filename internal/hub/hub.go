// Package hub fans observed requests out to live consumers such as
// websocket clients.
package hub

import (
	"sync"

	"github.com/dhcpwatch/dhcpwatch/internal/dhcp"
	"github.com/dhcpwatch/dhcpwatch/internal/metrics"
)

// subscriberBuffer is the per-subscriber channel capacity. A consumer that
// falls further behind loses items and resynchronizes from the history
// ring.
const subscriberBuffer = 100

// Hub is a lossy broadcast registry. Publish never blocks the producer.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]chan *dhcp.Request
	nextID uint64
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{subs: make(map[uint64]chan *dhcp.Request)}
}

// Subscribe registers a consumer and returns its id and receive channel.
// The channel is closed on Unsubscribe.
func (h *Hub) Subscribe() (uint64, <-chan *dhcp.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan *dhcp.Request, subscriberBuffer)
	h.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a consumer and closes its channel. Unknown ids are
// ignored.
func (h *Hub) Unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Publish delivers req to every subscriber that has buffer room. Full
// subscribers drop this item; with no subscribers the item is discarded.
func (h *Hub) Publish(req *dhcp.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- req:
			metrics.HubPublished.Inc()
		default:
			metrics.HubDropped.Inc()
		}
	}
}

// Len returns the current subscriber count.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
