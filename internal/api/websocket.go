package api

import (
	"golang.org/x/net/websocket"

	"github.com/dhcpwatch/dhcpwatch/internal/metrics"
)

// wsPrimingBurst is how many ring entries a new client receives before the
// live stream starts.
const wsPrimingBurst = 50

// handleWebsocket streams enriched requests to the client, one JSON
// document per message. New clients first receive the newest ring entries
// so their view is populated immediately.
func (s *Server) handleWebsocket(ws *websocket.Conn) {
	defer ws.Close()

	metrics.WebsocketClients.Inc()
	defer metrics.WebsocketClients.Dec()

	remote := ws.Request().RemoteAddr
	s.logger.Debug("websocket client connected", "remote", remote)

	for _, req := range s.ring.Recent(wsPrimingBurst) {
		if err := websocket.JSON.Send(ws, req); err != nil {
			s.logger.Debug("websocket client gone during priming", "remote", remote)
			return
		}
	}

	id, ch := s.hub.Subscribe()
	defer s.hub.Unsubscribe(id)

	done := ws.Request().Context().Done()
	for {
		select {
		case req, ok := <-ch:
			if !ok {
				return
			}
			if err := websocket.JSON.Send(ws, req); err != nil {
				s.logger.Debug("websocket client disconnected", "remote", remote)
				return
			}
		case <-done:
			return
		}
	}
}
