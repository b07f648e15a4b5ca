// Package api provides the HTTP API server, router, auth, and the live
// websocket stream.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/websocket"

	"github.com/dhcpwatch/dhcpwatch/internal/config"
	"github.com/dhcpwatch/dhcpwatch/internal/detector"
	"github.com/dhcpwatch/dhcpwatch/internal/history"
	"github.com/dhcpwatch/dhcpwatch/internal/hub"
	"github.com/dhcpwatch/dhcpwatch/internal/inventory"
	"github.com/dhcpwatch/dhcpwatch/internal/stats"
	"github.com/dhcpwatch/dhcpwatch/internal/store"
)

// Server is the HTTP API server for dhcpwatch.
type Server struct {
	cfg        *config.Config
	ring       *history.Ring
	collector  *stats.Collector
	hub        *hub.Hub
	store      *store.Store
	inventory  *inventory.Store
	detector   *detector.Detector
	logger     *slog.Logger
	httpServer *http.Server
	auth       *AuthMiddleware
	startTime  time.Time
	version    string
}

// NewServer creates the API server over the always-present in-memory
// surfaces. Optional backends attach via options.
func NewServer(
	cfg *config.Config,
	ring *history.Ring,
	collector *stats.Collector,
	h *hub.Hub,
	logger *slog.Logger,
	opts ...ServerOption,
) *Server {
	s := &Server{
		cfg:       cfg,
		ring:      ring,
		collector: collector,
		hub:       h,
		logger:    logger,
		startTime: time.Now(),
		version:   "dev",
	}

	for _, opt := range opts {
		opt(s)
	}

	s.auth = NewAuthMiddleware(cfg.API, logger)

	return s
}

// ServerOption configures optional Server fields.
type ServerOption func(*Server)

// WithStore sets the relational request archive.
func WithStore(st *store.Store) ServerOption {
	return func(s *Server) { s.store = st }
}

// WithInventory sets the device registry.
func WithInventory(inv *inventory.Store) ServerOption {
	return func(s *Server) { s.inventory = inv }
}

// WithDetector sets the detector, exposing its probe cache endpoints.
func WithDetector(d *detector.Detector) ServerOption {
	return func(s *Server) { s.detector = d }
}

// WithVersion sets the server version string.
func WithVersion(v string) ServerOption {
	return func(s *Server) { s.version = v }
}

// Listen binds the API server to its configured address and prepares
// routes. Call this synchronously to catch port conflicts before starting
// background serve.
func (s *Server) Listen() (net.Listener, error) {
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	handler := newMetricsMiddleware(mux)

	s.httpServer = &http.Server{
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
		// No WriteTimeout: websocket streams need to stay open
	}

	ln, err := net.Listen("tcp", s.cfg.API.Listen)
	if err != nil {
		return nil, fmt.Errorf("binding API server to %s: %w", s.cfg.API.Listen, err)
	}

	s.logger.Info("API server listening", "address", ln.Addr().String())
	return ln, nil
}

// Serve accepts connections on the listener. Blocks until shutdown.
func (s *Server) Serve(ln net.Listener) error {
	if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("API server: %w", err)
	}
	return nil
}

// Start is a convenience that calls Listen + Serve. Blocks until shutdown.
func (s *Server) Start() error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Stop gracefully shuts down the API server.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// registerRoutes sets up all API endpoints.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Prometheus metrics and health check (no auth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", s.handleHealth)

	// Live view
	mux.HandleFunc("GET /api/history", s.auth.RequireAuth(s.handleHistory))
	mux.HandleFunc("GET /api/stats", s.auth.RequireAuth(s.handleStats))
	mux.HandleFunc("GET /api/search", s.auth.RequireAuth(s.handleSearch))

	// Historical archive
	mux.HandleFunc("GET /api/logs", s.auth.RequireAuth(s.handleLogs))
	mux.HandleFunc("GET /api/logs/count", s.auth.RequireAuth(s.handleLogsCount))
	mux.HandleFunc("GET /api/logs/export", s.auth.RequireAuth(s.handleLogsExport))

	// Device inventory
	mux.HandleFunc("GET /api/devices", s.auth.RequireAuth(s.handleDevices))
	mux.HandleFunc("GET /api/devices/{mac}", s.auth.RequireAuth(s.handleDevice))

	// Probe cache
	mux.HandleFunc("GET /api/cache/stats", s.auth.RequireAuth(s.handleCacheStats))
	mux.HandleFunc("POST /api/cache/clear", s.auth.RequireAuth(s.handleCacheClear))

	// Live stream (no auth; the socket only replays what /api/history serves)
	mux.Handle("/ws", websocket.Handler(s.handleWebsocket))
}

// JSONResponse writes a JSON response with the given status code.
func JSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// JSONError writes a JSON error response.
func JSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
		"code":  code,
	})
}
