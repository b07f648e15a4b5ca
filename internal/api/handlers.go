package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dhcpwatch/dhcpwatch/internal/store"
)

const defaultHistoryLimit = 100

// handleHealth reports liveness and basic process info.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"version":        s.version,
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
	})
}

// handleHistory returns the newest ring entries.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultHistoryLimit)
	JSONResponse(w, http.StatusOK, s.ring.Recent(limit))
}

// handleStats returns the aggregate snapshot.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, http.StatusOK, s.collector.Snapshot())
}

// handleSearch filters the ring by MAC, vendor class, and message type.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := queryInt(r, "limit", defaultHistoryLimit)
	results := s.ring.Search(q.Get("mac"), q.Get("msg_type"), q.Get("vendor"), limit)
	JSONResponse(w, http.StatusOK, results)
}

// handleLogs queries the archive with filters and pagination. The total
// matching count goes out in X-Total-Count.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		JSONError(w, http.StatusServiceUnavailable, "store_disabled", "request archive is not enabled")
		return
	}
	filters := parseFilters(r)

	total, err := s.store.Count(r.Context(), filters)
	if err != nil {
		s.logger.Error("log count failed", "error", err)
		JSONError(w, http.StatusInternalServerError, "query_failed", "failed to count requests")
		return
	}

	results, err := s.store.Query(r.Context(), filters)
	if err != nil {
		s.logger.Error("log query failed", "error", err)
		JSONError(w, http.StatusInternalServerError, "query_failed", "failed to query requests")
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	JSONResponse(w, http.StatusOK, results)
}

// handleLogsCount returns the number of rows matching the filters.
func (s *Server) handleLogsCount(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		JSONError(w, http.StatusServiceUnavailable, "store_disabled", "request archive is not enabled")
		return
	}
	count, err := s.store.Count(r.Context(), parseFilters(r))
	if err != nil {
		s.logger.Error("log count failed", "error", err)
		JSONError(w, http.StatusInternalServerError, "query_failed", "failed to count requests")
		return
	}
	JSONResponse(w, http.StatusOK, map[string]int{"count": count})
}

// handleLogsExport streams the archive as CSV or JSON.
func (s *Server) handleLogsExport(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		JSONError(w, http.StatusServiceUnavailable, "store_disabled", "request archive is not enabled")
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	data, err := s.store.Export(r.Context(), parseFilters(r), format)
	if err != nil {
		s.logger.Error("export failed", "format", format, "error", err)
		JSONError(w, http.StatusBadRequest, "export_failed", err.Error())
		return
	}

	switch format {
	case "json":
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="dhcp_requests.json"`)
	default:
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="dhcp_requests.csv"`)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleDevices lists the device registry.
func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	if s.inventory == nil {
		JSONError(w, http.StatusServiceUnavailable, "inventory_disabled", "device inventory is not enabled")
		return
	}
	JSONResponse(w, http.StatusOK, s.inventory.All())
}

// handleDevice returns one device by MAC.
func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	if s.inventory == nil {
		JSONError(w, http.StatusServiceUnavailable, "inventory_disabled", "device inventory is not enabled")
		return
	}
	mac := r.PathValue("mac")
	device := s.inventory.Get(mac)
	if device == nil {
		JSONError(w, http.StatusNotFound, "not_found", "unknown device "+mac)
		return
	}
	JSONResponse(w, http.StatusOK, device)
}

// handleCacheStats reports probe cache occupancy.
func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if s.detector == nil {
		JSONError(w, http.StatusServiceUnavailable, "detection_disabled", "detection is not enabled")
		return
	}
	total, expired := s.detector.CacheStats()
	JSONResponse(w, http.StatusOK, map[string]int{
		"total":   total,
		"expired": expired,
	})
}

// handleCacheClear drops all cached probe results.
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if s.detector == nil {
		JSONError(w, http.StatusServiceUnavailable, "detection_disabled", "detection is not enabled")
		return
	}
	s.detector.ClearCache()
	JSONResponse(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// parseFilters extracts the store filter set from query parameters.
func parseFilters(r *http.Request) store.Filters {
	q := r.URL.Query()
	return store.Filters{
		MAC:         q.Get("mac"),
		Vendor:      q.Get("vendor"),
		XID:         q.Get("xid"),
		MessageType: q.Get("msg_type"),
		From:        q.Get("from"),
		To:          q.Get("to"),
		SortBy:      q.Get("sort_by"),
		SortDesc:    q.Get("sort_dir") != "asc",
		Page:        queryInt(r, "page", 1),
		PageSize:    queryInt(r, "page_size", 100),
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
