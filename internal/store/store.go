// Package store persists observed requests in SQLite for the historical
// query and export API.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/dhcpwatch/dhcpwatch/internal/dhcp"
	"github.com/dhcpwatch/dhcpwatch/internal/metrics"
)

const schema = `
CREATE TABLE IF NOT EXISTS dhcp_requests (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp        TEXT NOT NULL,
	source_ip        TEXT NOT NULL,
	source_port      INTEGER NOT NULL,
	mac_address      TEXT NOT NULL,
	message_type     TEXT NOT NULL,
	xid              TEXT NOT NULL,
	fingerprint      TEXT NOT NULL,
	vendor_class     TEXT,
	hostname         TEXT,
	reverse_dns      TEXT,
	os_name          TEXT,
	device_class     TEXT,
	detection_method TEXT,
	confidence       REAL,
	smb_dialect      TEXT,
	smb_build        INTEGER,
	raw_options      TEXT NOT NULL,
	created_at       TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_dhcp_requests_timestamp ON dhcp_requests(timestamp);
CREATE INDEX IF NOT EXISTS idx_dhcp_requests_mac ON dhcp_requests(mac_address);
CREATE INDEX IF NOT EXISTS idx_dhcp_requests_type ON dhcp_requests(message_type);
CREATE INDEX IF NOT EXISTS idx_dhcp_requests_created ON dhcp_requests(created_at);
`

// exportRowLimit caps a single export to keep the response bounded.
const exportRowLimit = 100000

// sortColumns is the allow-list for user-supplied sort columns. Anything
// else falls back to timestamp.
var sortColumns = map[string]bool{
	"timestamp":    true,
	"source_ip":    true,
	"mac_address":  true,
	"message_type": true,
	"xid":          true,
	"os_name":      true,
	"created_at":   true,
}

// Filters narrows queries over the request table. Zero values mean
// unfiltered.
type Filters struct {
	MAC         string
	Vendor      string
	XID         string
	MessageType string
	From        string
	To          string
	SortBy      string
	SortDesc    bool
	Page        int
	PageSize    int
}

// Store is a SQLite-backed request archive.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. maxConns bounds the connection pool.
func Open(path string, maxConns int) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert persists one request. Raw options are stored as a JSON array of
// {code, data} objects so the original TLV stream is recoverable.
func (s *Store) Insert(ctx context.Context, req *dhcp.Request) error {
	rawOptions, err := json.Marshal(req.RawOptions)
	if err != nil {
		metrics.StoreInserts.WithLabelValues("error").Inc()
		return fmt.Errorf("encoding raw options: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO dhcp_requests (
			timestamp, source_ip, source_port, mac_address, message_type,
			xid, fingerprint, vendor_class, hostname, reverse_dns,
			os_name, device_class, detection_method, confidence,
			smb_dialect, smb_build, raw_options
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.Timestamp, req.SourceIP, req.SourcePort, req.MACAddress,
		req.MessageType, req.XID, req.Fingerprint, req.VendorClass,
		nullString(req.Hostname), nullString(req.ReverseDNS),
		req.OSName, req.DeviceClass, req.DetectionMethod, req.Confidence,
		req.SMBDialect, req.SMBBuild, string(rawOptions))
	if err != nil {
		metrics.StoreInserts.WithLabelValues("error").Inc()
		return fmt.Errorf("inserting request: %w", err)
	}
	metrics.StoreInserts.WithLabelValues("ok").Inc()
	return nil
}

// Query returns the matching page of requests.
func (s *Store) Query(ctx context.Context, f Filters) ([]dhcp.Request, error) {
	where, args := buildWhere(f)

	sortBy := f.SortBy
	if !sortColumns[sortBy] {
		sortBy = "timestamp"
	}
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize < 1 {
		pageSize = 100
	}

	query := fmt.Sprintf(`
		SELECT timestamp, source_ip, source_port, mac_address, message_type,
			xid, fingerprint, vendor_class, hostname, reverse_dns,
			os_name, device_class, detection_method, confidence,
			smb_dialect, smb_build, raw_options
		FROM dhcp_requests%s ORDER BY %s %s LIMIT ? OFFSET ?`, where, sortBy, dir)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying requests: %w", err)
	}
	defer rows.Close()

	return scanRequests(rows)
}

// Count returns the number of rows matching the filters, ignoring
// pagination.
func (s *Store) Count(ctx context.Context, f Filters) (int, error) {
	where, args := buildWhere(f)
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM dhcp_requests"+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting requests: %w", err)
	}
	return count, nil
}

// Export renders up to 100000 matching rows as CSV or pretty-printed JSON.
func (s *Store) Export(ctx context.Context, f Filters, format string) ([]byte, error) {
	f.Page = 1
	f.PageSize = exportRowLimit
	if f.SortBy == "" {
		f.SortBy = "timestamp"
	}

	reqs, err := s.Query(ctx, f)
	if err != nil {
		return nil, err
	}

	switch format {
	case "json":
		return json.MarshalIndent(reqs, "", "  ")
	case "csv", "":
		return renderCSV(reqs), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// buildWhere assembles the parameterized WHERE clause shared by Query,
// Count, and Export.
func buildWhere(f Filters) (string, []any) {
	var clauses []string
	var args []any

	if f.MAC != "" {
		clauses = append(clauses, "mac_address LIKE ?")
		args = append(args, "%"+f.MAC+"%")
	}
	if f.Vendor != "" {
		clauses = append(clauses, "vendor_class LIKE ?")
		args = append(args, "%"+f.Vendor+"%")
	}
	if f.XID != "" {
		clauses = append(clauses, "xid LIKE ?")
		args = append(args, "%"+f.XID+"%")
	}
	if f.MessageType != "" {
		clauses = append(clauses, "message_type = ?")
		args = append(args, f.MessageType)
	}
	if f.From != "" {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, f.From)
	}
	if f.To != "" {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, f.To)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanRequests(rows *sql.Rows) ([]dhcp.Request, error) {
	// Non-nil so an empty JSON export renders [] rather than null.
	out := []dhcp.Request{}
	for rows.Next() {
		var req dhcp.Request
		var hostname, reverseDNS sql.NullString
		var rawOptions string
		err := rows.Scan(
			&req.Timestamp, &req.SourceIP, &req.SourcePort, &req.MACAddress,
			&req.MessageType, &req.XID, &req.Fingerprint, &req.VendorClass,
			&hostname, &reverseDNS,
			&req.OSName, &req.DeviceClass, &req.DetectionMethod, &req.Confidence,
			&req.SMBDialect, &req.SMBBuild, &rawOptions)
		if err != nil {
			return nil, fmt.Errorf("scanning request row: %w", err)
		}
		req.Hostname = hostname.String
		req.ReverseDNS = reverseDNS.String
		if err := json.Unmarshal([]byte(rawOptions), &req.RawOptions); err != nil {
			return nil, fmt.Errorf("decoding raw options: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// renderCSV writes the fixed export columns. Nil vendor classes render as
// "-"; fields containing commas, quotes, or newlines are RFC 4180 quoted.
func renderCSV(reqs []dhcp.Request) []byte {
	var b strings.Builder
	b.WriteString("timestamp,source_ip,source_port,mac_address,message_type,xid,fingerprint,vendor_class\n")
	for _, req := range reqs {
		vendor := "-"
		if req.VendorClass != nil {
			vendor = *req.VendorClass
		}
		fields := []string{
			req.Timestamp, req.SourceIP, fmt.Sprintf("%d", req.SourcePort),
			req.MACAddress, req.MessageType, req.XID, req.Fingerprint, vendor,
		}
		for i, field := range fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(csvQuote(field))
		}
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func csvQuote(field string) string {
	if !strings.ContainsAny(field, ",\"\n\r") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
