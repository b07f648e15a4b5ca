// Package fingerprint maps DHCP Option-55 fingerprints and MAC overrides
// to operating-system descriptors.
package fingerprint

// OsInfo describes an operating system / device classification.
type OsInfo struct {
	OSName      string `json:"os_name" toml:"os_name"`
	DeviceClass string `json:"device_class" toml:"device_class"`
	Vendor      string `json:"vendor" toml:"vendor"`
}

// builtin is the static fingerprint table. Keys are the exact comma-joined
// Option-55 byte lists in the order the client sent them; no sorting, no
// dedup. One OsInfo per key: Windows 10 and Windows 8/8.1 request the same
// parameter list, so that key carries a combined label.
var builtin = map[string]OsInfo{
	// Windows 10 and Windows 8/8.1 share this parameter list.
	"1,3,6,15,31,33,43,44,46,47,121,249,252": {
		OSName:      "Windows 10/8/8.1",
		DeviceClass: "Desktop/Laptop",
		Vendor:      "Microsoft",
	},
	// Windows 11 appends option 12 to the Windows 10 list.
	"1,3,6,15,31,33,43,44,46,47,121,249,252,12": {
		OSName:      "Windows 11",
		DeviceClass: "Desktop/Laptop",
		Vendor:      "Microsoft",
	},
	"1,15,3,6,44,46,47,31,33,121,249,43,252": {
		OSName:      "Windows 7",
		DeviceClass: "Desktop/Laptop",
		Vendor:      "Microsoft",
	},
	"1,3,6,15,119,252": {
		OSName:      "macOS (Recent)",
		DeviceClass: "Desktop/Laptop",
		Vendor:      "Apple",
	},
	"1,3,6,15,119,95,252,44,46": {
		OSName:      "macOS (Older)",
		DeviceClass: "Desktop/Laptop",
		Vendor:      "Apple",
	},
	"1,3,6,15,119,252,95,44,46": {
		OSName:      "iOS/iPadOS",
		DeviceClass: "Mobile",
		Vendor:      "Apple",
	},
	"1,121,3,6,15,119,252,95,44,46": {
		OSName:      "iOS",
		DeviceClass: "Mobile",
		Vendor:      "Apple",
	},
	"1,3,6,15,26,28,51,58,59": {
		OSName:      "Android",
		DeviceClass: "Mobile",
		Vendor:      "Google",
	},
	"1,3,6,12,15,26,28,51,58,59,43": {
		OSName:      "Android",
		DeviceClass: "Mobile",
		Vendor:      "Google",
	},
	"1,28,2,3,15,6,119,12,44,47,26,121,42": {
		OSName:      "Linux (Ubuntu/Debian)",
		DeviceClass: "Desktop/Server",
		Vendor:      "Linux",
	},
	"1,3,6,12,15,28,42,51,54,58,59": {
		OSName:      "Linux",
		DeviceClass: "Desktop/Server",
		Vendor:      "Linux",
	},
	"1,3,6,12,15,28,51,58,59,119": {
		OSName:      "Chrome OS",
		DeviceClass: "Chromebook",
		Vendor:      "Google",
	},
	"1,3,6,15,12,28": {
		OSName:      "PlayStation",
		DeviceClass: "Gaming Console",
		Vendor:      "Sony",
	},
	"1,3,6,15,44,46,47,12": {
		OSName:      "Xbox",
		DeviceClass: "Gaming Console",
		Vendor:      "Microsoft",
	},
	"1,3,6,15,28,51,58,59": {
		OSName:      "Nintendo Switch",
		DeviceClass: "Gaming Console",
		Vendor:      "Nintendo",
	},
	"1,3,6,12,15,28,42": {
		OSName:      "Roku",
		DeviceClass: "Streaming Device",
		Vendor:      "Roku",
	},
	"1,3,6,15,26,28,51,58,59,43,12": {
		OSName:      "Fire TV",
		DeviceClass: "Streaming Device",
		Vendor:      "Amazon",
	},
}

// DB resolves MAC overrides and Option-55 fingerprints to OsInfo.
type DB struct {
	table     map[string]OsInfo
	overrides map[string]OsInfo
}

// New creates a DB backed by the builtin table and the given MAC overrides.
// A nil overrides map is treated as empty.
func New(overrides map[string]OsInfo) *DB {
	if overrides == nil {
		overrides = map[string]OsInfo{}
	}
	return &DB{table: builtin, overrides: overrides}
}

// LookupOS resolves a client to an OsInfo. A MAC override wins exclusively:
// when the MAC is mapped, the fingerprint is never consulted. Otherwise the
// fingerprint must match a table key verbatim; there is no fuzzy or partial
// matching.
func (db *DB) LookupOS(mac, fingerprint string) (OsInfo, bool) {
	if info, ok := db.overrides[mac]; ok {
		return info, true
	}
	if fingerprint == "" {
		return OsInfo{}, false
	}
	info, ok := db.table[fingerprint]
	return info, ok
}

// Size returns the number of builtin fingerprint entries.
func (db *DB) Size() int {
	return len(db.table)
}

// OverrideCount returns the number of loaded MAC overrides.
func (db *DB) OverrideCount() int {
	return len(db.overrides)
}
