package config

import "time"

// Default values applied to unset configuration fields.
const (
	DefaultLogLevel    = "info"
	DefaultBindAddress = "0.0.0.0:67"

	DefaultSMBTimeout   = 3 * time.Second
	DefaultSMBCacheTTL  = time.Hour
	DefaultSMBThreshold = 0.8

	DefaultDatabasePath   = "dhcpwatch.db"
	DefaultRequestLogPath = "dhcp_requests.log"
	DefaultMaxConnections = 10
	DefaultHistorySize    = 1000

	DefaultAPIListen     = "0.0.0.0:8080"
	DefaultOverridesPath = "mac_os_mapping.toml"

	DefaultRDNSTimeout  = 2 * time.Second
	DefaultRDNSCacheTTL = 10 * time.Minute
)
