// Package config handles TOML configuration parsing and validation for dhcpwatch.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration for dhcpwatch.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Listener  ListenerConfig  `toml:"listener"`
	Detection DetectionConfig `toml:"detection"`
	Storage   StorageConfig   `toml:"storage"`
	API       APIConfig       `toml:"api"`
	RDNS      RDNSConfig      `toml:"rdns"`
}

// ServerConfig holds core process settings.
type ServerConfig struct {
	LogLevel string `toml:"log_level"`
}

// ListenerConfig holds the UDP capture settings.
type ListenerConfig struct {
	BindAddress string `toml:"bind_address"`
}

// DetectionConfig holds hybrid OS detection settings.
type DetectionConfig struct {
	EnableSMBProbing bool `toml:"enable_smb_probing"`
	// SMBTimeout applies to connect, send, and read independently.
	SMBTimeout string `toml:"smb_timeout"`
	// SMBProbeConfidenceThreshold is parsed and validated but not consulted
	// by the current probe policy. Reserved.
	SMBProbeConfidenceThreshold float64 `toml:"smb_probe_confidence_threshold"`
	SMBCacheTTL                 string  `toml:"smb_cache_ttl"`
	EnablePingCheck             bool    `toml:"enable_ping_check"`
	// PingFailureProceeds controls what happens when the reachability check
	// itself errors out (as opposed to reporting the host down): true means
	// the SMB probe proceeds anyway.
	PingFailureProceeds bool   `toml:"ping_failure_proceeds"`
	MACOverridesPath    string `toml:"mac_overrides_path"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	DatabasePath   string `toml:"database_path"`
	RequestLogPath string `toml:"request_log_path"`
	MaxConnections int    `toml:"max_connections"`
	HistorySize    int    `toml:"history_size"`
	InventoryPath  string `toml:"inventory_path"`
}

// APIConfig holds HTTP API settings.
type APIConfig struct {
	Enabled bool   `toml:"enabled"`
	Listen  string `toml:"listen"`
	// AuthToken enables bearer-token auth when non-empty. AuthTokenHash
	// takes precedence and holds a bcrypt hash of the token instead of the
	// plaintext value.
	AuthToken     string `toml:"auth_token"`
	AuthTokenHash string `toml:"auth_token_hash"`
}

// RDNSConfig holds reverse-DNS enrichment settings.
type RDNSConfig struct {
	Enabled  bool   `toml:"enabled"`
	Resolver string `toml:"resolver"`
	Timeout  string `toml:"timeout"`
	CacheTTL string `toml:"cache_ttl"`
}

// Load reads and parses a TOML config file, applies defaults, and validates.
// A missing file yields the default configuration. The true-by-default
// booleans are set before decoding: toml leaves absent keys untouched, so
// a file that omits them keeps the defaults while an explicit false wins.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Detection.EnableSMBProbing = true
	cfg.Detection.EnablePingCheck = true
	cfg.Detection.PingFailureProceeds = true
	cfg.API.Enabled = true

	data, err := os.ReadFile(path)
	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// applyDefaults fills in default values for unset fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = DefaultLogLevel
	}
	if cfg.Listener.BindAddress == "" {
		cfg.Listener.BindAddress = DefaultBindAddress
	}

	if cfg.Detection.SMBTimeout == "" {
		cfg.Detection.SMBTimeout = DefaultSMBTimeout.String()
	}
	if cfg.Detection.SMBCacheTTL == "" {
		cfg.Detection.SMBCacheTTL = DefaultSMBCacheTTL.String()
	}
	if cfg.Detection.SMBProbeConfidenceThreshold == 0 {
		cfg.Detection.SMBProbeConfidenceThreshold = DefaultSMBThreshold
	}
	if cfg.Detection.MACOverridesPath == "" {
		cfg.Detection.MACOverridesPath = DefaultOverridesPath
	}

	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = DefaultDatabasePath
	}
	if cfg.Storage.RequestLogPath == "" {
		cfg.Storage.RequestLogPath = DefaultRequestLogPath
	}
	if cfg.Storage.MaxConnections == 0 {
		cfg.Storage.MaxConnections = DefaultMaxConnections
	}
	if cfg.Storage.HistorySize == 0 {
		cfg.Storage.HistorySize = DefaultHistorySize
	}

	if cfg.API.Listen == "" {
		cfg.API.Listen = DefaultAPIListen
	}

	if cfg.RDNS.Timeout == "" {
		cfg.RDNS.Timeout = DefaultRDNSTimeout.String()
	}
	if cfg.RDNS.CacheTTL == "" {
		cfg.RDNS.CacheTTL = DefaultRDNSCacheTTL.String()
	}
}

// validate checks the configuration for errors.
func validate(cfg *Config) error {
	if _, _, err := net.SplitHostPort(cfg.Listener.BindAddress); err != nil {
		return fmt.Errorf("listener.bind_address %q: %w", cfg.Listener.BindAddress, err)
	}
	if _, err := time.ParseDuration(cfg.Detection.SMBTimeout); err != nil {
		return fmt.Errorf("detection.smb_timeout: %w", err)
	}
	if _, err := time.ParseDuration(cfg.Detection.SMBCacheTTL); err != nil {
		return fmt.Errorf("detection.smb_cache_ttl: %w", err)
	}
	if t := cfg.Detection.SMBProbeConfidenceThreshold; t < 0 || t > 1 {
		return fmt.Errorf("detection.smb_probe_confidence_threshold %v is not in [0,1]", t)
	}
	if cfg.Storage.MaxConnections < 1 {
		return fmt.Errorf("storage.max_connections must be positive, got %d", cfg.Storage.MaxConnections)
	}
	if cfg.Storage.HistorySize < 1 {
		return fmt.Errorf("storage.history_size must be positive, got %d", cfg.Storage.HistorySize)
	}
	if cfg.API.Enabled {
		if _, _, err := net.SplitHostPort(cfg.API.Listen); err != nil {
			return fmt.Errorf("api.listen %q: %w", cfg.API.Listen, err)
		}
	}
	if cfg.RDNS.Enabled {
		if cfg.RDNS.Resolver == "" {
			return fmt.Errorf("rdns.resolver is required when rdns is enabled")
		}
		if _, err := time.ParseDuration(cfg.RDNS.Timeout); err != nil {
			return fmt.Errorf("rdns.timeout: %w", err)
		}
		if _, err := time.ParseDuration(cfg.RDNS.CacheTTL); err != nil {
			return fmt.Errorf("rdns.cache_ttl: %w", err)
		}
	}
	return nil
}

// SMBTimeout returns the parsed per-stage SMB probe timeout.
func (cfg *Config) SMBTimeout() time.Duration {
	d, err := time.ParseDuration(cfg.Detection.SMBTimeout)
	if err != nil {
		return DefaultSMBTimeout
	}
	return d
}

// SMBCacheTTL returns the parsed probe cache TTL.
func (cfg *Config) SMBCacheTTL() time.Duration {
	d, err := time.ParseDuration(cfg.Detection.SMBCacheTTL)
	if err != nil {
		return DefaultSMBCacheTTL
	}
	return d
}

// RDNSTimeout returns the parsed reverse-DNS lookup timeout.
func (cfg *Config) RDNSTimeout() time.Duration {
	d, err := time.ParseDuration(cfg.RDNS.Timeout)
	if err != nil {
		return DefaultRDNSTimeout
	}
	return d
}

// RDNSCacheTTL returns the parsed reverse-DNS cache TTL.
func (cfg *Config) RDNSCacheTTL() time.Duration {
	d, err := time.ParseDuration(cfg.RDNS.CacheTTL)
	if err != nil {
		return DefaultRDNSCacheTTL
	}
	return d
}
