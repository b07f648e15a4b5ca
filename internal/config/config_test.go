package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dhcpwatch.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Listener.BindAddress != DefaultBindAddress {
		t.Errorf("BindAddress = %q, want %q", cfg.Listener.BindAddress, DefaultBindAddress)
	}
	if !cfg.Detection.EnableSMBProbing {
		t.Error("EnableSMBProbing should default to true")
	}
	if cfg.SMBTimeout() != DefaultSMBTimeout {
		t.Errorf("SMBTimeout = %v, want %v", cfg.SMBTimeout(), DefaultSMBTimeout)
	}
	if cfg.SMBCacheTTL() != DefaultSMBCacheTTL {
		t.Errorf("SMBCacheTTL = %v, want %v", cfg.SMBCacheTTL(), DefaultSMBCacheTTL)
	}
	if cfg.Storage.MaxConnections != DefaultMaxConnections {
		t.Errorf("MaxConnections = %d, want %d", cfg.Storage.MaxConnections, DefaultMaxConnections)
	}
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
[server]
log_level = "debug"

[listener]
bind_address = "127.0.0.1:6767"

[detection]
enable_smb_probing = true
smb_timeout = "5s"
smb_cache_ttl = "30m"
smb_probe_confidence_threshold = 0.8
enable_ping_check = true
ping_failure_proceeds = true

[storage]
database_path = "/tmp/test.db"
history_size = 500

[api]
enabled = true
listen = "127.0.0.1:9090"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.Server.LogLevel)
	}
	if cfg.Listener.BindAddress != "127.0.0.1:6767" {
		t.Errorf("BindAddress = %q, want 127.0.0.1:6767", cfg.Listener.BindAddress)
	}
	if cfg.SMBTimeout() != 5*time.Second {
		t.Errorf("SMBTimeout = %v, want 5s", cfg.SMBTimeout())
	}
	if cfg.SMBCacheTTL() != 30*time.Minute {
		t.Errorf("SMBCacheTTL = %v, want 30m", cfg.SMBCacheTTL())
	}
	if cfg.Storage.HistorySize != 500 {
		t.Errorf("HistorySize = %d, want 500", cfg.Storage.HistorySize)
	}
	// Unset fields still get defaults
	if cfg.Storage.RequestLogPath != DefaultRequestLogPath {
		t.Errorf("RequestLogPath = %q, want %q", cfg.Storage.RequestLogPath, DefaultRequestLogPath)
	}
}

func TestLoadPartialFileKeepsBooleanDefaults(t *testing.T) {
	// A file that only configures storage must not flip the
	// true-by-default switches off.
	path := writeConfig(t, `
[storage]
database_path = "/tmp/partial.db"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !cfg.Detection.EnableSMBProbing {
		t.Error("EnableSMBProbing = false, want true when [detection] is absent")
	}
	if !cfg.Detection.EnablePingCheck {
		t.Error("EnablePingCheck = false, want true when [detection] is absent")
	}
	if !cfg.Detection.PingFailureProceeds {
		t.Error("PingFailureProceeds = false, want true when [detection] is absent")
	}
	if !cfg.API.Enabled {
		t.Error("API.Enabled = false, want true when [api] is absent")
	}
	if cfg.Storage.DatabasePath != "/tmp/partial.db" {
		t.Errorf("DatabasePath = %q, want /tmp/partial.db", cfg.Storage.DatabasePath)
	}
}

func TestLoadExplicitFalseWins(t *testing.T) {
	path := writeConfig(t, `
[detection]
enable_smb_probing = false

[api]
enabled = false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Detection.EnableSMBProbing {
		t.Error("EnableSMBProbing = true, want false when set explicitly")
	}
	if cfg.API.Enabled {
		t.Error("API.Enabled = true, want false when set explicitly")
	}
	if !cfg.Detection.EnablePingCheck {
		t.Error("EnablePingCheck = false, want true when left unset")
	}
}

func TestLoadInvalidConfigs(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad toml", `[server` + "\n"},
		{"bad bind address", "[listener]\nbind_address = \"no-port\"\n"},
		{"bad smb timeout", "[detection]\nsmb_timeout = \"soon\"\n"},
		{"bad cache ttl", "[detection]\nsmb_cache_ttl = \"whenever\"\n"},
		{"threshold out of range", "[detection]\nsmb_probe_confidence_threshold = 1.5\n"},
		{"negative history", "[storage]\nhistory_size = -1\n"},
		{"api bad listen", "[api]\nenabled = true\nlisten = \"nope\"\n"},
		{"rdns missing resolver", "[rdns]\nenabled = true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := Load(path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
