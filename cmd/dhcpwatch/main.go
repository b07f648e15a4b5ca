// dhcpwatch is a passive DHCP observer with hybrid OS fingerprinting.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dhcpwatch/dhcpwatch/internal/api"
	"github.com/dhcpwatch/dhcpwatch/internal/config"
	"github.com/dhcpwatch/dhcpwatch/internal/detector"
	"github.com/dhcpwatch/dhcpwatch/internal/dhcp"
	"github.com/dhcpwatch/dhcpwatch/internal/fingerprint"
	"github.com/dhcpwatch/dhcpwatch/internal/history"
	"github.com/dhcpwatch/dhcpwatch/internal/hub"
	"github.com/dhcpwatch/dhcpwatch/internal/inventory"
	"github.com/dhcpwatch/dhcpwatch/internal/logging"
	"github.com/dhcpwatch/dhcpwatch/internal/metrics"
	"github.com/dhcpwatch/dhcpwatch/internal/monitor"
	"github.com/dhcpwatch/dhcpwatch/internal/rdns"
	"github.com/dhcpwatch/dhcpwatch/internal/requestlog"
	"github.com/dhcpwatch/dhcpwatch/internal/smb"
	"github.com/dhcpwatch/dhcpwatch/internal/stats"
	"github.com/dhcpwatch/dhcpwatch/internal/store"
)

var version = "dev"

const shutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "/etc/dhcpwatch/config.toml", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("dhcpwatch", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Server.LogLevel, os.Stdout)
	logger.Info("dhcpwatch starting",
		"version", version,
		"config", *configPath,
		"bind", cfg.Listener.BindAddress)

	metrics.ServerInfo.WithLabelValues(version).Set(1)
	metrics.ServerStartTime.SetToCurrentTime()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Fingerprint DB with optional MAC overrides
	overrides := fingerprint.LoadOverrides(cfg.Detection.MACOverridesPath, logger)
	db := fingerprint.New(overrides)
	logger.Info("fingerprint database loaded",
		"fingerprints", db.Size(), "mac_overrides", db.OverrideCount())

	// Hybrid detector
	var pinger detector.Pinger
	if cfg.Detection.EnablePingCheck {
		icmpPinger := detector.NewICMPPinger(logger)
		defer icmpPinger.Close()
		pinger = icmpPinger
	}
	det := detector.New(
		db,
		smb.NewProber(logger),
		pinger,
		detector.NewCache(cfg.SMBCacheTTL()),
		detector.Options{
			EnableSMBProbing:    cfg.Detection.EnableSMBProbing,
			SMBTimeout:          cfg.SMBTimeout(),
			ConfidenceThreshold: cfg.Detection.SMBProbeConfidenceThreshold,
			PingFailureProceeds: cfg.Detection.PingFailureProceeds,
		},
		logger,
	)

	// In-memory surfaces
	ring := history.NewRing(cfg.Storage.HistorySize)
	collector := stats.NewCollector()
	broadcast := hub.New()

	processor := monitor.NewProcessor(det, ring, collector, broadcast, logger)

	// Persistence sinks
	if cfg.Storage.RequestLogPath != "" {
		reqLog, err := requestlog.Open(cfg.Storage.RequestLogPath)
		if err != nil {
			logger.Error("failed to open request log", "error", err)
			os.Exit(1)
		}
		defer reqLog.Close()
		processor.WithRequestLog(reqLog)
		logger.Info("request log opened", "path", cfg.Storage.RequestLogPath)
	}

	var archive *store.Store
	if cfg.Storage.DatabasePath != "" {
		archive, err = store.Open(cfg.Storage.DatabasePath, cfg.Storage.MaxConnections)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer archive.Close()
		processor.WithStore(archive)
		logger.Info("database opened", "path", cfg.Storage.DatabasePath)
	}

	var devices *inventory.Store
	if cfg.Storage.InventoryPath != "" {
		devices, err = inventory.Open(cfg.Storage.InventoryPath)
		if err != nil {
			logger.Error("failed to open device inventory", "error", err)
			os.Exit(1)
		}
		defer devices.Close()
		processor.WithInventory(devices)
		logger.Info("device inventory opened",
			"path", cfg.Storage.InventoryPath, "devices", devices.Count())
	}

	if cfg.RDNS.Enabled {
		resolver := rdns.New(cfg.RDNS.Resolver, cfg.RDNSTimeout(), cfg.RDNSCacheTTL(), logger)
		processor.WithReverseDNS(resolver)
		logger.Info("reverse DNS enrichment enabled", "resolver", cfg.RDNS.Resolver)
	}

	// UDP listener
	listener := dhcp.NewListener(cfg.Listener.BindAddress, processor, logger)
	if err := listener.Start(); err != nil {
		logger.Error("failed to bind listener", "error", err)
		os.Exit(1)
	}
	go func() {
		if err := listener.Serve(ctx); err != nil {
			logger.Error("listener failed", "error", err)
			cancel()
		}
	}()
	logger.Info("listening for DHCP traffic", "address", cfg.Listener.BindAddress)

	// HTTP API
	var apiServer *api.Server
	if cfg.API.Enabled {
		opts := []api.ServerOption{
			api.WithDetector(det),
			api.WithVersion(version),
		}
		if archive != nil {
			opts = append(opts, api.WithStore(archive))
		}
		if devices != nil {
			opts = append(opts, api.WithInventory(devices))
		}
		apiServer = api.NewServer(cfg, ring, collector, broadcast, logger, opts...)
		ln, err := apiServer.Listen()
		if err != nil {
			logger.Error("failed to start API server", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := apiServer.Serve(ln); err != nil {
				logger.Error("API server failed", "error", err)
				cancel()
			}
		}()
	}

	// Wait for shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if apiServer != nil {
		if err := apiServer.Stop(shutdownCtx); err != nil {
			logger.Warn("API server shutdown", "error", err)
		}
	}
	listener.Wait()
	logger.Info("dhcpwatch stopped")
}
