// cmd/netpulse/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/netpulse/netpulse/pkg/collector"
	"github.com/netpulse/netpulse/pkg/config"
	"github.com/netpulse/netpulse/pkg/db"
	"github.com/netpulse/netpulse/pkg/logger"
	"github.com/netpulse/netpulse/pkg/scan"
)

const (
	shutdownTimeout = 10 * time.Second

	// discoveryPacketsPerSecond paces raw ICMP echo sends during sweeps.
	discoveryPacketsPerSecond = 100

	// metricRetention bounds on-disk history; CleanOldData runs on this cadence.
	metricRetention  = 7 * 24 * time.Hour
	cleanupInterval  = time.Hour
	snmpQueryTimeout = 2 * time.Second
)

func main() {
	configPath := flag.String("config", "/etc/netpulse/netpulse.json", "Path to config file")
	flag.Parse()

	var cfg config.AgentConfig
	if err := config.LoadAndValidate(*configPath, &cfg); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if err := run(&cfg, zlog); err != nil {
		zlog.Fatal().Err(err).Msg("netpulse exited with error")
	}
}

func run(cfg *config.AgentConfig, zlog zerolog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deviceID := cfg.DeviceID
	if deviceID == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return err
		}

		deviceID = hostname
	}

	database, err := db.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			zlog.Error().Err(err).Msg("Failed to close database")
		}
	}()

	zlog.Info().
		Str("device_id", deviceID).
		Str("db_path", cfg.DBPath).
		Msg("Starting netpulse")

	discoveryProber, stopProber := newDiscoveryProber(cfg, zlog)
	defer stopProber()

	mgr := collector.NewManager(zlog)

	mgr.Register(collector.NewSystemMetricsCollector(
		deviceID, cfg.System.Interval.Duration(), database, zlog))

	mgr.Register(collector.NewPingCollector(
		deviceID, cfg.Ping.Interval.Duration(), cfg.Ping.Targets,
		scan.NewExecPinger(cfg.Ping.Timeout.Duration()), database, zlog))

	mgr.Register(collector.NewBandwidthCollector(
		deviceID, cfg.Bandwidth.Interval.Duration(), cfg.Bandwidth.ExcludePrefixes,
		database, zlog))

	var snmp collector.IdentitySource
	if cfg.Discovery.SNMPCommunity != "" {
		snmp = scan.NewSNMPIdentifier(cfg.Discovery.SNMPCommunity, snmpQueryTimeout)
	}

	mgr.Register(collector.NewNetworkDiscoveryCollector(
		collector.DiscoveryOptions{
			Interval:    cfg.Discovery.Interval.Duration(),
			Subnet:      cfg.Discovery.Subnet,
			Concurrency: cfg.Discovery.Concurrency,
		},
		discoveryProber,
		scan.NewTCPProber(cfg.Discovery.PortTimeout.Duration()),
		snmp,
		database,
		zlog))

	mgr.StartAll(ctx)

	go runCleanup(ctx, database, zlog)

	// Block until shutdown is requested.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	zlog.Info().Str("signal", sig.String()).Msg("Shutting down")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()

	if err := mgr.StopAll(stopCtx); err != nil {
		zlog.Error().Err(err).Msg("Collectors did not stop cleanly")
	}

	return nil
}

// newDiscoveryProber prefers the raw-socket ICMP prober and falls back to
// the system ping binary when raw sockets are unavailable (no CAP_NET_RAW).
func newDiscoveryProber(cfg *config.AgentConfig, zlog zerolog.Logger) (scan.Prober, func()) {
	timeout := cfg.Discovery.ProbeTimeout.Duration()

	icmpProber, err := scan.NewICMPProber(timeout, discoveryPacketsPerSecond)
	if err == nil {
		return icmpProber, func() {
			if err := icmpProber.Stop(); err != nil {
				zlog.Error().Err(err).Msg("Failed to stop ICMP prober")
			}
		}
	}

	zlog.Warn().Err(err).Msg("Raw ICMP unavailable, falling back to system ping")

	return scan.NewExecPinger(timeout), func() {}
}

func runCleanup(ctx context.Context, database db.Service, zlog zerolog.Logger) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := database.CleanOldData(ctx, metricRetention); err != nil {
				zlog.Error().Err(err).Msg("Failed to clean old data")
			}
		}
	}
}
