package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"go.uber.org/zap"

	"github.com/monitoring-tools/thanos/config"
	"github.com/monitoring-tools/thanos/internal/logging"
	"github.com/monitoring-tools/thanos/internal/metrics"
	"github.com/monitoring-tools/thanos/internal/server"
	"github.com/monitoring-tools/thanos/internal/store"
	"github.com/monitoring-tools/thanos/internal/tracing"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "configs/store.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	validateOnly := flag.Bool("validate", false, "Validate configuration and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Thanos Store %s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	watcher, err := config.NewWatcher(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	defer watcher.Stop()
	cfg := watcher.Config()

	if *validateOnly {
		fmt.Println("Configuration is valid")
		os.Exit(0)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logging.SetGlobal(logger)

	logging.Info("Starting store",
		zap.String("version", version),
		zap.String("config", *configPath),
		zap.String("grpc_address", cfg.Server.GRPCAddress),
		zap.String("block_dir", cfg.Store.BlockDir),
	)

	tracer, err := tracing.New(cfg.Tracing)
	if err != nil {
		logging.Error("Failed to initialize tracing", zap.Error(err))
		os.Exit(1)
	}
	defer tracer.Close()

	m := metrics.New()
	memStore := store.NewMemStore()

	var ready atomic.Bool
	if cfg.Store.BlockDir != "" {
		n, err := memStore.LoadBlocks(cfg.Store.BlockDir)
		if err != nil {
			logging.Error("Failed to load blocks", zap.Error(err))
			os.Exit(1)
		}
		m.BlocksLoaded.Set(float64(n))
		logging.Info("Blocks loaded", zap.Int("blocks", n))
	}
	ready.Store(true)

	storeSrv, err := store.NewServer(memStore, tracer, m, cfg.Limits, cfg.Store.ExternalLabels)
	if err != nil {
		logging.Error("Failed to create store service", zap.Error(err))
		os.Exit(1)
	}

	// Log level and request limits follow config file edits.
	watcher.OnChange(func(next *config.Config) {
		logging.SetLevel(next.Logging.Level)
		if err := storeSrv.ApplyLimits(next.Limits); err != nil {
			logging.Warn("Failed to apply new limits", zap.Error(err))
			return
		}
		logging.Info("Configuration reloaded", zap.String("level", next.Logging.Level))
	})
	if err := watcher.Start(); err != nil {
		logging.Warn("Config watcher failed to start", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(*cfg, storeSrv, m, ready.Load)
	if err := srv.Run(ctx); err != nil {
		logging.Error("Server error", zap.Error(err))
		os.Exit(1)
	}
}
