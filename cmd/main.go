package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/algoinsight/trace-router/pkg/apiserver"
	"github.com/algoinsight/trace-router/pkg/cache"
	"github.com/algoinsight/trace-router/pkg/config"
	"github.com/algoinsight/trace-router/pkg/library"
	"github.com/algoinsight/trace-router/pkg/matcher"
	"github.com/algoinsight/trace-router/pkg/observability/logging"
	"github.com/algoinsight/trace-router/pkg/observability/tracing"
	"github.com/algoinsight/trace-router/pkg/router"
)

func main() {
	var (
		configPath  = flag.String("config", "config/config.yaml", "Path to the configuration file")
		adminPort   = flag.Int("admin-port", 0, "Port for the admin API (overrides config)")
		metricsPort = flag.Int("metrics-port", 0, "Port for Prometheus metrics (overrides config)")
	)
	flag.Parse()

	if _, err := logging.InitLoggerFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logging.Fatalf("Failed to load config: %v", err)
	}
	if *adminPort > 0 {
		cfg.Server.AdminPort = *adminPort
	}
	if *metricsPort > 0 {
		cfg.Server.MetricsPort = *metricsPort
	}

	ctx := context.Background()
	if cfg.Tracing.Enabled {
		tracingCfg := tracing.TracingConfig{
			Enabled:          cfg.Tracing.Enabled,
			ExporterType:     cfg.Tracing.ExporterType,
			ExporterEndpoint: cfg.Tracing.Endpoint,
			ExporterInsecure: cfg.Tracing.Insecure,
			SamplingRate:     cfg.Tracing.SamplingRate,
			ServiceName:      "trace-router",
			ServiceVersion:   "dev",
		}
		if tracingErr := tracing.InitTracing(ctx, tracingCfg); tracingErr != nil {
			logging.Warnf("Failed to initialize tracing: %v", tracingErr)
		}
	}

	manager, err := cache.NewManager(cache.ManagerOptions{
		Dir:            cfg.Cache.Dir,
		ExactMax:       cfg.Cache.ExactMax,
		NormalizedMax:  cfg.Cache.NormalizedMax,
		TemplateMax:    cfg.Cache.TemplateMax,
		EvictionPolicy: cache.EvictionPolicyType(cfg.Cache.EvictionPolicy),
	})
	if err != nil {
		logging.Fatalf("Failed to initialize cache manager: %v", err)
	}

	lib := library.NewLibrary(cfg.Library.Dir)
	pm := matcher.NewPatternMatcher(matcher.DefaultSignatures)

	rt := router.New(manager, pm, lib, router.Options{
		FastThreshold:    cfg.Routing.FastThreshold,
		InstantThreshold: cfg.Routing.InstantThreshold,
	})
	if err := rt.WarmUp(ctx); err != nil {
		logging.Warnf("Warm-up incomplete, continuing cold: %v", err)
	}

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	if cfg.Library.Watch {
		go func() {
			if watchErr := lib.Watch(watchCtx); watchErr != nil && watchCtx.Err() == nil {
				logging.Warnf("Template hot reload stopped: %v", watchErr)
			}
		}()
	}

	// Periodic expired-entry sweep across every tier.
	cleanupTicker := time.NewTicker(cfg.Cache.CleanupInterval())
	defer cleanupTicker.Stop()
	go func() {
		for range cleanupTicker.C {
			report := manager.Cleanup()
			logging.LogEvent("cache_cleanup", map[string]any{
				"exact_expired":      report.ExactExpired,
				"normalized_expired": report.NormalizedExpired,
				"template_expired":   report.TemplateExpired,
				"durable_expired":    report.DurableExpired,
			})
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logging.Infof("Received shutdown signal, cleaning up...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracing.ShutdownTracing(shutdownCtx); shutdownErr != nil {
			logging.Errorf("Failed to shutdown tracing: %v", shutdownErr)
		}
		os.Exit(0)
	}()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		logging.Infof("Metrics server listening on port %d", cfg.Server.MetricsPort)
		if serveErr := http.ListenAndServe(fmt.Sprintf(":%d", cfg.Server.MetricsPort), mux); serveErr != nil {
			logging.Errorf("Metrics server failed: %v", serveErr)
		}
	}()

	admin := apiserver.NewServer(rt)
	if serveErr := admin.Start(cfg.Server.AdminPort); serveErr != nil {
		logging.Fatalf("Admin API server failed: %v", serveErr)
	}
}

// loadConfig reads the config file, falling back to the built-in
// defaults when the file does not exist.
func loadConfig(path string) (*config.RouterConfig, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			logging.Warnf("Config file %s not found, using defaults", path)
			return config.Default(), nil
		}
		return nil, err
	}
	return config.LoadConfig(path)
}
