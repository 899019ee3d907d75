// cmd/loadforge/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/FairForge/loadforge/internal/config"
	"github.com/FairForge/loadforge/internal/httpapi"
	"github.com/FairForge/loadforge/internal/logger"
	"github.com/FairForge/loadforge/internal/metrics"
	"github.com/FairForge/loadforge/pkg/loadforge"
)

func main() {
	cfg := config.Default()
	if path := os.Getenv("LOADFORGE_CONFIG"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loadforge: failed to load config %s: %v\n", path, err)
			os.Exit(1)
		}
		cfg = loaded
	} else {
		config.LoadFromEnv(&cfg)
	}

	log, err := logger.New(cfg.Server.LogLevel == "debug")
	if err != nil {
		fmt.Fprintf(os.Stderr, "loadforge: failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if path := os.Getenv("LOADFORGE_CONFIG"); path != "" {
		stop, err := config.Watch(path, log, func(c config.Config) {
			log.Info("config file reloaded; the running engine keeps its startup settings",
				zap.Int("port", c.Server.Port))
		})
		if err != nil {
			log.Warn("config: hot-reload disabled", zap.Error(err))
		} else {
			defer func() { _ = stop() }()
		}
	}

	mc := metrics.NewCollector()
	engine := loadforge.New(loadforge.Options{
		RateLimiterWindowMs: int(cfg.RateLimiter.Window / time.Millisecond),
		RateLimiterCap:      cfg.RateLimiter.CapPerWindow,
		Logger:              log,
		Metrics:             mc,
	})

	server := httpapi.New(fmt.Sprintf(":%d", cfg.Server.Port), engine, log)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Error("error during shutdown", zap.Error(err))
		}
		os.Exit(0)
	}()

	fmt.Printf("\n")
	fmt.Printf("╔══════════════════════════════════════╗\n")
	fmt.Printf("║        loadforge engine started       ║\n")
	fmt.Printf("╠══════════════════════════════════════╣\n")
	fmt.Printf("║  HTTP API: http://localhost:%-9d ║\n", cfg.Server.Port)
	fmt.Printf("║  Rate limiter: %dms / %-4d starts      ║\n",
		cfg.RateLimiter.Window.Milliseconds(), cfg.RateLimiter.CapPerWindow)
	fmt.Printf("╚══════════════════════════════════════╝\n")
	fmt.Printf("\n")

	if err := server.Start(); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}
