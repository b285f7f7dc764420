// Package main provides the entry point for tablesync-server.
//
// @design DS-0501
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/yndnr/tablesync-go/internal/core/domain"
	"github.com/yndnr/tablesync-go/internal/core/service"
	"github.com/yndnr/tablesync-go/internal/infra/buildinfo"
	"github.com/yndnr/tablesync-go/internal/infra/confloader"
	"github.com/yndnr/tablesync-go/internal/infra/shutdown"
	"github.com/yndnr/tablesync-go/internal/server/config"
	"github.com/yndnr/tablesync-go/internal/server/httpserver"
	"github.com/yndnr/tablesync-go/internal/storage"
	"github.com/yndnr/tablesync-go/internal/telemetry/logger"
	"github.com/yndnr/tablesync-go/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("tablesync-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	log.Info("starting tablesync-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"config", *configFile)

	metrics := metric.NewRegistry()

	storageEngine := storage.NewEngine(storage.Config{
		DataDir:          cfg.Storage.DataDir,
		HistoryRetention: cfg.Engine.HistoryRetention,
	})

	resolution, err := domain.ParseResolutionStrategy(cfg.Engine.Resolution)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	registry := service.NewRegistry(func(sessionID string) (service.EngineConfig, error) {
		history, actions, err := storageEngine.ForSession(sessionID)
		if err != nil {
			return service.EngineConfig{}, err
		}
		return service.EngineConfig{
			MaxDeltaSize: cfg.Engine.MaxDeltaSize,
			History:      history,
			Actions:      actions,
			Resolution:   resolution,
		}, nil
	})

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Registry:       registry,
		Storage:        storageEngine,
		Metrics:        metrics,
		Logger:         log,
		RateLimitRPS:   rateLimitRPS(cfg),
		RateLimitBurst: cfg.RateLimit.Burst,
	})
	httpServer := httpserver.New(cfg.Server.HTTP.Addr, router,
		cfg.Server.HTTP.ReadTimeout, cfg.Server.HTTP.WriteTimeout)

	shutdownHandler := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout)

	if *configFile != "" {
		watcher, err := watchLogLevel(*configFile, log)
		if err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		shutdownHandler.OnShutdown(func(context.Context) error {
			return watcher.Stop()
		})
	}

	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down storage engine")
		return storageEngine.Close()
	})
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening", "addr", cfg.Server.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from file and environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// watchLogLevel reloads the configuration file on every write and applies
// the log level. Other settings need a restart.
func watchLogLevel(configFile string, log logger.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(configFile, log)
	if err != nil {
		return nil, err
	}
	watcher.OnChange(func() {
		cfg, err := loadConfig(configFile)
		if err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	watcher.StartAsync()
	return watcher, nil
}

// initLogger initializes the structured logger.
func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}

	logger.SetDefault(log)
	return log, nil
}

func rateLimitRPS(cfg *config.ServerConfig) float64 {
	if !cfg.RateLimit.Enabled {
		return 0
	}
	return cfg.RateLimit.RPS
}
