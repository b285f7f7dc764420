// Package config defines the server configuration structure.
package config

import (
	"errors"
	"os"

	"github.com/yndnr/tablesync-go/internal/core/domain"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyEngine(&cfg.Engine); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	return verifyRateLimit(&cfg.RateLimit)
}

func verifyServer(cfg *ServerSection) error {
	if cfg.HTTP.Addr == "" {
		return errors.New("server.http.addr is required")
	}
	return nil
}

func verifyEngine(cfg *EngineSection) error {
	if cfg.MaxDeltaSize < 0 {
		return errors.New("engine.max_delta_size must not be negative")
	}
	if cfg.HistoryRetention < 0 {
		return errors.New("engine.history_retention must not be negative")
	}
	if cfg.Resolution != "" {
		if _, err := domain.ParseResolutionStrategy(cfg.Resolution); err != nil {
			return errors.New("engine.resolution must be timestamp_first or sequential")
		}
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.DataDir == "" {
		return nil
	}
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return errors.New("cannot create data directory: " + err.Error())
	}
	return nil
}

func verifyRateLimit(cfg *RateLimitSection) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.RPS <= 0 {
		return errors.New("rate_limit.rps must be positive")
	}
	if cfg.Burst < 1 {
		return errors.New("rate_limit.burst must be at least 1")
	}
	return nil
}
