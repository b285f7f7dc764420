// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for tablesync-server.
type ServerConfig struct {
	Server    ServerSection    `koanf:"server"`
	Engine    EngineSection    `koanf:"engine"`
	Storage   StorageSection   `koanf:"storage"`
	RateLimit RateLimitSection `koanf:"rate_limit"`
	Log       LogSection       `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// EngineSection configures per-session engine behavior.
type EngineSection struct {
	// MaxDeltaSize is the size threshold above which a sync falls back to a
	// full snapshot, in bytes.
	MaxDeltaSize int `koanf:"max_delta_size"`

	// HistoryRetention is the number of deltas retained per session.
	HistoryRetention int `koanf:"history_retention"`

	// Resolution is the conflict resolution strategy
	// (timestamp_first, sequential).
	Resolution string `koanf:"resolution"`
}

// StorageSection configures storage behavior.
type StorageSection struct {
	// DataDir is the directory for durable action logs. Empty keeps all
	// state in memory.
	DataDir string `koanf:"data_dir"`
}

// RateLimitSection configures per-client request pacing.
type RateLimitSection struct {
	Enabled bool    `koanf:"enabled"`
	RPS     float64 `koanf:"rps"`
	Burst   int     `koanf:"burst"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
