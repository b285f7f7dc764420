// Package config defines the server configuration structure.
package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:7480"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	DefaultMaxDeltaSize     = 32 * 1024
	DefaultHistoryRetention = 256
	DefaultResolution       = "timestamp_first"

	DefaultRateLimitRPS   = 50.0
	DefaultRateLimitBurst = 100

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:            DefaultHTTPAddr,
				ReadTimeout:     DefaultReadTimeout,
				WriteTimeout:    DefaultWriteTimeout,
				ShutdownTimeout: DefaultShutdownTimeout,
			},
		},
		Engine: EngineSection{
			MaxDeltaSize:     DefaultMaxDeltaSize,
			HistoryRetention: DefaultHistoryRetention,
			Resolution:       DefaultResolution,
		},
		Storage: StorageSection{
			DataDir: "",
		},
		RateLimit: RateLimitSection{
			Enabled: false,
			RPS:     DefaultRateLimitRPS,
			Burst:   DefaultRateLimitBurst,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
