// Package httpserver provides the HTTP server for TableSync.
package httpserver

import (
	"net/http"

	"github.com/yndnr/tablesync-go/internal/core/service"
	"github.com/yndnr/tablesync-go/internal/server/httpserver/handler"
	"github.com/yndnr/tablesync-go/internal/storage"
	"github.com/yndnr/tablesync-go/internal/telemetry/logger"
	"github.com/yndnr/tablesync-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Registry maps session IDs to engines.
	Registry *service.Registry

	// Storage owns the per-session backends.
	Storage *storage.Engine

	// Metrics is the application metrics registry.
	Metrics *metric.Registry

	// Logger for request logging.
	Logger logger.Logger

	// RateLimitRPS is the per-IP request rate limit (0 disables limiting).
	RateLimitRPS float64

	// RateLimitBurst is the per-IP burst allowance.
	RateLimitBurst int
}

// NewRouter creates and configures the HTTP router with all routes and
// middleware.
//
// @design DS-0401
func NewRouter(cfg *RouterConfig) http.Handler {
	h := handler.New(cfg.Registry, cfg.Storage, cfg.Metrics, cfg.Logger)

	// Order: Recover -> RequestID -> RateLimit -> Logging -> Metrics -> Handler
	base := []Middleware{
		Recover(cfg.Logger),
		RequestID(),
	}
	business := base
	if cfg.RateLimitRPS > 0 {
		business = append(business, RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}
	business = append(business, Logging(cfg.Logger))

	route := func(routeLabel string, middlewares []Middleware) http.Handler {
		ms := append(append([]Middleware{}, middlewares...), Metrics(cfg.Metrics, routeLabel))
		return Chain(h, ms...)
	}

	mux := http.NewServeMux()

	// Health endpoints skip rate limiting and request logging.
	mux.Handle("GET /health", route("/health", base))
	mux.Handle("GET /ready", route("/ready", base))

	// Metrics endpoint serves the Prometheus registry directly.
	mux.Handle("GET /metrics", Chain(cfg.Metrics.Handler(), base...))

	// Session endpoints
	mux.Handle("GET /sessions", route("/sessions", business))
	mux.Handle("POST /sessions", route("/sessions", business))
	mux.Handle("GET /sessions/{id}", route("/sessions/{id}", business))
	mux.Handle("DELETE /sessions/{id}", route("/sessions/{id}", business))

	// State endpoints
	mux.Handle("POST /sessions/{id}/snapshot", route("/sessions/{id}/snapshot", business))
	mux.Handle("GET /sessions/{id}/snapshot", route("/sessions/{id}/snapshot", business))
	mux.Handle("POST /sessions/{id}/sync", route("/sessions/{id}/sync", business))
	mux.Handle("POST /sessions/{id}/recover", route("/sessions/{id}/recover", business))
	mux.Handle("POST /sessions/{id}/actions", route("/sessions/{id}/actions", business))

	return mux
}
