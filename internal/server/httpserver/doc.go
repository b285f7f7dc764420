// Package httpserver provides the HTTP server for TableSync.
//
// This package implements the external API using stdlib net/http:
//
//   - Session endpoints: /sessions, /sessions/{id}
//   - State endpoints: /sessions/{id}/snapshot, /sessions/{id}/sync,
//     /sessions/{id}/recover, /sessions/{id}/actions
//   - Health endpoints: /health, /ready, /metrics
//
// Features:
//
//   - Middleware chain: RequestID, Logging, Recover, RateLimit
//   - Graceful shutdown with configurable timeout
//   - Prometheus metrics integration
//
// @req RQ-0301
// @design DS-0401
package httpserver
