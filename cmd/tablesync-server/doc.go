// Package main provides the entry point for tablesync-server.
//
// The server is the core TableSync service that provides:
//
//   - HTTP API for session registration and state publication
//   - Delta-based synchronization and client recovery
//   - Conflict detection and resolution for submitted actions
//   - Prometheus metrics at /metrics
//
// Usage:
//
//	tablesync-server [flags]
//	tablesync-server --config /path/to/config.yaml
//
// The server loads configuration, initializes infrastructure components,
// and starts the HTTP listener.
//
// @design DS-0501
package main
