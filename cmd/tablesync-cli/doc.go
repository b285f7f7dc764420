// Package main provides the entry point for tablesync-cli.
//
// tablesync-cli is the command-line management tool for TableSync. It talks
// to a running tablesync-server over HTTP and supports session management,
// synchronization checks and recovery inspection.
//
// Usage:
//
//	tablesync-cli [global flags] COMMAND [command flags]
//	tablesync-cli session list
//	tablesync-cli session sync SESSION_ID --client-version 41
//
// @design DS-0601
package main
