// Package command provides CLI command definitions for tablesync-cli.
//
// It uses urfave/cli/v2 for command parsing. Commands talk to a running
// tablesync-server over its HTTP API:
//
//   - session: register, inspect, sync and recover sessions
//   - system: health and readiness checks
//
// @design DS-0601
package command
