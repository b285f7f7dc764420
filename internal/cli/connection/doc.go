// Package connection provides server communication for TableSync CLI.
//
// It wraps net/http with the envelope parsing and error mapping used by all
// CLI commands.
//
// @design DS-0601
package connection
