// Package handler provides HTTP request handlers for TableSync.
//
// This package implements the HTTP API endpoints for session registration,
// snapshot publication, synchronization, recovery and action submission.
//
// @req RQ-0301
// @design DS-0401
package handler
