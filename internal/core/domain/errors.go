// Package domain defines the core domain models for TableSync.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
// Error codes follow the format defined in specs/governance/error-codes.md.
//
// @req RQ-0104
// @design DS-0104
type DomainError struct {
	Code    string // Error code (e.g., "TS-DELT-4090")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
//
// @design DS-0104
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
//
// @design DS-0104
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
//
// @design DS-0104
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Snapshot Errors (SNAP)
// ============================================================================

var (
	// ErrMalformedSnapshot indicates a corrupted snapshot container or an
	// invariant violation discovered outside the boolean validation path.
	ErrMalformedSnapshot = NewDomainError("TS-SNAP-4000", "malformed snapshot")

	// ErrSnapshotNotFound indicates the requested snapshot version is not retained.
	ErrSnapshotNotFound = NewDomainError("TS-SNAP-4040", "snapshot not found")
)

// ============================================================================
// Delta Errors (DELT)
// ============================================================================

var (
	// ErrMalformedDelta indicates a delta change missing a required value.
	ErrMalformedDelta = NewDomainError("TS-DELT-4000", "malformed delta")

	// ErrVersionMismatch indicates a delta's from-version does not match the
	// target snapshot's version.
	ErrVersionMismatch = NewDomainError("TS-DELT-4090", "delta version mismatch")

	// ErrBrokenChain indicates a delta chain whose versions are not contiguous.
	ErrBrokenChain = NewDomainError("TS-DELT-4091", "broken delta chain")
)

// ============================================================================
// History / Action Log Errors (HIST, ALOG)
// ============================================================================

var (
	// ErrHistoryUnavailable indicates the retained delta history cannot
	// reconstruct the requested version span.
	ErrHistoryUnavailable = NewDomainError("TS-HIST-4040", "delta history unavailable")

	// ErrLogUnavailable indicates the external action log is not reachable.
	ErrLogUnavailable = NewDomainError("TS-ALOG-5030", "action log unavailable")
)

// ============================================================================
// Session Errors (SESS)
// ============================================================================

var (
	// ErrSessionNotFound indicates no engine is registered for the session.
	ErrSessionNotFound = NewDomainError("TS-SESS-4040", "session not found")

	// ErrSessionConflict indicates the session ID is already registered.
	ErrSessionConflict = NewDomainError("TS-SESS-4090", "session id conflict")
)

// ============================================================================
// Configuration Errors (CONF)
// ============================================================================

var (
	// ErrInvalidConfiguration indicates an invalid engine configuration,
	// such as a non-positive max delta size.
	ErrInvalidConfiguration = NewDomainError("TS-CONF-4001", "invalid configuration")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("TS-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("TS-ARG-1002", "missing required argument")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("TS-SYS-5000", "internal server error")

	// ErrStorageError indicates a storage layer error.
	ErrStorageError = NewDomainError("TS-SYS-5001", "storage error")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("TS-SYS-4000", "bad request")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("TS-SYS-4290", "too many requests")
)
