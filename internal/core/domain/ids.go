// Package domain defines the core domain models for TableSync.
package domain

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID prefixes.
const (
	// SessionIDPrefix is the prefix for session IDs.
	// Format: tbss-{ulid_lowercase}, 31 characters total.
	SessionIDPrefix = "tbss-"

	// ActionIDPrefix is the prefix for action IDs.
	// Format: tbac-{ulid_lowercase}, 31 characters total.
	ActionIDPrefix = "tbac-"
)

// GenerateSessionID generates a new session ID using ULID.
func GenerateSessionID() (string, error) {
	return generateID(SessionIDPrefix)
}

// GenerateActionID generates a new action ID using ULID.
func GenerateActionID() (string, error) {
	return generateID(ActionIDPrefix)
}

func generateID(prefix string) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", ErrInternalServer.WithCause(err)
	}
	return prefix + strings.ToLower(id.String()), nil
}

// IsValidSessionID checks if a string is a valid session ID format.
func IsValidSessionID(id string) bool {
	return isValidID(id, SessionIDPrefix)
}

// IsValidActionID checks if a string is a valid action ID format.
func IsValidActionID(id string) bool {
	return isValidID(id, ActionIDPrefix)
}

func isValidID(id, prefix string) bool {
	id = strings.ToLower(id)
	if !strings.HasPrefix(id, prefix) {
		return false
	}
	// prefix (5) + ULID (26) = 31 characters
	if len(id) != 31 {
		return false
	}
	_, err := ulid.Parse(strings.ToUpper(id[len(prefix):]))
	return err == nil
}

// NormalizeSessionID normalizes a session ID to lowercase.
// Returns empty string if the ID is invalid.
func NormalizeSessionID(id string) string {
	normalized := strings.ToLower(id)
	if !IsValidSessionID(normalized) {
		return ""
	}
	return normalized
}
