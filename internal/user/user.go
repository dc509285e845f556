// Package user defines the user model persisted by the credential stores
// and read by the authentication service.
package user

import (
	"strings"
	"time"
)

// User represents a registered account.
type User struct {
	// ID is the unique identifier of the user, meaning a UUID.
	ID string

	// Email is stored normalized, see NormalizeEmail.
	Email string

	// PasswordHash is the bcrypt hash of the password. The password itself is never stored.
	PasswordHash string

	CreatedAt time.Time
}

// NormalizeEmail trims and lowercases an email so that addresses differing
// only in case map to the same account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
