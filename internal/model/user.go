// Package model defines the data structures used throughout the application.
package model

import (
	"strings"
	"time"
)

// User represents a registered account.
//
// Users sign up with an email and a password. The email is the login
// identifier, so it is stored in a canonical form (trimmed, lowercased) and
// the stores enforce uniqueness on that canonical value.
//
// PasswordHash carries the `json:"-"` tag: the bcrypt hash must never leave
// the server, even by accident when a handler encodes a whole User.
type User struct {
	ID           string    `json:"id"        db:"id"        bson:"_id"`
	Email        string    `json:"email"     db:"email"     bson:"email"`
	PasswordHash string    `json:"-"         db:"password_hash" bson:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at" bson:"updatedAt"`
}

// NormalizeEmail returns the canonical form of an email address.
// "  Alice@Example.COM " and "alice@example.com" are the same account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
