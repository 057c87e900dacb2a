// Package models defines the persistent entities of the server.
package models

import (
	"database/sql"
	"time"
)

// User is a registered account. Username and email are unique and immutable
// after creation; only the password hash and the reset-token pair change.
//
// ResetToken and ResetTokenExpiry are set when an OTP verification succeeds
// and cleared when the token is consumed to set a new password.
type User struct {
	ID               string
	Username         string
	Email            string
	PasswordHash     string
	ResetToken       sql.NullString
	ResetTokenExpiry sql.NullTime
	CreatedAt        time.Time
}
