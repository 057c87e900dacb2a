package models

import "time"

// PasswordResetOtp is the single pending one-time passcode for an email.
// The email is the primary key, so at most one row exists per address;
// issuing a new code replaces the previous row.
type PasswordResetOtp struct {
	Email     string
	Code      string
	ExpiresAt time.Time
	Attempts  int
	Verified  bool
	CreatedAt time.Time
}
