// Package common defines shared constants and sentinel errors used across
// the AuthKeeper service layers. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Registration / login errors.
	ErrorUsernameTaken      = errors.New("username already exists")
	ErrorEmailTaken         = errors.New("email already registered")
	ErrorPasswordMismatch   = errors.New("passwords do not match")
	ErrorInvalidCredentials = errors.New("invalid credentials")

	// ErrorUnknownAccount is returned when an operation references an email
	// with no registered user and disclosure is acceptable (OTP issuance
	// must tell the user to register first; login must not leak existence).
	ErrorUnknownAccount = errors.New("no account registered for this email")

	// OTP lifecycle errors.
	ErrorNoOtpPending    = errors.New("no verification code pending")
	ErrorOtpAlreadyUsed  = errors.New("verification code already used")
	ErrorOtpExpired      = errors.New("verification code expired")
	ErrorInvalidCode     = errors.New("incorrect verification code")
	ErrorTooManyAttempts = errors.New("too many incorrect attempts")

	// Reset token lifecycle errors.
	ErrorInvalidResetToken = errors.New("invalid reset token")
	ErrorResetTokenExpired = errors.New("reset token expired")

	// ErrorDeliveryFailure wraps notifier failures. An OTP or reset link the
	// user never receives is useless, so a delivery failure fails the whole
	// triggering operation.
	ErrorDeliveryFailure = errors.New("delivery failure")
)
