// Package mail delivers OTP codes and password-reset links to users.
package mail

import "context"

// Notifier sends account-recovery messages out-of-band. Callers treat any
// returned error as a hard failure of the operation that triggered the send.
type Notifier interface {
	SendOtp(ctx context.Context, email, username, code string) error
	SendResetLink(ctx context.Context, email, username, link string) error
}
