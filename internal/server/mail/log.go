package mail

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
)

// LogNotifier writes codes and links to the log instead of sending mail.
// Used when mail delivery is disabled by configuration (local development).
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(l logging.Logger) *LogNotifier {
	return &LogNotifier{logger: l.With("module", "mail")}
}

func (n *LogNotifier) SendOtp(ctx context.Context, email, username, code string) error {
	n.logger.Info(ctx, "mail sending disabled, logging OTP", "email", email, "code", code)
	return nil
}

func (n *LogNotifier) SendResetLink(ctx context.Context, email, username, link string) error {
	n.logger.Info(ctx, "mail sending disabled, logging reset link", "email", email, "link", link)
	return nil
}
