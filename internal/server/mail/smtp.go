package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// SMTPNotifier delivers messages through an SMTP relay.
type SMTPNotifier struct {
	client *gomail.Client
	from   string
}

func NewSMTPNotifier(host string, port int, username, password, from string) (*SMTPNotifier, error) {

	opts := []gomail.Option{
		gomail.WithPort(port),
	}
	if username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(username),
			gomail.WithPassword(password),
		)
	}

	client, err := gomail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client init error: %w", err)
	}

	return &SMTPNotifier{client: client, from: from}, nil
}

func (n *SMTPNotifier) SendOtp(ctx context.Context, email, username, code string) error {
	body := fmt.Sprintf(
		"Hello %s,\n\nYour password reset code is: %s\n"+
			"The code is valid for 5 minutes. Do not share it with anyone.\n"+
			"If you did not request this, you can ignore this message.\n",
		username, code)

	return n.send(ctx, email, "Password reset code", body)
}

func (n *SMTPNotifier) SendResetLink(ctx context.Context, email, username, link string) error {
	body := fmt.Sprintf(
		"Hello %s,\n\nWe received a request to reset your password. "+
			"Follow this link to choose a new one:\n%s\n\n"+
			"If this was not you, ignore this message and your password stays unchanged.\n"+
			"The link is valid for 30 minutes.\n",
		username, link)

	return n.send(ctx, email, "Password reset request", body)
}

func (n *SMTPNotifier) send(ctx context.Context, to, subject, body string) error {

	msg := gomail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return fmt.Errorf("mail compose error: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mail compose error: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mail send error: %w", err)
	}

	return nil
}
