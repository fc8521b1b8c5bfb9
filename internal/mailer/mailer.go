package mailer

import (
	"context"
	"log/slog"

	mail "github.com/wneessen/go-mail"
)

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends plain-text mail through an authenticated SMTP account.
type SMTPMailer struct {
	host     string
	port     int
	user     string
	password string
	from     string
}

// NewSMTP builds an SMTP-backed mailer.
func NewSMTP(host string, port int, user, password, from string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, user: user, password: password, from: from}
}

// Send delivers a single message. Each call dials a fresh connection; OTP
// volume does not justify a pooled client.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.user),
		mail.WithPassword(m.password),
	)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// LogMailer writes messages to the structured logger instead of sending them.
// Used in development and tests.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer constructs a logging mailer stub.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send writes the message to the logger.
func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	if m == nil || m.logger == nil {
		return nil
	}
	m.logger.Info("mail", "to", to, "subject", subject, "body", body)
	return nil
}
