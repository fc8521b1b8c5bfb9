package otp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/certitax/certitax/internal/mailer"
)

const (
	mailSubject = "Tu código de seguridad (MFA)"
	mailBody    = "Tu código MFA es: %s"
)

// Service issues and verifies one-time passwords delivered by email.
type Service struct {
	store  Store
	mail   mailer.Mailer
	ttl    time.Duration
	logger *slog.Logger
}

// NewService builds an OTP service. ttl is the code lifetime.
func NewService(store Store, mail mailer.Mailer, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{store: store, mail: mail, ttl: ttl, logger: logger}
}

// Issue stores the code for the email and mails it. The stored code is not
// rolled back when the send fails; the caller may retry the send or re-issue.
func (s *Service) Issue(ctx context.Context, email, code string) error {
	if code == "" {
		return ErrEmptyCode
	}
	if !ValidCode(code) {
		return ErrInvalidCode
	}

	rec := Record{Code: code, ExpiresAt: time.Now().Add(s.ttl)}
	if err := s.store.Put(ctx, email, rec); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	if err := s.mail.Send(ctx, email, mailSubject, fmt.Sprintf(mailBody, code)); err != nil {
		s.logger.Error("otp mail send failed", "email", email, "error", err)
		return fmt.Errorf("error enviando correo MFA: %w", err)
	}

	s.logger.Info("otp issued", "email", email, "expires_in", s.ttl.String())
	return nil
}

// IssueGenerated generates a fresh code and issues it.
func (s *Service) IssueGenerated(ctx context.Context, email string) error {
	code, err := GenerateCode()
	if err != nil {
		return err
	}
	return s.Issue(ctx, email, code)
}

// Verify consumes the pending code for the email if it matches.
func (s *Service) Verify(ctx context.Context, email, code string) error {
	if code == "" {
		return ErrEmptyCode
	}
	return s.store.Verify(ctx, email, code, time.Now())
}
