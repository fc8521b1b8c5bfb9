package auth

import (
	"context"
	"log/slog"

	"github.com/certitax/certitax/internal/config"
	"github.com/certitax/certitax/internal/identity"
	"github.com/certitax/certitax/internal/otp"
)

// Service drives the login flow, including the MFA challenge branch.
type Service struct {
	cfg    config.Config
	ids    *identity.Service
	repo   identity.Repository
	otps   *otp.Service
	logger *slog.Logger
}

// NewService builds the auth service.
func NewService(cfg config.Config, ids *identity.Service, repo identity.Repository, otps *otp.Service, logger *slog.Logger) *Service {
	return &Service{cfg: cfg, ids: ids, repo: repo, otps: otps, logger: logger}
}

// LoginResult is the outcome of a credential check. When RequiresMFA is set
// no token is issued; the caller must complete VerifyMFA first.
type LoginResult struct {
	User        identity.User
	Token       string
	RequiresMFA bool
}

// Login checks credentials and either issues a session token or, for
// MFA-enabled profiles, mails a one-time code and withholds the token.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.ids.Authenticate(ctx, identity.Credentials{Email: email, Password: password})
	if err != nil {
		return LoginResult{}, err
	}

	if user.MFAEnabled {
		if err := s.otps.IssueGenerated(ctx, user.Email); err != nil {
			return LoginResult{}, err
		}
		s.logger.Info("mfa challenge issued", "user_id", user.ID, "email", user.Email)
		return LoginResult{User: user, RequiresMFA: true}, nil
	}

	token, err := SignToken(user, s.cfg.JWTSecret, s.cfg.SessionTTL)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{User: user, Token: token}, nil
}

// VerifyMFA consumes the pending code and completes the login with a token.
func (s *Service) VerifyMFA(ctx context.Context, email, code string) (LoginResult, error) {
	if err := s.otps.Verify(ctx, email, code); err != nil {
		return LoginResult{}, err
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return LoginResult{}, err
	}

	token, err := SignToken(user, s.cfg.JWTSecret, s.cfg.SessionTTL)
	if err != nil {
		return LoginResult{}, err
	}
	s.logger.Info("mfa verified", "user_id", user.ID)
	return LoginResult{User: user, Token: token}, nil
}

// Register creates a self-service account. Whether the profile is immediately
// usable depends on the identity service's auto-provisioning setting.
func (s *Service) Register(ctx context.Context, email, password, name string) (identity.User, error) {
	user, err := s.ids.Register(ctx, email, password, name)
	if err != nil {
		return identity.User{}, err
	}
	s.logger.Info("user registered", "user_id", user.ID, "estado", user.Status)
	return user, nil
}

// SendOTP issues a caller-supplied code for the email. Kept for compatibility
// with the original client, which generated the code browser-side.
func (s *Service) SendOTP(ctx context.Context, email, code string) error {
	return s.otps.Issue(ctx, email, code)
}
