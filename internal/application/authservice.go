package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/codeflow/internal/domain/port/driven"
)

// CredentialServiceGitHub is the CredentialStore key for the GitHub token.
const CredentialServiceGitHub = "github"

var (
	// ErrTokenRequired is returned when an empty token is submitted.
	ErrTokenRequired = errors.New("token is required")

	// ErrInvalidToken is returned when a token does not look like a GitHub
	// personal access token.
	ErrInvalidToken = errors.New("token must start with ghp_ or github_pat_")
)

// CredentialsListener is told when a usable data source has been installed.
// ResetNotifications is called when the new token belongs to another account,
// so the first poll under it is a cold start.
type CredentialsListener interface {
	CredentialsAvailable()
	ResetNotifications(ctx context.Context) error
}

// AuthService validates a GitHub token, persists it and swaps the dashboard
// data source so the new credentials take effect without a restart.
type AuthService struct {
	validator   driven.TokenValidator
	credentials driven.CredentialStore
	provider    *DashboardSourceProvider
	factory     driven.DashboardSourceFactory
	listener    CredentialsListener
	logger      *slog.Logger
}

// NewAuthService creates an AuthService. credentials and listener may be nil.
func NewAuthService(
	validator driven.TokenValidator,
	credentials driven.CredentialStore,
	provider *DashboardSourceProvider,
	factory driven.DashboardSourceFactory,
	listener CredentialsListener,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		validator:   validator,
		credentials: credentials,
		provider:    provider,
		factory:     factory,
		listener:    listener,
		logger:      logger,
	}
}

// Authenticate checks the token against GitHub and installs it. It returns
// the login the token belongs to.
func (s *AuthService) Authenticate(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrTokenRequired
	}
	if !strings.HasPrefix(token, "ghp_") && !strings.HasPrefix(token, "github_pat_") {
		return "", ErrInvalidToken
	}

	username, err := s.validator.ValidateToken(ctx, token)
	if err != nil {
		return "", fmt.Errorf("validate token: %w", err)
	}

	if s.credentials != nil {
		if err := s.credentials.Set(ctx, CredentialServiceGitHub, token); err != nil {
			if errors.Is(err, driven.ErrEncryptionKeyNotSet) {
				s.logger.Warn("token not persisted, encryption key not configured")
			} else {
				s.logger.Warn("token not persisted", "error", err)
			}
		}
	}

	previous := s.provider.Username()
	switched := s.provider.HasSource() && !strings.EqualFold(previous, username)

	s.provider.Replace(s.factory(token), username)
	s.logger.Info("github credentials updated", "username", username)

	if s.listener == nil {
		return username, nil
	}
	if switched {
		s.logger.Info("github account changed, resetting notifications", "previous", previous, "username", username)
		if err := s.listener.ResetNotifications(ctx); err != nil {
			s.logger.Warn("failed to reset notifications after account change", "error", err)
		}
	}
	s.listener.CredentialsAvailable()

	return username, nil
}
