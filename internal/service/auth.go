package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/shelfy/internal/events"
	"github.com/Skotchmaster/shelfy/internal/hash"
	"github.com/Skotchmaster/shelfy/internal/logging"
	"github.com/Skotchmaster/shelfy/internal/metrics"
	"github.com/Skotchmaster/shelfy/internal/models"
	"github.com/Skotchmaster/shelfy/internal/repo"
	"github.com/Skotchmaster/shelfy/internal/revocation"
	"github.com/Skotchmaster/shelfy/internal/tokens"
	"github.com/Skotchmaster/shelfy/internal/transport"
)

type CredentialStore interface {
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
}

type AuthService struct {
	Users   CredentialStore
	Tokens  *tokens.Service
	Ledger  revocation.Ledger
	Events  *events.Emitter
	Metrics *metrics.Metrics
}

// Session is a freshly issued token pair and the identity it was issued for.
type Session struct {
	Username string
	Roles    []string
	Access   tokens.Issued
	Refresh  tokens.Issued
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Users.FindUserByUsername(ctx, username)
	switch {
	case errors.Is(err, repo.ErrUserNotFound):
		hash.CompareDummy(password)
		return nil, s.loginFailed(ctx, username, "unknown user")
	case err != nil:
		l.Error("login_error", "status", 500, "reason", "cannot load credential", "error", err)
		s.Metrics.AuthOutcome("login", "error")
		return nil, fmt.Errorf("login: %w", err)
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, s.loginFailed(ctx, username, "wrong password")
	}
	if !user.Enabled {
		return nil, s.loginFailed(ctx, username, "disabled")
	}

	sess, err := s.issue(user)
	if err != nil {
		l.Error("login_error", "status", 500, "reason", "cannot sign tokens", "error", err)
		s.Metrics.AuthOutcome("login", "error")
		return nil, err
	}

	s.Metrics.AuthOutcome("login", "success")
	s.Events.User(ctx, l, events.UserEvent{Type: events.UserLoggedIn, Username: user.Username})
	l.Info("login_success", "username", user.Username)
	return sess, nil
}

func (s *AuthService) loginFailed(ctx context.Context, username, reason string) error {
	l := logging.FromContext(ctx).With("svc", "auth.login")
	l.Warn("login_failed", "status", 401, "reason", reason)
	s.Metrics.AuthOutcome("login", "invalid_credentials")
	s.Events.User(ctx, l, events.UserEvent{Type: events.UserLoginFailed, Username: username})
	return ErrInvalidCredentials
}

// Refresh rotates a refresh token into a new pair. Roles are re-read from the
// credential store, never carried over from the presented token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := s.Tokens.Parse(refreshToken)
	if err != nil || !claims.IsRefresh() || claims.ID == "" {
		l.Warn("refresh_failed", "status", 401, "reason", "not a valid refresh token")
		s.Metrics.AuthOutcome("refresh", "invalid_token")
		return nil, ErrInvalidToken
	}

	user, err := s.Users.FindUserByUsername(ctx, claims.Subject)
	switch {
	case errors.Is(err, repo.ErrUserNotFound):
		l.Warn("refresh_failed", "status", 401, "reason", "subject no longer exists")
		s.Metrics.AuthOutcome("refresh", "user_not_found")
		return nil, ErrUserNotFound
	case err != nil:
		l.Error("refresh_error", "status", 500, "reason", "cannot load credential", "error", err)
		s.Metrics.AuthOutcome("refresh", "error")
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if !user.Enabled {
		l.Warn("refresh_failed", "status", 401, "reason", "disabled")
		s.Metrics.AuthOutcome("refresh", "user_not_found")
		return nil, ErrUserNotFound
	}

	first, err := s.ledger().MarkUsed(ctx, claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		l.Error("refresh_error", "status", 500, "reason", "cannot record refresh token use", "error", err)
		s.Metrics.AuthOutcome("refresh", "error")
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if !first {
		l.Warn("refresh_failed", "status", 401, "reason", "refresh token already used")
		s.Metrics.AuthOutcome("refresh", "reused")
		return nil, ErrInvalidToken
	}

	sess, err := s.issue(user)
	if err != nil {
		l.Error("refresh_error", "status", 500, "reason", "cannot sign tokens", "error", err)
		s.Metrics.AuthOutcome("refresh", "error")
		return nil, err
	}
	s.Metrics.AuthOutcome("refresh", "success")
	l.Info("refresh_success", "username", user.Username)
	return sess, nil
}

// Me reports the identity carried by an access token. Every failure is the
// same ErrInvalidToken.
func (s *AuthService) Me(ctx context.Context, accessToken string) (*transport.MeResponse, error) {
	claims, err := s.Tokens.Parse(accessToken)
	if err != nil || claims.IsRefresh() {
		s.Metrics.AuthOutcome("me", "invalid_token")
		return nil, ErrInvalidToken
	}
	roles := claims.Roles
	if roles == nil {
		roles = []string{}
	}
	s.Metrics.AuthOutcome("me", "success")
	return &transport.MeResponse{Username: claims.Subject, Roles: roles}, nil
}

// LogOut burns the refresh token when a ledger is configured. Tokens that do
// not parse have nothing left to revoke.
func (s *AuthService) LogOut(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return nil
	}
	claims, err := s.Tokens.Parse(refreshToken)
	if err != nil || !claims.IsRefresh() || claims.ID == "" {
		return nil
	}
	if _, err := s.ledger().MarkUsed(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.Metrics.AuthOutcome("logout", "success")
	return nil
}

func (s *AuthService) issue(user *models.User) (*Session, error) {
	names := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		names = append(names, r.Role)
	}
	roles := tokens.Authorities(names)

	access, err := s.Tokens.GenerateAccessToken(user.Username, roles)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.Tokens.GenerateRefreshToken(user.Username)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &Session{Username: user.Username, Roles: roles, Access: access, Refresh: refresh}, nil
}

func (s *AuthService) ledger() revocation.Ledger {
	if s.Ledger == nil {
		return revocation.Noop{}
	}
	return s.Ledger
}
