package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/weekly-planner/internal/domain"
	"github.com/example/weekly-planner/internal/persistence"
)

// CredentialStore exposes the credential lookups the auth service requires.
type CredentialStore interface {
	GetPasswordHashByEmail(ctx context.Context, email string) (domain.User, string, error)
	GetUser(ctx context.Context, id string) (domain.User, error)
}

// SessionStore captures the persistence interactions for issued sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session domain.Session) (domain.Session, error)
	GetSession(ctx context.Context, token string) (domain.Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (domain.Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// AuthService coordinates login, session validation, and logout.
type AuthService struct {
	credentials    CredentialStore
	sessions       SessionStore
	verifyPassword PasswordVerifier
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(credentials CredentialStore, sessions SessionStore, verify PasswordVerifier, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(credentials, sessions, verify, tokenGenerator, now, sessionTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(credentials CredentialStore, sessions SessionStore, verify PasswordVerifier, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if verify == nil {
		verify = VerifyPassword
	}
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		credentials:    credentials,
		sessions:       sessions,
		verifyPassword: verify,
		tokenGenerator: tokenGenerator,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Authenticate validates credentials and issues a new session token.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session store not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	password := params.Password

	logger := s.loggerWith(ctx, "Authenticate",
		"email", email,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"user_id", result.User.ID,
			"session_id", result.Session.ID,
		).InfoContext(ctx, "authentication succeeded")
	}()

	if email == "" || password == "" {
		err = ErrInvalidCredentials
		return
	}

	var user domain.User
	var hash string
	user, hash, err = s.credentials.GetPasswordHashByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	if err = s.verifyPassword(hash, password); err != nil {
		err = ErrInvalidCredentials
		return
	}

	now := s.now()
	session := domain.Session{
		ID:        s.tokenGenerator(),
		UserID:    user.ID,
		Token:     s.tokenGenerator(),
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if session.Token == "" {
		session.Token = session.ID
	}

	if err = s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
		return
	}
	session, err = s.sessions.CreateSession(ctx, session)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	result = AuthenticateResult{User: user, Session: session}
	return
}

// ValidateSession verifies a session token and returns its principal.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if s.sessions == nil {
		err = fmt.Errorf("session store not configured")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		err = ErrInvalidCredentials
		return
	}

	logger := s.loggerWith(ctx, "ValidateSession")

	var session domain.Session
	session, err = s.sessions.GetSession(ctx, trimmed)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
		}
		logger.WarnContext(ctx, "session lookup failed", "error_kind", ErrorKind(err))
		return
	}

	now := s.now()
	if session.RevokedAt != nil && !session.RevokedAt.IsZero() {
		err = ErrSessionRevoked
		return
	}
	if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(now) {
		err = ErrSessionExpired
		return
	}

	var user domain.User
	user, err = s.credentials.GetUser(ctx, session.UserID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	principal = Principal{UserID: user.ID, IsAdmin: user.IsAdmin}
	return
}

// RevokeSession invalidates an existing session token and prunes expired rows.
func (s *AuthService) RevokeSession(ctx context.Context, token string) error {
	if s.sessions == nil {
		return fmt.Errorf("session store not configured")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ErrInvalidCredentials
	}

	logger := s.loggerWith(ctx, "RevokeSession")

	if _, err := s.sessions.RevokeSession(ctx, trimmed, s.now()); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			logger.ErrorContext(ctx, "failed to revoke session", "error", ErrInvalidCredentials, "error_kind", ErrorKind(ErrInvalidCredentials))
			return ErrInvalidCredentials
		}
		logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if err := s.sessions.DeleteExpiredSessions(ctx, s.now()); err != nil {
		logger.ErrorContext(ctx, "failed to prune expired sessions", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "session revoked")
	return nil
}
