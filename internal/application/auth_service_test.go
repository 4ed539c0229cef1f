package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/weekly-planner/internal/domain"
	"github.com/example/weekly-planner/internal/persistence"
)

type credentialStoreStub struct {
	user domain.User
	hash string
	err  error
}

func (c *credentialStoreStub) GetPasswordHashByEmail(ctx context.Context, email string) (domain.User, string, error) {
	if c.err != nil {
		return domain.User{}, "", c.err
	}
	if c.user.Email != email {
		return domain.User{}, "", persistence.ErrNotFound
	}
	return c.user, c.hash, nil
}

func (c *credentialStoreStub) GetUser(ctx context.Context, id string) (domain.User, error) {
	if c.err != nil {
		return domain.User{}, c.err
	}
	if c.user.ID != id {
		return domain.User{}, persistence.ErrNotFound
	}
	return c.user, nil
}

type sessionStoreStub struct {
	sessions map[string]domain.Session
	pruned   int
	err      error
}

func newSessionStoreStub(sessions ...domain.Session) *sessionStoreStub {
	stub := &sessionStoreStub{sessions: make(map[string]domain.Session)}
	for _, s := range sessions {
		stub.sessions[s.Token] = s
	}
	return stub
}

func (s *sessionStoreStub) CreateSession(ctx context.Context, session domain.Session) (domain.Session, error) {
	if s.err != nil {
		return domain.Session{}, s.err
	}
	s.sessions[session.Token] = session
	return session, nil
}

func (s *sessionStoreStub) GetSession(ctx context.Context, token string) (domain.Session, error) {
	if s.err != nil {
		return domain.Session{}, s.err
	}
	session, ok := s.sessions[token]
	if !ok {
		return domain.Session{}, persistence.ErrNotFound
	}
	return session, nil
}

func (s *sessionStoreStub) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (domain.Session, error) {
	if s.err != nil {
		return domain.Session{}, s.err
	}
	session, ok := s.sessions[token]
	if !ok {
		return domain.Session{}, persistence.ErrNotFound
	}
	session.RevokedAt = &revokedAt
	s.sessions[token] = session
	return session, nil
}

func (s *sessionStoreStub) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	s.pruned++
	return nil
}

func matchPassword(hashedPassword, password string) error {
	if hashedPassword != "hash:"+password {
		return ErrInvalidCredentials
	}
	return nil
}

func newTestAuthService(creds *credentialStoreStub, sessions *sessionStoreStub, now func() time.Time) *AuthService {
	return NewAuthService(creds, sessions, matchPassword,
		func() string { return "token-1" }, now, time.Hour)
}

func TestAuthService_Authenticate_IssuesSession(t *testing.T) {
	t.Parallel()

	now := func() time.Time { return time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC) }
	creds := &credentialStoreStub{
		user: domain.User{ID: "user-1", Email: "anna@example.com"},
		hash: "hash:secret-pass",
	}
	sessions := newSessionStoreStub()
	svc := newTestAuthService(creds, sessions, now)

	result, err := svc.Authenticate(context.Background(), AuthenticateParams{
		Email:    "  Anna@Example.com ",
		Password: "secret-pass",
	})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	if result.User.ID != "user-1" {
		t.Errorf("User.ID = %s, want user-1", result.User.ID)
	}
	if result.Session.Token == "" {
		t.Fatal("expected a session token")
	}
	if got := result.Session.ExpiresAt; !got.Equal(now().Add(time.Hour)) {
		t.Errorf("ExpiresAt = %v, want an hour from now", got)
	}
	if sessions.pruned != 1 {
		t.Errorf("expected expired sessions to be pruned once, got %d", sessions.pruned)
	}
}

func TestAuthService_Authenticate_WrongPassword(t *testing.T) {
	t.Parallel()

	creds := &credentialStoreStub{
		user: domain.User{ID: "user-1", Email: "anna@example.com"},
		hash: "hash:secret-pass",
	}
	svc := newTestAuthService(creds, newSessionStoreStub(), nil)

	_, err := svc.Authenticate(context.Background(), AuthenticateParams{
		Email:    "anna@example.com",
		Password: "wrong",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Authenticate_UnknownEmailIndistinguishable(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(&credentialStoreStub{}, newSessionStoreStub(), nil)

	_, err := svc.Authenticate(context.Background(), AuthenticateParams{
		Email:    "ghost@example.com",
		Password: "whatever",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestAuthService_Authenticate_EmptyCredentials(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(&credentialStoreStub{}, newSessionStoreStub(), nil)

	_, err := svc.Authenticate(context.Background(), AuthenticateParams{})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_ValidateSession(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { return base }
	creds := &credentialStoreStub{user: domain.User{ID: "user-1", Email: "anna@example.com", IsAdmin: true}}

	session := domain.Session{ID: "session-1", UserID: "user-1", Token: "tok", ExpiresAt: base.Add(time.Hour)}
	svc := newTestAuthService(creds, newSessionStoreStub(session), now)

	principal, err := svc.ValidateSession(context.Background(), "tok")
	if err != nil {
		t.Fatalf("ValidateSession: %v", err)
	}
	if principal.UserID != "user-1" || !principal.IsAdmin {
		t.Fatalf("unexpected principal: %+v", principal)
	}
}

func TestAuthService_ValidateSession_Expired(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { return base }
	creds := &credentialStoreStub{user: domain.User{ID: "user-1"}}

	session := domain.Session{ID: "session-1", UserID: "user-1", Token: "tok", ExpiresAt: base.Add(-time.Minute)}
	svc := newTestAuthService(creds, newSessionStoreStub(session), now)

	_, err := svc.ValidateSession(context.Background(), "tok")
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestAuthService_ValidateSession_Revoked(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { return base }
	creds := &credentialStoreStub{user: domain.User{ID: "user-1"}}

	revokedAt := base.Add(-time.Minute)
	session := domain.Session{
		ID: "session-1", UserID: "user-1", Token: "tok",
		ExpiresAt: base.Add(time.Hour), RevokedAt: &revokedAt,
	}
	svc := newTestAuthService(creds, newSessionStoreStub(session), now)

	_, err := svc.ValidateSession(context.Background(), "tok")
	if !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("expected ErrSessionRevoked, got %v", err)
	}
}

func TestAuthService_ValidateSession_UnknownToken(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(&credentialStoreStub{}, newSessionStoreStub(), nil)

	_, err := svc.ValidateSession(context.Background(), "missing")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_RevokeSession(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { return base }
	creds := &credentialStoreStub{user: domain.User{ID: "user-1"}}

	session := domain.Session{ID: "session-1", UserID: "user-1", Token: "tok", ExpiresAt: base.Add(time.Hour)}
	sessions := newSessionStoreStub(session)
	svc := newTestAuthService(creds, sessions, now)

	if err := svc.RevokeSession(context.Background(), "tok"); err != nil {
		t.Fatalf("RevokeSession: %v", err)
	}

	if _, err := svc.ValidateSession(context.Background(), "tok"); !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("expected ErrSessionRevoked after revocation, got %v", err)
	}
}
