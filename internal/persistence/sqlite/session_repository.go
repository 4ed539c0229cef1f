package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/weekly-planner/internal/domain"
	"github.com/example/weekly-planner/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository.
type SessionRepository struct {
	pool *ConnectionPool
}

// NewSessionRepository creates a SQLite-backed session repository.
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// CreateSession inserts a session record.
func (r *SessionRepository) CreateSession(ctx context.Context, session domain.Session) (domain.Session, error) {
	_, err := r.pool.DB().ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, token, expires_at, created_at, updated_at, revoked_at)
		 VALUES (?, ?, ?, ?, ?, ?, NULL)`,
		session.ID, session.UserID, session.Token,
		session.ExpiresAt.UTC().Format(time.RFC3339),
		session.CreatedAt.UTC().Format(time.RFC3339),
		session.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return domain.Session{}, mapError(err)
	}
	return session, nil
}

// GetSession loads a session by token.
func (r *SessionRepository) GetSession(ctx context.Context, token string) (domain.Session, error) {
	var session domain.Session
	var expiresAt, createdAt, updatedAt string
	var revokedAt sql.NullString
	err := r.pool.DB().QueryRowContext(ctx,
		`SELECT id, user_id, token, expires_at, created_at, updated_at, revoked_at
		 FROM sessions WHERE token = ?`,
		token,
	).Scan(&session.ID, &session.UserID, &session.Token, &expiresAt, &createdAt, &updatedAt, &revokedAt)
	if err != nil {
		return domain.Session{}, mapError(err)
	}

	session.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAt)
	session.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	session.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	if revokedAt.Valid {
		parsed, err := time.Parse(time.RFC3339, revokedAt.String)
		if err == nil {
			session.RevokedAt = &parsed
		}
	}
	return session, nil
}

// RevokeSession marks a session revoked.
func (r *SessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (domain.Session, error) {
	stamp := revokedAt.UTC().Format(time.RFC3339)
	result, err := r.pool.DB().ExecContext(ctx,
		`UPDATE sessions SET revoked_at = ?, updated_at = ? WHERE token = ?`,
		stamp, stamp, token,
	)
	if err != nil {
		return domain.Session{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.Session{}, err
	}
	if affected == 0 {
		return domain.Session{}, persistence.ErrNotFound
	}
	return r.GetSession(ctx, token)
}

// DeleteExpiredSessions purges sessions that expired before reference.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := r.pool.DB().ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < ?`,
		reference.UTC().Format(time.RFC3339),
	)
	return mapError(err)
}
