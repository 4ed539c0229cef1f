package sqlite

import (
	"context"
	"time"

	"github.com/example/weekly-planner/internal/domain"
	"github.com/example/weekly-planner/internal/persistence"
)

// UserRepository implements persistence.UserRepository.
type UserRepository struct {
	pool *ConnectionPool
	now  func() time.Time
}

// NewUserRepository creates a SQLite-backed user repository.
func NewUserRepository(pool *ConnectionPool, now func() time.Time) *UserRepository {
	if now == nil {
		now = time.Now
	}
	return &UserRepository{pool: pool, now: now}
}

const userColumns = `id, email, display_name, profile_image_url, is_admin, created_at, updated_at`

// CreateUser inserts a user with their password hash.
func (r *UserRepository) CreateUser(ctx context.Context, user domain.User, passwordHash string) error {
	now := r.now().UTC()
	_, err := r.pool.DB().ExecContext(ctx,
		`INSERT INTO users (id, email, display_name, profile_image_url, password_hash, is_admin, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.DisplayName, user.ProfileImageURL, passwordHash,
		boolToInt(user.IsAdmin), now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	return mapError(err)
}

// UpdateUser updates profile fields. The password hash is untouched.
func (r *UserRepository) UpdateUser(ctx context.Context, user domain.User) error {
	result, err := r.pool.DB().ExecContext(ctx,
		`UPDATE users SET email = ?, display_name = ?, profile_image_url = ?, is_admin = ?, updated_at = ?
		 WHERE id = ?`,
		user.Email, user.DisplayName, user.ProfileImageURL, boolToInt(user.IsAdmin),
		r.now().UTC().Format(time.RFC3339), user.ID,
	)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// UpdatePassword replaces the stored hash for a user.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	result, err := r.pool.DB().ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, r.now().UTC().Format(time.RFC3339), userID,
	)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetUser loads a user by id.
func (r *UserRepository) GetUser(ctx context.Context, id string) (domain.User, error) {
	return r.scanUser(r.pool.DB().QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetUserByEmail loads a user by email.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.scanUser(r.pool.DB().QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

// GetPasswordHashByEmail loads a user and their stored password hash.
func (r *UserRepository) GetPasswordHashByEmail(ctx context.Context, email string) (domain.User, string, error) {
	var user domain.User
	var isAdmin int
	var passwordHash, createdAt, updatedAt string
	err := r.pool.DB().QueryRowContext(ctx,
		`SELECT id, email, display_name, profile_image_url, password_hash, is_admin, created_at, updated_at
		 FROM users WHERE email = ?`,
		email,
	).Scan(&user.ID, &user.Email, &user.DisplayName, &user.ProfileImageURL, &passwordHash, &isAdmin, &createdAt, &updatedAt)
	if err != nil {
		return domain.User{}, "", mapError(err)
	}
	user.IsAdmin = isAdmin != 0
	user.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	user.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return user, passwordHash, nil
}

// ListUsers returns every user ordered by display name.
func (r *UserRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY display_name, id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// DeleteUser removes a user. Their sessions cascade away.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *UserRepository) scanUser(scanner rowScanner) (domain.User, error) {
	var user domain.User
	var isAdmin int
	var createdAt, updatedAt string
	err := scanner.Scan(&user.ID, &user.Email, &user.DisplayName, &user.ProfileImageURL, &isAdmin, &createdAt, &updatedAt)
	if err != nil {
		return domain.User{}, mapError(err)
	}
	user.IsAdmin = isAdmin != 0
	user.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	user.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return user, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
