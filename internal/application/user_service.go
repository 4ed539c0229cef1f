package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/example/weekly-planner/internal/domain"
)

const minPasswordLength = 8

// UserAccountStore captures the persistence operations needed by the user service.
type UserAccountStore interface {
	CreateUser(ctx context.Context, user domain.User, passwordHash string) error
	UpdateUser(ctx context.Context, user domain.User) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	GetUser(ctx context.Context, id string) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// PasswordHasher derives a storable hash from a plaintext password.
type PasswordHasher func(password string) (string, error)

// UserService orchestrates validation, authorization, and persistence for
// user accounts. All mutations are admin-only.
type UserService struct {
	users        UserAccountStore
	hashPassword PasswordHasher
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserAccountStore, hash PasswordHasher, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, hash, idGenerator, now, nil)
}

// NewUserServiceWithLogger constructs a UserService with a specified logger.
func NewUserServiceWithLogger(users UserAccountStore, hash PasswordHasher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if hash == nil {
		hash = func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		}
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users:        users,
		hashPassword: hash,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// CreateUser validates input and persists a new user for administrators.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (domain.User, error) {
	logger := s.loggerWith(ctx, "CreateUser")
	if !params.Principal.IsAdmin {
		return domain.User{}, ErrUnauthorized
	}

	normalized := normalizeUserInput(params.Input)
	vErr := validateUserInput(normalized, true)
	if vErr.HasErrors() {
		return domain.User{}, vErr
	}

	hash, err := s.hashPassword(normalized.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := domain.User{
		ID:          s.idGenerator(),
		Email:       normalized.Email,
		DisplayName: normalized.DisplayName,
		IsAdmin:     normalized.IsAdmin,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.users.CreateUser(ctx, user, hash); err != nil {
		mapped := mapRepoError(err)
		logger.ErrorContext(ctx, "failed to create user", "error", mapped, "error_kind", ErrorKind(mapped))
		if errors.Is(mapped, ErrAlreadyExists) {
			vErr := &ValidationError{}
			vErr.add("email", "email is already registered")
			return domain.User{}, vErr
		}
		return domain.User{}, mapped
	}

	logger.InfoContext(ctx, "user created", "user_id", user.ID)
	return user, nil
}

// UpdateUser validates input and updates an existing user for administrators.
// A non-empty password replaces the stored hash; an empty one leaves it alone.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (domain.User, error) {
	logger := s.loggerWith(ctx, "UpdateUser", "user_id", params.UserID)
	if !params.Principal.IsAdmin {
		return domain.User{}, ErrUnauthorized
	}

	existing, err := s.users.GetUser(ctx, params.UserID)
	if err != nil {
		return domain.User{}, mapRepoError(err)
	}

	normalized := normalizeUserInput(params.Input)
	vErr := validateUserInput(normalized, false)
	if vErr.HasErrors() {
		return domain.User{}, vErr
	}

	updated := existing
	updated.Email = normalized.Email
	updated.DisplayName = normalized.DisplayName
	updated.IsAdmin = normalized.IsAdmin
	updated.UpdatedAt = s.now()

	if err := s.users.UpdateUser(ctx, updated); err != nil {
		mapped := mapRepoError(err)
		logger.ErrorContext(ctx, "failed to update user", "error", mapped, "error_kind", ErrorKind(mapped))
		return domain.User{}, mapped
	}

	if normalized.Password != "" {
		hash, err := s.hashPassword(normalized.Password)
		if err != nil {
			return domain.User{}, fmt.Errorf("hash password: %w", err)
		}
		if err := s.users.UpdatePassword(ctx, updated.ID, hash); err != nil {
			return domain.User{}, mapRepoError(err)
		}
	}

	logger.InfoContext(ctx, "user updated")
	return updated, nil
}

// GetUser returns a single user. Admins can read anyone; others only
// themselves.
func (s *UserService) GetUser(ctx context.Context, principal Principal, userID string) (domain.User, error) {
	if !principal.IsAdmin && principal.UserID != userID {
		return domain.User{}, ErrUnauthorized
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return domain.User{}, mapRepoError(err)
	}
	return user, nil
}

// DeleteUser removes a user when requested by an administrator.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID string) error {
	logger := s.loggerWith(ctx, "DeleteUser", "user_id", userID)
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if principal.UserID == userID {
		vErr := &ValidationError{}
		vErr.add("user_id", "cannot delete your own account")
		return vErr
	}

	if err := s.users.DeleteUser(ctx, userID); err != nil {
		mapped := mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete user", "error", mapped, "error_kind", ErrorKind(mapped))
		return mapped
	}
	logger.InfoContext(ctx, "user deleted")
	return nil
}

// ListUsers returns all users sorted by email for administrators.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]domain.User, error) {
	if !principal.IsAdmin {
		return nil, ErrUnauthorized
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}

	out := make([]domain.User, len(users))
	copy(out, users)
	sort.Slice(out, func(i, j int) bool {
		if strings.EqualFold(out[i].Email, out[j].Email) {
			return out[i].ID < out[j].ID
		}
		return strings.ToLower(out[i].Email) < strings.ToLower(out[j].Email)
	})
	return out, nil
}

func normalizeUserInput(input UserInput) UserInput {
	return UserInput{
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		DisplayName: strings.TrimSpace(input.DisplayName),
		Password:    input.Password,
		IsAdmin:     input.IsAdmin,
	}
}

func validateUserInput(input UserInput, passwordRequired bool) *ValidationError {
	vErr := &ValidationError{}

	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.add("email", "email is invalid")
	}

	if input.DisplayName == "" {
		vErr.add("display_name", "display name is required")
	}

	if passwordRequired && input.Password == "" {
		vErr.add("password", "password is required")
	}
	if input.Password != "" && len(input.Password) < minPasswordLength {
		vErr.add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	return vErr
}
