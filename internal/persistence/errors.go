package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when an insert would violate a uniqueness constraint.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConstraintViolation is returned when a record violates a storage constraint.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrForeignKeyViolation is returned when a record references a row that does not exist
	// or is still referenced by other rows.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
)
