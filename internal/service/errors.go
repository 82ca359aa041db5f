package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a referenced entity or membership row
	// does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a membership row or unique field
	// already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrSelfFollow is returned when a user tries to subscribe to themselves.
	ErrSelfFollow = errors.New("cannot subscribe to yourself")
	// ErrForbidden is returned when the actor lacks ownership or role for
	// the mutation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials is returned on failed login or password change.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError names the payload field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// isDuplicateKey reports whether err is a unique-constraint violation from
// either the postgres or the sqlite driver. A concurrent duplicate insert
// must surface as the same conflict as an application-level check.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
