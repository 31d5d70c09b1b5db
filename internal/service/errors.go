package service

import (
	"errors"
	"fmt"

	"estatehub/internal/repository"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionExpired     = errors.New("session expired")
	ErrSelfEdit           = errors.New("cannot change own role, permissions or account state")
	ErrUploadsDisabled    = errors.New("uploads are not configured")
)

func validationErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// mapNotFound turns a repository miss into ErrNotFound and leaves other
// errors wrapped with context.
func mapNotFound(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
