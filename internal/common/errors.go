package common

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by expense operations. Callers classify failures with
// errors.Is; the HTTP layer maps each kind to a status code.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("resource not found")
	ErrForbidden       = errors.New("caller is not the record owner")
	ErrStorage         = errors.New("object storage error")
	ErrPersistence     = errors.New("record store error")
	ErrUnauthenticated = errors.New("no authenticated identity")
)

func ValidationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func StorageErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStorage, fmt.Sprintf(format, args...))
}

func PersistenceErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPersistence, fmt.Sprintf(format, args...))
}

func NotFoundErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
