package store

import (
	domainerrors "github.com/anisearchapp/anisearch-bot/internal/errors"
)

// ErrUserNotFound is returned when no user has the requested id. It matches
// errors.ErrNotFound.
var ErrUserNotFound = &domainerrors.Error{Code: domainerrors.CodeNotFound, Message: "user not found"}

// Wrap marks a driver error as a storage failure for op.
func Wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	return domainerrors.Wrap(err, domainerrors.CodeStorage, op)
}
