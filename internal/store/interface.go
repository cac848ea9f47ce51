// Package store defines the persistence interface for the bot's user registry.
package store

import (
	"context"
	"time"

	"github.com/anisearchapp/anisearch-bot/internal/domain"
)

// UserStore persists chat users. Implementations live in the sqlite and
// postgres subpackages.
type UserStore interface {
	// GetUser returns ErrUserNotFound when no record exists.
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	// CreateUser inserts u unless a record with the same id exists. It
	// reports whether this call created the record.
	CreateUser(ctx context.Context, u *domain.User) (bool, error)
	// TouchUser sets the last-active time. It returns ErrUserNotFound when
	// no record was updated.
	TouchUser(ctx context.Context, id int64, at time.Time) error
	SetUserBlocked(ctx context.Context, id int64, blocked bool) error

	Ping(ctx context.Context) error
	Close() error
}
