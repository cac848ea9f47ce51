// Package service provides the bot's business logic over the user store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anisearchapp/anisearch-bot/internal/domain"
	"github.com/anisearchapp/anisearch-bot/internal/store"
)

// Registry keeps the persistent record of chat users.
type Registry struct {
	store  store.UserStore
	logger *slog.Logger
	now    func() time.Time
}

// NewRegistry creates a new user registry.
func NewRegistry(s store.UserStore, logger *slog.Logger) *Registry {
	return &Registry{store: s, logger: logger, now: time.Now}
}

// GetOrCreate returns the user with the given id, registering it first when
// unknown. Repeated or concurrent calls create at most one record.
func (r *Registry) GetOrCreate(ctx context.Context, id int64, username string) (*domain.User, error) {
	u, err := r.store.GetUser(ctx, id)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, store.ErrUserNotFound) {
		return nil, fmt.Errorf("get or create user %d: %w", id, err)
	}

	u = domain.NewUser(id, username, r.now())
	created, err := r.store.CreateUser(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("get or create user %d: %w", id, err)
	}
	if created {
		r.logger.Info("user registered", "user_id", id, "user", u.DisplayName())
		return u, nil
	}

	// Lost a race with a concurrent registration; read the winner's record.
	u, err = r.store.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get or create user %d: %w", id, err)
	}
	return u, nil
}

// TouchActivity records that the user was active at the given time. A
// missing user is logged and not returned as an error.
func (r *Registry) TouchActivity(ctx context.Context, id int64, at time.Time) error {
	err := r.store.TouchUser(ctx, id, at)
	if errors.Is(err, store.ErrUserNotFound) {
		r.logger.Warn("activity touch for unknown user", "user_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("touch user %d: %w", id, err)
	}
	return nil
}

// IsBlocked reports whether the user is blocked. Unknown users are not.
func (r *Registry) IsBlocked(ctx context.Context, id int64) (bool, error) {
	u, err := r.store.GetUser(ctx, id)
	if errors.Is(err, store.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check blocked %d: %w", id, err)
	}
	return u.Blocked, nil
}

// SetBlocked sets or clears the user's block flag.
func (r *Registry) SetBlocked(ctx context.Context, id int64, blocked bool) error {
	if err := r.store.SetUserBlocked(ctx, id, blocked); err != nil {
		return fmt.Errorf("set blocked %d: %w", id, err)
	}
	r.logger.Info("user block flag changed", "user_id", id, "blocked", blocked)
	return nil
}
