package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/anisearchapp/anisearch-bot/internal/domain"
	"github.com/anisearchapp/anisearch-bot/internal/store"
)

// userColumns must match the scan order in scanUser.
const userColumns = `id, username, registered_at, last_active_at, blocked`

// scanUser scans a sql.Row (or sql.Rows via its Scan method) into a domain.User.
func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		u            domain.User
		username     sql.NullString
		registeredAt string
		lastActiveAt string
		blocked      int
	)

	if err := scanner.Scan(&u.ID, &username, &registeredAt, &lastActiveAt, &blocked); err != nil {
		return nil, err
	}

	var err error
	if u.RegisteredAt, err = parseTime(registeredAt); err != nil {
		return nil, fmt.Errorf("parse registered_at: %w", err)
	}
	if u.LastActiveAt, err = parseTime(lastActiveAt); err != nil {
		return nil, fmt.Errorf("parse last_active_at: %w", err)
	}
	u.Username = username.String
	u.Blocked = blocked != 0

	return &u, nil
}

// GetUser retrieves a user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, store.Wrap(err, "get user")
	}
	return u, nil
}

// CreateUser inserts a user, leaving an existing record with the same id
// untouched.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		u.ID,
		nullString(u.Username),
		formatTime(u.RegisteredAt),
		formatTime(u.LastActiveAt),
		boolToInt(u.Blocked),
	)
	if err != nil {
		return false, store.Wrap(err, "create user")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, store.Wrap(err, "create user")
	}
	return n == 1, nil
}

// TouchUser updates the user's last-active time.
func (s *Store) TouchUser(ctx context.Context, id int64, at time.Time) error {
	return s.updateOne(ctx, "touch user",
		`UPDATE users SET last_active_at = ? WHERE id = ?`, formatTime(at), id)
}

// SetUserBlocked sets or clears the user's block flag.
func (s *Store) SetUserBlocked(ctx context.Context, id int64, blocked bool) error {
	return s.updateOne(ctx, "set user blocked",
		`UPDATE users SET blocked = ? WHERE id = ?`, boolToInt(blocked), id)
}

func (s *Store) updateOne(ctx context.Context, op, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return store.Wrap(err, op)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return store.Wrap(err, op)
	}
	if n == 0 {
		return store.ErrUserNotFound
	}
	return nil
}
