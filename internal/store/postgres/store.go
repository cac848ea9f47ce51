// Package postgres implements store.UserStore on PostgreSQL through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/anisearchapp/anisearch-bot/internal/domain"
	"github.com/anisearchapp/anisearch-bot/internal/store"
)

// DBTX is the subset of *sql.DB the store needs.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PingContext(ctx context.Context) error
}

// Store provides PostgreSQL-backed persistence for chat users.
type Store struct {
	db     DBTX
	closer func() error
	logger *slog.Logger
}

var _ store.UserStore = (*Store)(nil)

// Open connects to dsn, verifies the connection and applies migrations.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	logger.Info("postgres store opened")

	s := New(db, logger)
	s.closer = db.Close
	return s, nil
}

// New wraps an existing connection. Close is a no-op for stores built this way.
func New(db DBTX, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger, closer: func() error { return nil }}
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return store.Wrap(s.db.PingContext(ctx), "ping postgres")
}

// Close closes the connection pool opened by Open.
func (s *Store) Close() error {
	return s.closer()
}

// GetUser retrieves a user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	query :=
		`SELECT id, username, registered_at, last_active_at, blocked FROM users
		 WHERE id = $1
		 `

	var (
		u        domain.User
		username sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&u.ID, &username, &u.RegisteredAt, &u.LastActiveAt, &u.Blocked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, store.Wrap(err, "get user")
	}
	u.Username = username.String

	return &u, nil
}

// CreateUser inserts a user, leaving an existing record with the same id
// untouched.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) (bool, error) {
	query :=
		`INSERT INTO users (id, username, registered_at, last_active_at, blocked)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO NOTHING
		 `

	var username sql.NullString
	if u.Username != "" {
		username = sql.NullString{String: u.Username, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, query,
		u.ID, username, u.RegisteredAt.UTC(), u.LastActiveAt.UTC(), u.Blocked)
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
	query :=
		`UPDATE users SET last_active_at = $1
		 WHERE id = $2
		 `
	return s.updateOne(ctx, "touch user", query, at.UTC(), id)
}

// SetUserBlocked sets or clears the user's block flag.
func (s *Store) SetUserBlocked(ctx context.Context, id int64, blocked bool) error {
	query :=
		`UPDATE users SET blocked = $1
		 WHERE id = $2
		 `
	return s.updateOne(ctx, "set user blocked", query, blocked, id)
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
