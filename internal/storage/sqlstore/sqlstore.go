// Package sqlstore keeps user accounts in PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/yndnr/tokgate/internal/core/domain"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS tokgate_users (
    username      varchar(64) PRIMARY KEY,
    password_hash text        NOT NULL,
    created_at    timestamptz NOT NULL DEFAULT NOW(),
    updated_at    timestamptz NOT NULL DEFAULT NOW()
);
`

// Store implements the account repository on database/sql.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects with the postgres driver, pings, and applies the schema.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	s := New(db, logger)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: ping: %w", err)
	}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("database ready", "driver", "postgres")
	return s, nil
}

// New wraps an existing handle.
func New(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// Migrate creates the users table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return nil
}

// Create stores a new user.
func (s *Store) Create(ctx context.Context, user *domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tokgate_users (username, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`, user.Username, user.PasswordHash, user.CreatedAt, user.UpdatedAt)

	var pqErr *pq.Error
	switch {
	case errors.As(err, &pqErr) && pqErr.Code == uniqueViolation:
		return domain.ErrUserExists.WithDetails(user.Username)
	case err != nil:
		return domain.ErrStorageError.WithCause(err)
	}
	return nil
}

// Get retrieves a user by name.
func (s *Store) Get(ctx context.Context, username string) (*domain.User, error) {
	u := domain.User{Username: username}
	err := s.db.QueryRowContext(ctx, `
		SELECT password_hash, created_at, updated_at
		FROM tokgate_users
		WHERE username = $1
	`, username).Scan(&u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, domain.ErrUserNotFound
	case err != nil:
		return nil, domain.ErrStorageError.WithCause(err)
	}
	return &u, nil
}

// Update replaces the hash and timestamp of an existing user.
func (s *Store) Update(ctx context.Context, user *domain.User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tokgate_users
		SET password_hash = $2, updated_at = $3
		WHERE username = $1
	`, user.Username, user.PasswordHash, user.UpdatedAt)
	if err != nil {
		return domain.ErrStorageError.WithCause(err)
	}
	return expectOneRow(res)
}

// Delete removes a user.
func (s *Store) Delete(ctx context.Context, username string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tokgate_users WHERE username = $1`, username)
	if err != nil {
		return domain.ErrStorageError.WithCause(err)
	}
	return expectOneRow(res)
}

// List returns every user ordered by username.
func (s *Store) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password_hash, created_at, updated_at
		FROM tokgate_users
		ORDER BY username
	`)
	if err != nil {
		return nil, domain.ErrStorageError.WithCause(err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, domain.ErrStorageError.WithCause(err)
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrStorageError.WithCause(err)
	}
	return users, nil
}

// Ping checks connectivity for the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return domain.ErrStorageError.WithCause(err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
