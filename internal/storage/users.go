package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/yndnr/tokgate/internal/core/domain"
)

const userKeyPrefix = "user/"

// UserStore stores accounts as JSON documents under "user/<username>".
type UserStore struct {
	kv KV
}

// NewUserStore creates a UserStore backed by kv.
func NewUserStore(kv KV) *UserStore {
	return &UserStore{kv: kv}
}

func userKey(username string) []byte {
	return []byte(userKeyPrefix + username)
}

// Create stores a new user.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return domain.ErrStorageError.WithCause(err)
	}

	err = s.kv.SetIfAbsent(ctx, userKey(user.Username), data)
	switch {
	case errors.Is(err, ErrKeyExists):
		return domain.ErrUserExists.WithDetails(user.Username)
	case err != nil:
		return domain.ErrStorageError.WithCause(err)
	}
	return nil
}

// Get retrieves a user by name.
func (s *UserStore) Get(ctx context.Context, username string) (*domain.User, error) {
	data, err := s.kv.Get(ctx, userKey(username))
	switch {
	case errors.Is(err, ErrKeyNotFound):
		return nil, domain.ErrUserNotFound
	case err != nil:
		return nil, domain.ErrStorageError.WithCause(err)
	}
	return decodeUser(data)
}

// Update replaces an existing user.
func (s *UserStore) Update(ctx context.Context, user *domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return domain.ErrStorageError.WithCause(err)
	}

	err = s.kv.Replace(ctx, userKey(user.Username), data)
	switch {
	case errors.Is(err, ErrKeyNotFound):
		return domain.ErrUserNotFound
	case err != nil:
		return domain.ErrStorageError.WithCause(err)
	}
	return nil
}

// Delete removes a user. Missing users are reported as ErrUserNotFound.
func (s *UserStore) Delete(ctx context.Context, username string) error {
	if _, err := s.Get(ctx, username); err != nil {
		return err
	}
	if err := s.kv.Delete(ctx, userKey(username)); err != nil {
		return domain.ErrStorageError.WithCause(err)
	}
	return nil
}

// List returns every user ordered by username.
func (s *UserStore) List(ctx context.Context) ([]*domain.User, error) {
	var (
		users   []*domain.User
		scanErr error
	)
	err := s.kv.Scan(ctx, []byte(userKeyPrefix), func(key, value []byte) bool {
		u, err := decodeUser(value)
		if err != nil {
			scanErr = err
			return false
		}
		users = append(users, u)
		return true
	})
	if err == nil {
		err = scanErr
	}
	if err != nil {
		return nil, domain.ErrStorageError.WithCause(err)
	}
	return users, nil
}

// Ping reports whether the underlying KV store still serves reads.
func (s *UserStore) Ping(ctx context.Context) error {
	_, err := s.kv.Get(ctx, []byte(userKeyPrefix))
	if err == nil || errors.Is(err, ErrKeyNotFound) {
		return nil
	}
	return err
}

func decodeUser(data []byte) (*domain.User, error) {
	var u domain.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, domain.ErrStorageError.WithDetails("corrupt user record").WithCause(err)
	}
	if strings.TrimSpace(u.Username) == "" {
		return nil, domain.ErrStorageError.WithDetails("user record without name")
	}
	return &u, nil
}
