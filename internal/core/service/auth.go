package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/yndnr/tokgate/internal/core/domain"
)

// UserRepository defines the storage interface for accounts.
type UserRepository interface {
	// Create stores a new user. Returns domain.ErrUserExists if the
	// username is taken.
	Create(ctx context.Context, user *domain.User) error

	// Get retrieves a user by name. Returns domain.ErrUserNotFound if absent.
	Get(ctx context.Context, username string) (*domain.User, error)

	// Update replaces an existing user.
	Update(ctx context.Context, user *domain.User) error
}

// AuthService ties accounts to the session and CSRF tables.
type AuthService struct {
	users    UserRepository
	sessions *SessionManager
	csrf     *CSRFManager
	now      func() time.Time
	logger   *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserRepository, sessions *SessionManager, csrf *CSRFManager, opts ...Option) *AuthService {
	o := applyOptions(opts)
	return &AuthService{
		users:    users,
		sessions: sessions,
		csrf:     csrf,
		now:      o.now,
		logger:   o.logger,
	}
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Username  string
	Token     string
	CSRFToken string
}

// Register creates an account after checking the credential format.
func (s *AuthService) Register(ctx context.Context, username, password string) error {
	if err := domain.ValidateCredentials(username, password); err != nil {
		return err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return domain.ErrInternalServer.WithCause(err)
	}

	now := s.now()
	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return err
	}

	s.logger.Info("user registered", "username", username)
	return nil
}

// Login checks credentials and opens a session with a first CSRF token.
//
// Unknown users and wrong passwords both return
// domain.ErrInvalidCredentials after the same amount of hashing work.
// Hashes made with older parameters are upgraded on success.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if err := domain.ValidateCredentials(username, password); err != nil {
		return nil, err
	}

	user, err := s.users.Get(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			VerifyPassword(password, s.placeholderHash())
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	if NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, password)
	}

	tok, err := s.sessions.Create(user.Username)
	if err != nil {
		return nil, err
	}

	csrfTok, err := s.csrf.Generate(tok)
	if err != nil {
		s.sessions.Destroy(tok)
		return nil, err
	}

	return &LoginResult{Username: user.Username, Token: tok, CSRFToken: csrfTok}, nil
}

// Authenticate resolves a bearer token to its username.
func (s *AuthService) Authenticate(tok string) (string, error) {
	username, ok := s.sessions.Validate(tok)
	if !ok {
		return "", domain.ErrSessionInvalid
	}
	return username, nil
}

// Logout destroys the session and every CSRF token bound to it.
func (s *AuthService) Logout(tok string) {
	s.sessions.Destroy(tok)
	s.csrf.RevokeSession(tok)
}

// IssueCSRF returns a new CSRF token for the session.
func (s *AuthService) IssueCSRF(sessionToken string) (string, error) {
	return s.csrf.Generate(sessionToken)
}

// VerifyCSRF consumes a CSRF token presented with the session token.
func (s *AuthService) VerifyCSRF(csrfToken, sessionToken string) error {
	if !s.csrf.Validate(csrfToken, sessionToken) {
		return domain.ErrCSRFInvalid
	}
	return nil
}

// ChangePassword replaces the password of username after checking the
// current one.
func (s *AuthService) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	if err := domain.ValidatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.users.Get(ctx, username)
	if err != nil {
		return err
	}
	if !VerifyPassword(oldPassword, user.PasswordHash) {
		return domain.ErrInvalidCredentials
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return domain.ErrInternalServer.WithCause(err)
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	s.logger.Info("password changed", "username", username)
	return nil
}

// LookupUser returns the account named username.
func (s *AuthService) LookupUser(ctx context.Context, username string) (*domain.User, error) {
	if err := domain.ValidateUsername(username); err != nil {
		return nil, domain.ErrUserNotFound
	}
	return s.users.Get(ctx, username)
}

func (s *AuthService) rehash(ctx context.Context, user *domain.User, password string) {
	hash, err := HashPassword(password)
	if err != nil {
		s.logger.Warn("password rehash failed", "username", user.Username, "error", err)
		return
	}
	upgraded := *user
	upgraded.PasswordHash = hash
	upgraded.UpdatedAt = s.now()
	if err := s.users.Update(ctx, &upgraded); err != nil {
		s.logger.Warn("password rehash not stored", "username", user.Username, "error", err)
		return
	}
	s.logger.Debug("password hash upgraded", "username", user.Username)
}

func (s *AuthService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		h, err := HashPassword("placeholder-password")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
