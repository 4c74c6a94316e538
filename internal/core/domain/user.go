package domain

import "time"

// Credential format limits.
const (
	MaxUsernameLength = 64
	MaxPasswordLength = 128
)

// User is a registered account.
type User struct {
	Username string `json:"username"`

	// PasswordHash is an encoded argon2id (or legacy bcrypt) hash.
	PasswordHash string `json:"password_hash"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidateUsername checks that username is 1 to MaxUsernameLength
// characters of letters, digits and underscore.
func ValidateUsername(username string) error {
	if username == "" || len(username) > MaxUsernameLength {
		return ErrInvalidUsername
	}
	for i := 0; i < len(username); i++ {
		c := username[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		default:
			return ErrInvalidUsername.WithDetails("only letters, digits and underscore are allowed")
		}
	}
	return nil
}

// ValidatePassword checks that password is 1 to MaxPasswordLength bytes.
func ValidatePassword(password string) error {
	if password == "" || len(password) > MaxPasswordLength {
		return ErrInvalidPassword
	}
	return nil
}

// ValidateCredentials applies both format checks.
func ValidateCredentials(username, password string) error {
	if err := ValidateUsername(username); err != nil {
		return err
	}
	return ValidatePassword(password)
}

// TruncateUsername cuts username to MaxUsernameLength bytes.
func TruncateUsername(username string) string {
	if len(username) > MaxUsernameLength {
		return username[:MaxUsernameLength]
	}
	return username
}
