package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"valid", "alice_01", "s3cret", nil},
		{"empty username", "", "pw", ErrInvalidUsername},
		{"username too long", strings.Repeat("a", MaxUsernameLength+1), "pw", ErrInvalidUsername},
		{"username at limit", strings.Repeat("a", MaxUsernameLength), "pw", nil},
		{"username with dash", "alice-b", "pw", ErrInvalidUsername},
		{"username with space", "alice b", "pw", ErrInvalidUsername},
		{"empty password", "alice", "", ErrInvalidPassword},
		{"password too long", "alice", strings.Repeat("p", MaxPasswordLength+1), ErrInvalidPassword},
		{"password at limit", "alice", strings.Repeat("p", MaxPasswordLength), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCredentials(tt.username, tt.password)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateCredentials() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateCredentials() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
