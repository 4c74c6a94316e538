package service

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	h1, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	h2, _ := HashPassword("secret")

	if !strings.HasPrefix(h1, "$argon2id$v=19$m=16384,t=2,p=2$") {
		t.Errorf("HashPassword() = %q, unexpected format", h1)
	}
	if h1 == h2 {
		t.Error("HashPassword() produced identical hashes, salt not random")
	}
}

func TestVerifyPassword(t *testing.T) {
	argon, _ := HashPassword("secret")
	legacy, _ := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{"argon2id match", "secret", argon, true},
		{"argon2id mismatch", "Secret", argon, false},
		{"bcrypt match", "secret", string(legacy), true},
		{"bcrypt mismatch", "nope", string(legacy), false},
		{"plaintext hash", "secret", "secret", false},
		{"empty hash", "secret", "", false},
		{"truncated argon2id", "secret", "$argon2id$v=19$m=16384,t=2,p=2$abc", false},
		{"bad params", "secret", "$argon2id$v=19$m=0,t=0,p=0$c2FsdA$aGFzaA", false},
		{"wrong version", "secret", strings.Replace(argon, "v=19", "v=16", 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyPassword(tt.password, tt.hash); got != tt.want {
				t.Errorf("VerifyPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNeedsRehash(t *testing.T) {
	argon, _ := HashPassword("secret")
	legacy, _ := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)

	if NeedsRehash(argon) {
		t.Error("NeedsRehash(current argon2id) = true")
	}
	if !NeedsRehash(string(legacy)) {
		t.Error("NeedsRehash(bcrypt) = false")
	}
	if !NeedsRehash("$argon2id$v=19$m=4096,t=1,p=1$c2FsdA$aGFzaA") {
		t.Error("NeedsRehash(weaker argon2id) = false")
	}
}
