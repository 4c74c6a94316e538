package token

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash computes the hex encoded SHA-256 hash of a token.
//
// Session and CSRF tables are keyed by this hash, so a map lookup never
// branches on the raw token bytes.
func Hash(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
