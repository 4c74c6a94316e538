package token

import (
	"crypto/rand"
	"io"
	mrand "math/rand/v2"
)

// Alphabet is the character set of tokens produced by GenerateToken.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultLength is the length of session and CSRF tokens.
const DefaultLength = 32

// maxUnbiased is the largest multiple of len(Alphabet) that fits in a byte.
// Bytes at or above it are rejected so every character is equally likely.
const maxUnbiased = 256 - 256%len(Alphabet)

// source is the entropy reader; replaced in tests.
var source io.Reader = rand.Reader

// GenerateToken returns a random alphanumeric token of the given length.
//
// Characters are drawn from crypto/rand. If the system CSPRNG fails, the
// remaining characters come from math/rand/v2 (ChaCha8 seeded by the runtime).
// That fallback is weaker than the CSPRNG and exists only so the server
// keeps serving.
func GenerateToken(length int) string {
	tok, err := generate(length)
	if err == nil {
		return tok
	}
	return fallback(tok, length)
}

// generate fills a token from source. On error it returns the prefix built so
// far together with the error.
func generate(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}

	out := make([]byte, 0, length)
	buf := make([]byte, length+length/4+1)
	for len(out) < length {
		if _, err := io.ReadFull(source, buf); err != nil {
			return string(out), err
		}
		for _, b := range buf {
			if int(b) >= maxUnbiased {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}

func fallback(prefix string, length int) string {
	out := make([]byte, 0, length)
	out = append(out, prefix...)
	for len(out) < length {
		out = append(out, Alphabet[mrand.IntN(len(Alphabet))])
	}
	return string(out)
}

// GenerateBytes generates random bytes.
func GenerateBytes(length int) ([]byte, error) {
	bytes := make([]byte, length)
	if _, err := io.ReadFull(source, bytes); err != nil {
		return nil, err
	}
	return bytes, nil
}
