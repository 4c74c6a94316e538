// Package token provides token generation, hashing and constant-time
// comparison.
//
// Token format:
//
//   - Alphabet: a-z, A-Z, 0-9 (62 characters)
//   - Length: caller chosen, DefaultLength (32) for sessions and CSRF tokens
//   - Source: crypto/rand with rejection sampling, so no character is
//     favoured by modulo bias
//
// Security:
//
//   - SecureCompare never exits early; its running time depends only on
//     the input lengths
//   - Tables store Hash(token) as the key and keep the raw token only for
//     the final constant-time confirmation
package token
