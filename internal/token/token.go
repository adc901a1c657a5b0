// Package token produces cryptographically random opaque strings for
// magic links, sessions, and shareable event codes.
package token

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// Mixed-case alphanumerics, used for credentials.
	mixedAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// Lowercase alphanumerics, used for codes that end up in URLs people
	// read aloud or type.
	lowerAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

	magicTokenLength    = 32
	sessionTokenLength  = 48
	shareableCodeLength = 8
)

// Generate returns a string of exactly length characters, each drawn
// independently and uniformly from alphabet using crypto/rand.
func Generate(length int, alphabet string) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("token length must be positive, got %d", length)
	}
	if len(alphabet) == 0 {
		return "", fmt.Errorf("token alphabet must not be empty")
	}

	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate token: %w", err)
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}

// MagicToken returns a 32-character single-use login token.
func MagicToken() (string, error) {
	return Generate(magicTokenLength, mixedAlphabet)
}

// SessionToken returns a 48-character session token. The extra length
// compensates for the session's much longer validity window.
func SessionToken() (string, error) {
	return Generate(sessionTokenLength, mixedAlphabet)
}

// ShareableCode returns an 8-character lowercase code for public event
// links.
func ShareableCode() (string, error) {
	return Generate(shareableCodeLength, lowerAlphabet)
}
