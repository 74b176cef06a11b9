package game

import (
	"crypto/rand"
	"fmt"
)

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
const tokenLength = 32

// newPlayerToken mints an opaque 32-char lowercase alphanumeric token.
// Tokens are credentials, not gameplay state, so process entropy is fine here.
func newPlayerToken() (string, error) {
	buf := make([]byte, tokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token entropy: %w", err)
	}
	for i := range buf {
		buf[i] = tokenAlphabet[int(buf[i])%len(tokenAlphabet)]
	}
	return string(buf), nil
}
