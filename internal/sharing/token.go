package sharing

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
)

// tokenBytes yields 64 lowercase hex characters per token.
const tokenBytes = 32

var tokenShape = regexp.MustCompile(`^[0-9a-f]{64}$`)

// NewToken returns a 256-bit cryptographically random share token rendered
// as lowercase hex. Uniqueness is backed by the database constraint at
// insert time; the collision probability is negligible.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate share token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ValidToken reports whether the input has the shape of an issued token.
// It filters junk before any database lookup; it is not a security check.
func ValidToken(token string) bool {
	return tokenShape.MatchString(token)
}
