// Package credentials handles password hashing and verification code generation.
package credentials

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies passwords with bcrypt at a configurable cost.
type Hasher struct {
	cost int
}

// NewHasher creates a Hasher. Costs outside the bcrypt range fall back to the
// library default.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash derives a bcrypt hash from the plaintext password.
func (h *Hasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether the plaintext password matches the stored hash.
// Comparison happens inside bcrypt, which is constant-time safe.
func (h *Hasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateVerificationCode returns a cryptographically random alphanumeric
// string of the given length.
func GenerateVerificationCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("verification code length must be positive, got %d", length)
	}

	code := make([]byte, length)
	buf := make([]byte, length)
	filled := 0
	for filled < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			// Reject bytes outside the largest multiple of the alphabet
			// size so the distribution stays uniform.
			if b >= byte(256-256%len(codeAlphabet)) {
				continue
			}
			code[filled] = codeAlphabet[int(b)%len(codeAlphabet)]
			filled++
			if filled == length {
				break
			}
		}
	}
	return string(code), nil
}
