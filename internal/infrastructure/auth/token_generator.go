package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/you/cookbookauth/domain"
)

// RandomTokenGenerator implements domain.TokenGenerator with crypto/rand
type RandomTokenGenerator struct{}

// NewTokenGenerator creates a token generator
func NewTokenGenerator() domain.TokenGenerator {
	return RandomTokenGenerator{}
}

// Generate implements domain.TokenGenerator
func (RandomTokenGenerator) Generate(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Hash implements domain.TokenGenerator
func (RandomTokenGenerator) Hash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
