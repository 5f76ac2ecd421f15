package mocks

import (
	"fmt"
	"sync"

	"github.com/you/cookbookauth/domain"
)

// MockTokenGenerator implements domain.TokenGenerator with predictable values
type MockTokenGenerator struct {
	GenerateFunc func(n int) (string, error)
	HashFunc     func(token string) string

	mu    sync.Mutex
	count int
}

// NewMockTokenGenerator creates a new MockTokenGenerator
func NewMockTokenGenerator() *MockTokenGenerator {
	return &MockTokenGenerator{}
}

// Generate returns token-1, token-2, ... unless overridden
func (m *MockTokenGenerator) Generate(n int) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(n)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count++
	return fmt.Sprintf("token-%d", m.count), nil
}

// Hash returns "hash:" + token unless overridden
func (m *MockTokenGenerator) Hash(token string) string {
	if m.HashFunc != nil {
		return m.HashFunc(token)
	}
	return "hash:" + token
}

// Compile-time interface compliance verification
var _ domain.TokenGenerator = (*MockTokenGenerator)(nil)
