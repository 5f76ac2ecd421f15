package mocks

import (
	"context"
	"time"

	"github.com/you/cookbookauth/domain"
)

// MockLoginAttemptRepository implements domain.LoginAttemptRepository for testing
type MockLoginAttemptRepository struct {
	FindFunc      func(ctx context.Context, email string) (*domain.LoginAttempt, error)
	IncrementFunc func(ctx context.Context, email string, now time.Time, maxAttempts int, lockFor time.Duration) (*domain.LoginAttempt, error)
	DeleteFunc    func(ctx context.Context, email string) error
}

// NewMockLoginAttemptRepository creates a new MockLoginAttemptRepository
func NewMockLoginAttemptRepository() *MockLoginAttemptRepository {
	return &MockLoginAttemptRepository{}
}

// Find returns the attempt record for an email
func (m *MockLoginAttemptRepository) Find(ctx context.Context, email string) (*domain.LoginAttempt, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, email)
	}
	return nil, domain.ErrAttemptNotFound
}

// Increment records one failure
func (m *MockLoginAttemptRepository) Increment(ctx context.Context, email string, now time.Time, maxAttempts int, lockFor time.Duration) (*domain.LoginAttempt, error) {
	if m.IncrementFunc != nil {
		return m.IncrementFunc(ctx, email, now, maxAttempts, lockFor)
	}
	// Default behavior: first failure
	return &domain.LoginAttempt{Email: email, Attempts: 1, LastAttemptAt: now}, nil
}

// Delete removes the attempt record
func (m *MockLoginAttemptRepository) Delete(ctx context.Context, email string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, email)
	}
	return nil
}

// MockSessionTokenRepository implements domain.SessionTokenRepository for testing
type MockSessionTokenRepository struct {
	CreateFunc        func(ctx context.Context, tokenHash string, token *domain.SessionToken) error
	FindByHashFunc    func(ctx context.Context, tokenHash string) (*domain.SessionToken, error)
	DeleteFunc        func(ctx context.Context, tokenHash string) error
	DeleteByUserFunc  func(ctx context.Context, userID string) error
	DeleteExpiredFunc func(ctx context.Context, now time.Time) (int64, error)
}

// NewMockSessionTokenRepository creates a new MockSessionTokenRepository
func NewMockSessionTokenRepository() *MockSessionTokenRepository {
	return &MockSessionTokenRepository{}
}

// Create stores a token
func (m *MockSessionTokenRepository) Create(ctx context.Context, tokenHash string, token *domain.SessionToken) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tokenHash, token)
	}
	return nil
}

// FindByHash looks a token up by hash
func (m *MockSessionTokenRepository) FindByHash(ctx context.Context, tokenHash string) (*domain.SessionToken, error) {
	if m.FindByHashFunc != nil {
		return m.FindByHashFunc(ctx, tokenHash)
	}
	return nil, domain.ErrTokenNotFound
}

// Delete removes one token
func (m *MockSessionTokenRepository) Delete(ctx context.Context, tokenHash string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, tokenHash)
	}
	return nil
}

// DeleteByUser removes every token of a user
func (m *MockSessionTokenRepository) DeleteByUser(ctx context.Context, userID string) error {
	if m.DeleteByUserFunc != nil {
		return m.DeleteByUserFunc(ctx, userID)
	}
	return nil
}

// DeleteExpired purges expired tokens
func (m *MockSessionTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx, now)
	}
	return 0, nil
}

// MockServerSessionRepository implements domain.ServerSessionRepository for testing
type MockServerSessionRepository struct {
	SaveFunc     func(ctx context.Context, session *domain.ServerSession) error
	FindByIDFunc func(ctx context.Context, sessionID string) (*domain.ServerSession, error)
	DeleteFunc   func(ctx context.Context, sessionID string) error
}

// NewMockServerSessionRepository creates a new MockServerSessionRepository
func NewMockServerSessionRepository() *MockServerSessionRepository {
	return &MockServerSessionRepository{}
}

// Save stores a session
func (m *MockServerSessionRepository) Save(ctx context.Context, session *domain.ServerSession) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, session)
	}
	return nil
}

// FindByID loads a session
func (m *MockServerSessionRepository) FindByID(ctx context.Context, sessionID string) (*domain.ServerSession, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, sessionID)
	}
	return nil, domain.ErrSessionNotFound
}

// Delete removes a session
func (m *MockServerSessionRepository) Delete(ctx context.Context, sessionID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, sessionID)
	}
	return nil
}

// Compile-time interface compliance verification
var (
	_ domain.LoginAttemptRepository  = (*MockLoginAttemptRepository)(nil)
	_ domain.SessionTokenRepository  = (*MockSessionTokenRepository)(nil)
	_ domain.ServerSessionRepository = (*MockServerSessionRepository)(nil)
)
