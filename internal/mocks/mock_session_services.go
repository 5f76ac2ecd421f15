package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/you/cookbookauth/domain"
)

// MockLockoutPolicy implements domain.LockoutPolicy for testing
type MockLockoutPolicy struct {
	CheckLockoutFunc  func(ctx context.Context, email string) error
	RecordFailureFunc func(ctx context.Context, email string) (int, error)
	ClearAttemptsFunc func(ctx context.Context, email string) error
}

// NewMockLockoutPolicy creates a new MockLockoutPolicy
func NewMockLockoutPolicy() *MockLockoutPolicy {
	return &MockLockoutPolicy{}
}

// CheckLockout passes by default
func (m *MockLockoutPolicy) CheckLockout(ctx context.Context, email string) error {
	if m.CheckLockoutFunc != nil {
		return m.CheckLockoutFunc(ctx, email)
	}
	return nil
}

// RecordFailure reports two attempts left by default
func (m *MockLockoutPolicy) RecordFailure(ctx context.Context, email string) (int, error) {
	if m.RecordFailureFunc != nil {
		return m.RecordFailureFunc(ctx, email)
	}
	return 2, nil
}

// ClearAttempts succeeds by default
func (m *MockLockoutPolicy) ClearAttempts(ctx context.Context, email string) error {
	if m.ClearAttemptsFunc != nil {
		return m.ClearAttemptsFunc(ctx, email)
	}
	return nil
}

// MockSessionManager implements domain.SessionManager for testing
type MockSessionManager struct {
	CreateTokenFunc          func(ctx context.Context, userID string, ttl time.Duration) (string, error)
	ResolveTokenFunc         func(ctx context.Context, token string) (*domain.User, error)
	RevokeTokenFunc          func(ctx context.Context, token string) error
	RevokeUserTokensFunc     func(ctx context.Context, userID string) error
	EstablishFunc            func(ctx context.Context, handle *domain.SessionHandle, user *domain.User, rememberMe bool) error
	ResolveServerSessionFunc func(ctx context.Context, handle *domain.SessionHandle) (*domain.User, error)
	DestroyFunc              func(ctx context.Context, handle *domain.SessionHandle) error
}

// NewMockSessionManager creates a new MockSessionManager
func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{}
}

// CreateToken returns a fixed bearer token by default
func (m *MockSessionManager) CreateToken(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	if m.CreateTokenFunc != nil {
		return m.CreateTokenFunc(ctx, userID, ttl)
	}
	return "bearer-token", nil
}

// ResolveToken rejects every token by default
func (m *MockSessionManager) ResolveToken(ctx context.Context, token string) (*domain.User, error) {
	if m.ResolveTokenFunc != nil {
		return m.ResolveTokenFunc(ctx, token)
	}
	return nil, domain.ErrUnauthenticated
}

// RevokeToken succeeds by default
func (m *MockSessionManager) RevokeToken(ctx context.Context, token string) error {
	if m.RevokeTokenFunc != nil {
		return m.RevokeTokenFunc(ctx, token)
	}
	return nil
}

// RevokeUserTokens succeeds by default
func (m *MockSessionManager) RevokeUserTokens(ctx context.Context, userID string) error {
	if m.RevokeUserTokensFunc != nil {
		return m.RevokeUserTokensFunc(ctx, userID)
	}
	return nil
}

// Establish binds a fixed session, and a fixed remember-me token when asked
func (m *MockSessionManager) Establish(ctx context.Context, handle *domain.SessionHandle, user *domain.User, rememberMe bool) error {
	if m.EstablishFunc != nil {
		return m.EstablishFunc(ctx, handle, user, rememberMe)
	}
	now := time.Now()
	handle.SetSession(&domain.ServerSession{
		ID:             "session-1",
		UserID:         user.ID,
		Email:          user.Email,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Authenticated:  true,
		CreatedAt:      now,
		LastActivityAt: now,
	})
	if rememberMe {
		handle.IssueRemember("remember-1", now.Add(30*24*time.Hour))
	}
	return nil
}

// ResolveServerSession returns the identity of a loaded session by default
func (m *MockSessionManager) ResolveServerSession(ctx context.Context, handle *domain.SessionHandle) (*domain.User, error) {
	if m.ResolveServerSessionFunc != nil {
		return m.ResolveServerSessionFunc(ctx, handle)
	}
	if handle.Session != nil && handle.Session.Authenticated {
		return handle.Session.User(), nil
	}
	return nil, domain.ErrUnauthenticated
}

// Destroy clears the handle by default
func (m *MockSessionManager) Destroy(ctx context.Context, handle *domain.SessionHandle) error {
	if m.DestroyFunc != nil {
		return m.DestroyFunc(ctx, handle)
	}
	handle.ClearRemember()
	handle.ClearSession()
	return nil
}

// MockCSRFIssuer implements domain.CSRFIssuer for testing
type MockCSRFIssuer struct {
	GetOrCreateFunc func(ctx context.Context, handle *domain.SessionHandle) (string, error)
	ValidateFunc    func(handle *domain.SessionHandle, token string) error
}

// NewMockCSRFIssuer creates a new MockCSRFIssuer
func NewMockCSRFIssuer() *MockCSRFIssuer {
	return &MockCSRFIssuer{}
}

// GetOrCreate caches "csrf-token" on the session by default
func (m *MockCSRFIssuer) GetOrCreate(ctx context.Context, handle *domain.SessionHandle) (string, error) {
	if m.GetOrCreateFunc != nil {
		return m.GetOrCreateFunc(ctx, handle)
	}
	if handle.Session == nil {
		return "", domain.ErrUnauthenticated
	}
	if handle.Session.CSRFToken == "" {
		handle.Session.CSRFToken = "csrf-token"
	}
	return handle.Session.CSRFToken, nil
}

// Validate compares against the session's token by default
func (m *MockCSRFIssuer) Validate(handle *domain.SessionHandle, token string) error {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(handle, token)
	}
	if handle.Session == nil || token == "" || handle.Session.CSRFToken != token {
		return domain.ErrCSRFMismatch
	}
	return nil
}

// RecordingAuditLogger implements domain.AuditLogger and keeps every event
type RecordingAuditLogger struct {
	mu     sync.Mutex
	Events []*domain.AuditEvent
}

// NewRecordingAuditLogger creates an empty recorder
func NewRecordingAuditLogger() *RecordingAuditLogger {
	return &RecordingAuditLogger{}
}

// LogEvent records the event
func (r *RecordingAuditLogger) LogEvent(ctx context.Context, event *domain.AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, event)
}

// Types lists the recorded event types in order
func (r *RecordingAuditLogger) Types() []domain.AuditEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]domain.AuditEventType, 0, len(r.Events))
	for _, e := range r.Events {
		types = append(types, e.EventType)
	}
	return types
}

// Compile-time interface compliance verification
var (
	_ domain.LockoutPolicy  = (*MockLockoutPolicy)(nil)
	_ domain.SessionManager = (*MockSessionManager)(nil)
	_ domain.CSRFIssuer     = (*MockCSRFIssuer)(nil)
	_ domain.AuditLogger    = (*RecordingAuditLogger)(nil)
)
