package mocks

import (
	"context"

	"github.com/you/cookbookauth/domain"
)

// MockAuthService implements domain.AuthService interface for testing
type MockAuthService struct {
	LoginFunc                func(ctx context.Context, handle *domain.SessionHandle, email, password string, rememberMe bool) (*domain.AuthResult, error)
	RegisterFunc             func(ctx context.Context, handle *domain.SessionHandle, input domain.RegisterInput) (*domain.AuthResult, error)
	LogoutFunc               func(ctx context.Context, handle *domain.SessionHandle) error
	RequireAuthFunc          func(ctx context.Context, handle *domain.SessionHandle) (*domain.User, error)
	GetAuthenticatedUserFunc func(ctx context.Context, handle *domain.SessionHandle) (*domain.AuthResult, error)
	ChangePasswordFunc       func(ctx context.Context, handle *domain.SessionHandle, currentPassword, newPassword string) (*domain.AuthResult, error)
}

// NewMockAuthService creates a new MockAuthService with default behaviors
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

// Login authenticates a user
func (m *MockAuthService) Login(ctx context.Context, handle *domain.SessionHandle, email, password string, rememberMe bool) (*domain.AuthResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, handle, email, password, rememberMe)
	}
	// Default behavior: invalid credentials
	return nil, &domain.CredentialsError{Remaining: 2}
}

// Register creates a user
func (m *MockAuthService) Register(ctx context.Context, handle *domain.SessionHandle, input domain.RegisterInput) (*domain.AuthResult, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, handle, input)
	}
	// Default behavior: a new user with a fixed id
	return &domain.AuthResult{
		User: &domain.User{
			ID:        "user-1",
			Email:     input.Email,
			FirstName: input.FirstName,
			LastName:  input.LastName,
		},
		CSRFToken: "csrf-token",
	}, nil
}

// Logout ends the session
func (m *MockAuthService) Logout(ctx context.Context, handle *domain.SessionHandle) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, handle)
	}
	return nil
}

// RequireAuth resolves the caller
func (m *MockAuthService) RequireAuth(ctx context.Context, handle *domain.SessionHandle) (*domain.User, error) {
	if m.RequireAuthFunc != nil {
		return m.RequireAuthFunc(ctx, handle)
	}
	return nil, domain.ErrUnauthenticated
}

// GetAuthenticatedUser resolves the caller with its CSRF token
func (m *MockAuthService) GetAuthenticatedUser(ctx context.Context, handle *domain.SessionHandle) (*domain.AuthResult, error) {
	if m.GetAuthenticatedUserFunc != nil {
		return m.GetAuthenticatedUserFunc(ctx, handle)
	}
	return nil, domain.ErrUnauthenticated
}

// ChangePassword replaces the caller's password
func (m *MockAuthService) ChangePassword(ctx context.Context, handle *domain.SessionHandle, currentPassword, newPassword string) (*domain.AuthResult, error) {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, handle, currentPassword, newPassword)
	}
	return nil, domain.ErrUnauthenticated
}

// Compile-time interface compliance verification
var _ domain.AuthService = (*MockAuthService)(nil)
