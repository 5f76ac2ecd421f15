package domain

import (
	"context"
	"time"
)

// UserRepository defines user data access operations
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// LoginAttemptRepository persists failed-login counters per email.
// Increment must be atomic against concurrent callers for the same email:
// an expired lock restarts the count at 1, and the call that brings
// Attempts to maxAttempts sets LockedUntil to now+lockFor.
type LoginAttemptRepository interface {
	Find(ctx context.Context, email string) (*LoginAttempt, error)
	Increment(ctx context.Context, email string, now time.Time, maxAttempts int, lockFor time.Duration) (*LoginAttempt, error)
	Delete(ctx context.Context, email string) error
}

// SessionTokenRepository persists bearer and remember-me tokens by hash
type SessionTokenRepository interface {
	Create(ctx context.Context, tokenHash string, token *SessionToken) error
	FindByHash(ctx context.Context, tokenHash string) (*SessionToken, error)
	Delete(ctx context.Context, tokenHash string) error
	DeleteByUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ServerSessionRepository stores browser sessions
type ServerSessionRepository interface {
	Save(ctx context.Context, session *ServerSession) error
	FindByID(ctx context.Context, sessionID string) (*ServerSession, error)
	Delete(ctx context.Context, sessionID string) error
}

// PasswordService defines password operations
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

// TokenGenerator mints high-entropy opaque values
type TokenGenerator interface {
	// Generate returns n random bytes, hex encoded
	Generate(n int) (string, error)
	// Hash returns the storage key for a raw token
	Hash(token string) string
}

// LockoutPolicy decides whether an email may attempt a login
type LockoutPolicy interface {
	CheckLockout(ctx context.Context, email string) error
	RecordFailure(ctx context.Context, email string) (int, error)
	ClearAttempts(ctx context.Context, email string) error
}

// SessionManager issues and resolves both authentication channels
type SessionManager interface {
	CreateToken(ctx context.Context, userID string, ttl time.Duration) (string, error)
	ResolveToken(ctx context.Context, token string) (*User, error)
	RevokeToken(ctx context.Context, token string) error
	RevokeUserTokens(ctx context.Context, userID string) error
	Establish(ctx context.Context, handle *SessionHandle, user *User, rememberMe bool) error
	ResolveServerSession(ctx context.Context, handle *SessionHandle) (*User, error)
	Destroy(ctx context.Context, handle *SessionHandle) error
}

// CSRFIssuer hands out the anti-forgery token bound to a server session
type CSRFIssuer interface {
	GetOrCreate(ctx context.Context, handle *SessionHandle) (string, error)
	// Validate compares a presented token with the session's token
	Validate(handle *SessionHandle, token string) error
}

// AuthService defines authentication business logic
type AuthService interface {
	Login(ctx context.Context, handle *SessionHandle, email, password string, rememberMe bool) (*AuthResult, error)
	Register(ctx context.Context, handle *SessionHandle, input RegisterInput) (*AuthResult, error)
	Logout(ctx context.Context, handle *SessionHandle) error
	RequireAuth(ctx context.Context, handle *SessionHandle) (*User, error)
	GetAuthenticatedUser(ctx context.Context, handle *SessionHandle) (*AuthResult, error)
	ChangePassword(ctx context.Context, handle *SessionHandle, currentPassword, newPassword string) (*AuthResult, error)
}
