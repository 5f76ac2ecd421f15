package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/you/cookbookauth/domain"
)

// tokenBytes is the entropy of session ids, bearer and remember-me tokens
const tokenBytes = 32

// SessionConfig holds session manager settings
type SessionConfig struct {
	RememberTTL time.Duration
	// Now overrides the clock in tests
	Now func() time.Time
}

// SessionManagerImpl implements domain.SessionManager
type SessionManagerImpl struct {
	userRepo    domain.UserRepository
	tokenRepo   domain.SessionTokenRepository
	sessionRepo domain.ServerSessionRepository
	tokens      domain.TokenGenerator
	config      SessionConfig
}

// NewSessionManager creates a new session manager
func NewSessionManager(
	userRepo domain.UserRepository,
	tokenRepo domain.SessionTokenRepository,
	sessionRepo domain.ServerSessionRepository,
	tokens domain.TokenGenerator,
	config SessionConfig,
) domain.SessionManager {
	if config.Now == nil {
		config.Now = time.Now
	}
	return &SessionManagerImpl{
		userRepo:    userRepo,
		tokenRepo:   tokenRepo,
		sessionRepo: sessionRepo,
		tokens:      tokens,
		config:      config,
	}
}

// CreateToken implements domain.SessionManager. A non-positive ttl never expires.
func (m *SessionManagerImpl) CreateToken(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	raw, err := m.tokens.Generate(tokenBytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	now := m.config.Now()
	record := &domain.SessionToken{
		UserID:    userID,
		CreatedAt: now,
	}
	if ttl > 0 {
		expiresAt := now.Add(ttl)
		record.ExpiresAt = &expiresAt
	}

	if err := m.tokenRepo.Create(ctx, m.tokens.Hash(raw), record); err != nil {
		return "", err
	}
	return raw, nil
}

// ResolveToken implements domain.SessionManager
func (m *SessionManagerImpl) ResolveToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}

	record, err := m.tokenRepo.FindByHash(ctx, m.tokens.Hash(token))
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	if record.Expired(m.config.Now()) {
		return nil, domain.ErrUnauthenticated
	}

	user, err := m.userRepo.FindByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}

// RevokeToken implements domain.SessionManager
func (m *SessionManagerImpl) RevokeToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.tokenRepo.Delete(ctx, m.tokens.Hash(token))
}

// RevokeUserTokens implements domain.SessionManager
func (m *SessionManagerImpl) RevokeUserTokens(ctx context.Context, userID string) error {
	return m.tokenRepo.DeleteByUser(ctx, userID)
}

// Establish implements domain.SessionManager. The prior session id is
// always discarded. A remember-me token already on the handle is revoked
// and, when rememberMe is set, replaced by a fresh one.
func (m *SessionManagerImpl) Establish(ctx context.Context, handle *domain.SessionHandle, user *domain.User, rememberMe bool) error {
	if handle.SessionID != "" {
		if err := m.sessionRepo.Delete(ctx, handle.SessionID); err != nil {
			return err
		}
	}

	if handle.RememberToken != "" {
		if err := m.RevokeToken(ctx, handle.RememberToken); err != nil {
			return err
		}
		handle.ClearRemember()
	}

	id, err := m.tokens.Generate(tokenBytes)
	if err != nil {
		return fmt.Errorf("failed to generate session id: %w", err)
	}

	now := m.config.Now()
	session := &domain.ServerSession{
		ID:             id,
		UserID:         user.ID,
		Email:          user.Email,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Authenticated:  true,
		CreatedAt:      now,
		LastActivityAt: now,
	}
	if err := m.sessionRepo.Save(ctx, session); err != nil {
		return err
	}
	handle.SetSession(session)

	if rememberMe {
		token, err := m.CreateToken(ctx, user.ID, m.config.RememberTTL)
		if err != nil {
			return err
		}
		handle.IssueRemember(token, now.Add(m.config.RememberTTL))
	}
	return nil
}

// ResolveServerSession implements domain.SessionManager
func (m *SessionManagerImpl) ResolveServerSession(ctx context.Context, handle *domain.SessionHandle) (*domain.User, error) {
	session := handle.Session
	if session == nil && handle.SessionID != "" {
		found, err := m.sessionRepo.FindByID(ctx, handle.SessionID)
		if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
		session = found
	}

	if session != nil && session.Authenticated {
		session.LastActivityAt = m.config.Now()
		if err := m.sessionRepo.Save(ctx, session); err != nil {
			return nil, err
		}
		handle.Session = session
		return session.User(), nil
	}

	// stale session cookie
	if handle.SessionID != "" {
		handle.ClearSession()
	}

	if handle.RememberToken == "" {
		return nil, domain.ErrUnauthenticated
	}

	user, err := m.ResolveToken(ctx, handle.RememberToken)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			handle.ClearRemember()
		}
		return nil, err
	}

	// sliding login: fresh session, rotated remember-me token
	if err := m.Establish(ctx, handle, user, true); err != nil {
		return nil, err
	}
	return user, nil
}

// Destroy implements domain.SessionManager. Cookie clears are always
// requested, even when a store call fails.
func (m *SessionManagerImpl) Destroy(ctx context.Context, handle *domain.SessionHandle) error {
	var errs []error
	if handle.RememberToken != "" {
		if err := m.RevokeToken(ctx, handle.RememberToken); err != nil {
			errs = append(errs, err)
		}
	}
	handle.ClearRemember()

	if handle.SessionID != "" {
		if err := m.sessionRepo.Delete(ctx, handle.SessionID); err != nil {
			errs = append(errs, err)
		}
	}
	handle.ClearSession()

	return errors.Join(errs...)
}
