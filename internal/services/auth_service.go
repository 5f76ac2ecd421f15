package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/you/cookbookauth/domain"
)

// AuthConfig holds auth service settings
type AuthConfig struct {
	// BearerTTL is the lifetime of the token returned by Login
	BearerTTL time.Duration
}

// AuthServiceImpl implements domain.AuthService
type AuthServiceImpl struct {
	userRepo    domain.UserRepository
	passwordSvc domain.PasswordService
	lockout     domain.LockoutPolicy
	sessions    domain.SessionManager
	csrf        domain.CSRFIssuer
	audit       domain.AuditLogger
	log         *zap.Logger
	config      AuthConfig
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo domain.UserRepository,
	passwordSvc domain.PasswordService,
	lockout domain.LockoutPolicy,
	sessions domain.SessionManager,
	csrf domain.CSRFIssuer,
	audit domain.AuditLogger,
	log *zap.Logger,
	config AuthConfig,
) domain.AuthService {
	if audit == nil {
		audit = domain.NopAuditLogger{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthServiceImpl{
		userRepo:    userRepo,
		passwordSvc: passwordSvc,
		lockout:     lockout,
		sessions:    sessions,
		csrf:        csrf,
		audit:       audit,
		log:         log.Named("auth"),
		config:      config,
	}
}

// Login implements domain.AuthService
func (s *AuthServiceImpl) Login(ctx context.Context, handle *domain.SessionHandle, email, password string, rememberMe bool) (*domain.AuthResult, error) {
	// A locked email is refused before any credential check
	if err := s.lockout.CheckLockout(ctx, email); err != nil {
		if errors.Is(err, domain.ErrAccountLocked) {
			s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.UserLockedOutEvent, "").
				WithEmail(email).
				WithError(err))
		}
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}
	if user == nil || !s.passwordSvc.Verify(user.PasswordHash, password) {
		return nil, s.loginFailed(ctx, email)
	}

	if err := s.lockout.ClearAttempts(ctx, email); err != nil {
		return nil, err
	}

	result, err := s.startSession(ctx, handle, user, rememberMe)
	if err != nil {
		return nil, err
	}

	token, err := s.sessions.CreateToken(ctx, user.ID, s.config.BearerTTL)
	if err != nil {
		return nil, err
	}
	result.Token = token

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.UserLoginEvent, user.ID).
		WithEmail(user.Email).
		WithMetadata("remember_me", rememberMe))
	return result, nil
}

// loginFailed counts a failed attempt. Unknown emails and wrong passwords
// produce the same error.
func (s *AuthServiceImpl) loginFailed(ctx context.Context, email string) error {
	remaining, err := s.lockout.RecordFailure(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountLocked) {
			s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.UserLockedOutEvent, "").
				WithEmail(email).
				WithError(err))
		}
		return err
	}

	credErr := &domain.CredentialsError{Remaining: remaining}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.UserLoginFailureEvent, "").
		WithEmail(email).
		WithMetadata("attempts_remaining", remaining).
		WithError(credErr))
	return credErr
}

// Register implements domain.AuthService
func (s *AuthServiceImpl) Register(ctx context.Context, handle *domain.SessionHandle, input domain.RegisterInput) (*domain.AuthResult, error) {
	if violations := domain.ValidatePassword(input.Password); len(violations) > 0 {
		return nil, &domain.ValidationError{Violations: violations}
	}

	existing, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err == nil && existing != nil {
		return nil, domain.ErrUserAlreadyExists
	}
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hashedPassword, err := s.passwordSvc.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		Email:        input.Email,
		PasswordHash: hashedPassword,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// Registration logs the new member in with remember-me
	result, err := s.startSession(ctx, handle, user, true)
	if err != nil {
		return nil, err
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.UserRegistrationEvent, user.ID).WithEmail(user.Email))
	return result, nil
}

// Logout implements domain.AuthService. It never fails; store errors are logged.
func (s *AuthServiceImpl) Logout(ctx context.Context, handle *domain.SessionHandle) error {
	event := domain.NewAuditEvent(domain.UserLogoutEvent, "")
	if handle.Session != nil {
		event.UserID = handle.Session.UserID
		event.Email = handle.Session.Email
	}

	if handle.BearerToken != "" {
		if err := s.sessions.RevokeToken(ctx, handle.BearerToken); err != nil {
			s.revocationFailed(ctx, "bearer", err)
		}
	}
	if err := s.sessions.Destroy(ctx, handle); err != nil {
		s.revocationFailed(ctx, "session", err)
	}

	s.audit.LogEvent(ctx, event)
	return nil
}

func (s *AuthServiceImpl) revocationFailed(ctx context.Context, channel string, err error) {
	s.log.Warn("logout revocation failed", zap.String("channel", channel), zap.Error(err))
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.TokenRevocationFailure, "").
		WithMetadata("channel", channel).
		WithError(err))
}

// RequireAuth implements domain.AuthService. A presented bearer token is
// authoritative; an invalid one does not fall back to the cookie session.
func (s *AuthServiceImpl) RequireAuth(ctx context.Context, handle *domain.SessionHandle) (*domain.User, error) {
	if handle.BearerToken != "" {
		return s.sessions.ResolveToken(ctx, handle.BearerToken)
	}

	issuedBefore := handle.RememberIssued
	user, err := s.sessions.ResolveServerSession(ctx, handle)
	if err != nil {
		return nil, err
	}
	if handle.RememberIssued && !issuedBefore {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.RememberMeLoginEvent, user.ID).WithEmail(user.Email))
	}
	return user, nil
}

// GetAuthenticatedUser implements domain.AuthService. The CSRF token is
// only attached on the cookie channel.
func (s *AuthServiceImpl) GetAuthenticatedUser(ctx context.Context, handle *domain.SessionHandle) (*domain.AuthResult, error) {
	user, err := s.RequireAuth(ctx, handle)
	if err != nil {
		return nil, err
	}

	result := &domain.AuthResult{User: user}
	if handle.BearerToken != "" {
		return result, nil
	}

	csrfToken, err := s.csrf.GetOrCreate(ctx, handle)
	if err != nil {
		return nil, err
	}
	result.CSRFToken = csrfToken
	return result, nil
}

// ChangePassword implements domain.AuthService. Every token the user holds
// is revoked and the caller gets fresh credentials on the channel it used.
func (s *AuthServiceImpl) ChangePassword(ctx context.Context, handle *domain.SessionHandle, currentPassword, newPassword string) (*domain.AuthResult, error) {
	authUser, err := s.RequireAuth(ctx, handle)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, authUser.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}

	if err := s.lockout.CheckLockout(ctx, user.Email); err != nil {
		return nil, err
	}
	if !s.passwordSvc.Verify(user.PasswordHash, currentPassword) {
		return nil, s.loginFailed(ctx, user.Email)
	}
	if err := s.lockout.ClearAttempts(ctx, user.Email); err != nil {
		return nil, err
	}

	if violations := domain.ValidatePassword(newPassword); len(violations) > 0 {
		return nil, &domain.ValidationError{Violations: violations}
	}

	hashedPassword, err := s.passwordSvc.Hash(newPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		return nil, err
	}
	user.PasswordHash = hashedPassword

	if err := s.sessions.RevokeUserTokens(ctx, user.ID); err != nil {
		return nil, err
	}

	var result *domain.AuthResult
	if handle.BearerToken != "" {
		token, err := s.sessions.CreateToken(ctx, user.ID, s.config.BearerTTL)
		if err != nil {
			return nil, err
		}
		handle.BearerToken = token
		result = &domain.AuthResult{User: user, Token: token}
	} else {
		rememberMe := handle.RememberToken != ""
		// already revoked above
		handle.RememberToken = ""
		result, err = s.startSession(ctx, handle, user, rememberMe)
		if err != nil {
			return nil, err
		}
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PasswordChangedEvent, user.ID).WithEmail(user.Email))
	return result, nil
}

// startSession establishes a fresh server session and attaches its CSRF token
func (s *AuthServiceImpl) startSession(ctx context.Context, handle *domain.SessionHandle, user *domain.User, rememberMe bool) (*domain.AuthResult, error) {
	if err := s.sessions.Establish(ctx, handle, user, rememberMe); err != nil {
		return nil, err
	}
	csrfToken, err := s.csrf.GetOrCreate(ctx, handle)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResult{User: user, CSRFToken: csrfToken}, nil
}
