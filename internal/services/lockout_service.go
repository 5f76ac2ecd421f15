package services

import (
	"context"
	"errors"
	"time"

	"github.com/you/cookbookauth/domain"
)

// LockoutConfig holds brute-force lockout settings
type LockoutConfig struct {
	MaxAttempts int
	Duration    time.Duration
	// Now overrides the clock in tests
	Now func() time.Time
}

// LockoutServiceImpl implements domain.LockoutPolicy
type LockoutServiceImpl struct {
	attemptRepo domain.LoginAttemptRepository
	config      LockoutConfig
}

// NewLockoutService creates a new lockout service
func NewLockoutService(attemptRepo domain.LoginAttemptRepository, config LockoutConfig) domain.LockoutPolicy {
	if config.Now == nil {
		config.Now = time.Now
	}
	return &LockoutServiceImpl{
		attemptRepo: attemptRepo,
		config:      config,
	}
}

// CheckLockout implements domain.LockoutPolicy. An expired lock is cleared
// here, so the next failure starts counting from one.
func (s *LockoutServiceImpl) CheckLockout(ctx context.Context, email string) error {
	record, err := s.attemptRepo.Find(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAttemptNotFound) {
			return nil
		}
		return err
	}

	now := s.config.Now()
	if record.IsLocked(now) {
		return domain.NewLockedError(*record.LockedUntil, now)
	}
	if record.LockExpired(now) {
		return s.attemptRepo.Delete(ctx, email)
	}
	return nil
}

// RecordFailure implements domain.LockoutPolicy. It returns the attempts
// left, or a *domain.LockedError once the threshold is reached.
func (s *LockoutServiceImpl) RecordFailure(ctx context.Context, email string) (int, error) {
	now := s.config.Now()
	record, err := s.attemptRepo.Increment(ctx, email, now, s.config.MaxAttempts, s.config.Duration)
	if err != nil {
		return 0, err
	}

	if record.IsLocked(now) {
		return 0, domain.NewLockedError(*record.LockedUntil, now)
	}

	remaining := s.config.MaxAttempts - record.Attempts
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// ClearAttempts implements domain.LockoutPolicy
func (s *LockoutServiceImpl) ClearAttempts(ctx context.Context, email string) error {
	return s.attemptRepo.Delete(ctx, email)
}
