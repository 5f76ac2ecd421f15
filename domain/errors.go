package domain

import (
	"errors"
	"fmt"
	"time"
)

// Authentication errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrAccountLocked      = errors.New("account locked")
	ErrValidationFailed   = errors.New("validation failed")
	ErrUnauthenticated    = errors.New("unauthenticated")
)

// Storage errors
var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrAttemptNotFound  = errors.New("login attempt record not found")
	ErrTokenNotFound    = errors.New("session token not found")
	ErrSessionNotFound  = errors.New("session not found")
)

// Request errors
var (
	ErrCSRFMismatch = errors.New("csrf token mismatch")
)

// LockedError reports a login refused because the email is locked out
type LockedError struct {
	Until      time.Time
	RetryAfter time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked, try again in %d minute(s)", e.Minutes())
}

// Is makes errors.Is(err, ErrAccountLocked) match
func (e *LockedError) Is(target error) bool {
	return target == ErrAccountLocked
}

// Minutes is the remaining lock time rounded up to whole minutes
func (e *LockedError) Minutes() int {
	if e.RetryAfter <= 0 {
		return 0
	}
	m := int(e.RetryAfter / time.Minute)
	if e.RetryAfter%time.Minute != 0 {
		m++
	}
	return m
}

// Seconds is the remaining lock time rounded up to whole seconds
func (e *LockedError) Seconds() int {
	if e.RetryAfter <= 0 {
		return 0
	}
	s := int(e.RetryAfter / time.Second)
	if e.RetryAfter%time.Second != 0 {
		s++
	}
	return s
}

// NewLockedError builds a LockedError for a lock ending at until
func NewLockedError(until, now time.Time) *LockedError {
	return &LockedError{Until: until, RetryAfter: until.Sub(now)}
}

// CredentialsError is a failed credential check. The same value is produced
// for unknown emails and wrong passwords.
type CredentialsError struct {
	Remaining int
}

func (e *CredentialsError) Error() string {
	return ErrInvalidCredentials.Error()
}

// Is makes errors.Is(err, ErrInvalidCredentials) match
func (e *CredentialsError) Is(target error) bool {
	return target == ErrInvalidCredentials
}

// ValidationError carries every violation found, not just the first
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d violation(s)", len(e.Violations))
}

// Is makes errors.Is(err, ErrValidationFailed) match
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// StoreError wraps a storage failure so it matches ErrStoreUnavailable
func StoreError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}
