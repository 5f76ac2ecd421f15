package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	// Authentication events
	UserLoginEvent         AuditEventType = "USER_LOGIN"
	UserLoginFailureEvent  AuditEventType = "USER_LOGIN_FAILED"
	UserLockedOutEvent     AuditEventType = "USER_LOCKED_OUT"
	UserRegistrationEvent  AuditEventType = "USER_REGISTERED"
	UserLogoutEvent        AuditEventType = "USER_LOGOUT"
	RememberMeLoginEvent   AuditEventType = "REMEMBER_ME_LOGIN"
	PasswordChangedEvent   AuditEventType = "PASSWORD_CHANGED"
	TokenRevocationFailure AuditEventType = "TOKEN_REVOCATION_FAILED"
)

// AuditEvent represents a security-relevant event in the auth core
type AuditEvent struct {
	ID        string                 `json:"id"`
	EventType AuditEventType         `json:"event_type"`
	UserID    string                 `json:"user_id,omitempty"`
	Email     string                 `json:"email,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	ErrorMsg  string                 `json:"error_msg,omitempty"`
	Success   bool                   `json:"success"`
}

// AuditLogger records audit events
type AuditLogger interface {
	LogEvent(ctx context.Context, event *AuditEvent)
}

// NewAuditEvent creates a new audit event with common fields populated
func NewAuditEvent(eventType AuditEventType, userID string) *AuditEvent {
	return &AuditEvent{
		ID:        uuid.NewString(),
		EventType: eventType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Metadata:  make(map[string]interface{}),
		Success:   true,
	}
}

// WithError sets error information on the audit event
func (e *AuditEvent) WithError(err error) *AuditEvent {
	e.Success = false
	if err != nil {
		e.ErrorMsg = err.Error()
	}
	return e
}

// WithEmail sets the email field
func (e *AuditEvent) WithEmail(email string) *AuditEvent {
	e.Email = email
	return e
}

// WithMetadata adds metadata to the event
func (e *AuditEvent) WithMetadata(key string, value interface{}) *AuditEvent {
	e.Metadata[key] = value
	return e
}

// NopAuditLogger discards events
type NopAuditLogger struct{}

// LogEvent implements AuditLogger
func (NopAuditLogger) LogEvent(context.Context, *AuditEvent) {}
