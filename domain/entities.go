package domain

import "time"

// User represents a registered cookbook member
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the user shape exposed to clients, without the password hash
type PublicUser struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// Public strips credential material from the user
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}

// LoginAttempt tracks failed logins for one email address.
// LockedUntil is only set once Attempts reached the lockout threshold.
type LoginAttempt struct {
	Email         string
	Attempts      int
	LockedUntil   *time.Time
	LastAttemptAt time.Time
}

// IsLocked reports whether the lock is still in force at now
func (a *LoginAttempt) IsLocked(now time.Time) bool {
	return a.LockedUntil != nil && a.LockedUntil.After(now)
}

// LockExpired reports whether a lock was set and has run out at now
func (a *LoginAttempt) LockExpired(now time.Time) bool {
	return a.LockedUntil != nil && !a.LockedUntil.After(now)
}

// SessionToken is a persisted bearer or remember-me credential.
// Token holds the raw value only right after issuance; stores keep a hash.
type SessionToken struct {
	Token     string
	UserID    string
	ExpiresAt *time.Time // nil never expires
	CreatedAt time.Time
}

// Expired reports whether the token is no longer usable at now
func (t *SessionToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now)
}

// ServerSession is the stateful browser session kept server side
type ServerSession struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Authenticated  bool      `json:"authenticated"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	CSRFToken      string    `json:"csrf_token,omitempty"`
}

// User rebuilds the identity cached on the session
func (s *ServerSession) User() *User {
	return &User{
		ID:        s.UserID,
		Email:     s.Email,
		FirstName: s.FirstName,
		LastName:  s.LastName,
	}
}

// SessionHandle carries one request's browser session state between the
// transport layer and the auth core. Cookie values come in through
// SessionID, RememberToken and BearerToken; the core records what the
// transport must write back in the directive fields.
type SessionHandle struct {
	SessionID     string
	RememberToken string
	BearerToken   string

	// Session is the loaded server session, nil until resolved or established
	Session *ServerSession

	SessionChanged    bool
	SessionCleared    bool
	RememberIssued    bool
	RememberCleared   bool
	RememberExpiresAt time.Time
}

// SetSession binds a freshly established session to the handle
func (h *SessionHandle) SetSession(s *ServerSession) {
	h.Session = s
	h.SessionID = s.ID
	h.SessionChanged = true
	h.SessionCleared = false
}

// ClearSession drops the session and asks the transport to expire the cookie
func (h *SessionHandle) ClearSession() {
	h.Session = nil
	h.SessionID = ""
	h.SessionChanged = false
	h.SessionCleared = true
}

// IssueRemember hands a new remember-me token to the transport
func (h *SessionHandle) IssueRemember(token string, expiresAt time.Time) {
	h.RememberToken = token
	h.RememberExpiresAt = expiresAt
	h.RememberIssued = true
	h.RememberCleared = false
}

// ClearRemember asks the transport to expire the remember-me cookie
func (h *SessionHandle) ClearRemember() {
	h.RememberToken = ""
	h.RememberExpiresAt = time.Time{}
	h.RememberIssued = false
	h.RememberCleared = true
}

// RegisterInput is the registration payload handed to the auth service
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// AuthResult represents authentication outcome
type AuthResult struct {
	User      *User
	Token     string
	CSRFToken string
}
