package e2e

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

// DefaultPassword satisfies the password policy
const DefaultPassword = "Abcdef1!"

var emailSeq atomic.Int64

// TestUserOptions configures a registered test user
type TestUserOptions struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// DefaultTestUser returns options for a fresh, unique user
func DefaultTestUser() *TestUserOptions {
	return &TestUserOptions{
		FirstName: "Alice",
		LastName:  "Cook",
		Email:     generateTestEmail(),
		Password:  DefaultPassword,
	}
}

func generateTestEmail() string {
	return fmt.Sprintf("cook_%d_%d@example.com", time.Now().UnixNano(), emailSeq.Add(1))
}

// RegisterBody is the JSON payload for /auth/register
func (o *TestUserOptions) RegisterBody() map[string]string {
	return map[string]string{
		"first_name": o.FirstName,
		"last_name":  o.LastName,
		"email":      o.Email,
		"password":   o.Password,
	}
}

// LoginBody is the JSON payload for /auth/login
func (o *TestUserOptions) LoginBody(rememberMe bool) map[string]interface{} {
	return map[string]interface{}{
		"email":       o.Email,
		"password":    o.Password,
		"remember_me": rememberMe,
	}
}

// MustRegister registers the user through the API and fails the test otherwise
func (ts *TestServer) MustRegister(t *testing.T, o *TestUserOptions) *Response {
	t.Helper()
	resp := ts.PostJSON("/auth/register", o.RegisterBody())
	if resp.Status != 201 {
		t.Fatalf("register %s: status %d body %s", o.Email, resp.Status, resp.Raw)
	}
	return resp
}

// MustLogin logs the user in and returns the response data
func (ts *TestServer) MustLogin(t *testing.T, o *TestUserOptions, rememberMe bool) map[string]interface{} {
	t.Helper()
	resp := ts.PostJSON("/auth/login", o.LoginBody(rememberMe))
	if resp.Status != 200 {
		t.Fatalf("login %s: status %d body %s", o.Email, resp.Status, resp.Raw)
	}
	return resp.Data()
}
