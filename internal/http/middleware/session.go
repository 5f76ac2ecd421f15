package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/you/cookbookauth/domain"
)

const handleKey = "session_handle"

// CookieConfig describes the session and remember-me cookies
type CookieConfig struct {
	SessionName  string
	RememberName string
	Domain       string
	Secure       bool
	SameSite     http.SameSite
}

// SessionMW moves session state between HTTP requests and domain.SessionHandle
type SessionMW struct {
	cookies CookieConfig
	now     func() time.Time
}

// NewSessionMW creates the session middleware wrapper
func NewSessionMW(cookies CookieConfig) *SessionMW {
	return &SessionMW{cookies: cookies, now: time.Now}
}

// LoadSession reads the session cookie, the remember-me cookie and any
// bearer token into a handle stored on the gin context
func (mw *SessionMW) LoadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		handle := &domain.SessionHandle{BearerToken: bearerToken(c)}
		if v, err := c.Cookie(mw.cookies.SessionName); err == nil {
			handle.SessionID = v
		}
		if v, err := c.Cookie(mw.cookies.RememberName); err == nil {
			handle.RememberToken = v
		}
		c.Set(handleKey, handle)
		c.Next()
	}
}

// Handle returns the request's session handle
func Handle(c *gin.Context) *domain.SessionHandle {
	if v, ok := c.Get(handleKey); ok {
		if handle, ok := v.(*domain.SessionHandle); ok {
			return handle
		}
	}
	handle := &domain.SessionHandle{BearerToken: bearerToken(c)}
	c.Set(handleKey, handle)
	return handle
}

// Apply writes the cookie directives recorded on the handle. It must run
// before the response body is written; applied directives are reset.
func (mw *SessionMW) Apply(c *gin.Context, handle *domain.SessionHandle) {
	c.SetSameSite(mw.cookies.SameSite)

	switch {
	case handle.SessionChanged && handle.Session != nil:
		// no Max-Age: the store's idle expiry bounds the session
		c.SetCookie(mw.cookies.SessionName, handle.Session.ID, 0, "/", mw.cookies.Domain, mw.cookies.Secure, true)
	case handle.SessionCleared:
		c.SetCookie(mw.cookies.SessionName, "", -1, "/", mw.cookies.Domain, mw.cookies.Secure, true)
	}

	switch {
	case handle.RememberIssued:
		maxAge := int(handle.RememberExpiresAt.Sub(mw.now()).Seconds())
		if maxAge < 1 {
			maxAge = -1
		}
		c.SetCookie(mw.cookies.RememberName, handle.RememberToken, maxAge, "/", mw.cookies.Domain, mw.cookies.Secure, true)
	case handle.RememberCleared:
		c.SetCookie(mw.cookies.RememberName, "", -1, "/", mw.cookies.Domain, mw.cookies.Secure, true)
	}

	handle.SessionChanged = false
	handle.SessionCleared = false
	handle.RememberIssued = false
	handle.RememberCleared = false
}

// bearerToken reads "Authorization: Bearer <token>" with a ?token= fallback
func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Query("token")
}
