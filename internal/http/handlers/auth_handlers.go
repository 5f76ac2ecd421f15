package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/you/cookbookauth/domain"
	"github.com/you/cookbookauth/internal/http/middleware"
)

// AuthHandlers handles authentication HTTP requests
type AuthHandlers struct {
	authSvc  domain.AuthService
	sessions *middleware.SessionMW
	log      *zap.Logger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authSvc domain.AuthService, sessions *middleware.SessionMW, log *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		authSvc:  authSvc,
		sessions: sessions,
		log:      log.Named("http"),
	}
}

// RegisterRequest represents registration request
type RegisterRequest struct {
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"required,max=100"`
	Email     string `json:"email" binding:"required,email,max=255"`
	Password  string `json:"password" binding:"required"`
}

// LoginRequest represents login request
type LoginRequest struct {
	Email      string `json:"email" binding:"required"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// Register handles user registration
func (h *AuthHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "Validation failed", gin.H{"errors": bindingErrors(err)})
		return
	}

	handle := middleware.Handle(c)
	result, err := h.authSvc.Register(c.Request.Context(), handle, domain.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		var validationErr *domain.ValidationError
		switch {
		case errors.As(err, &validationErr):
			respondError(c, http.StatusUnprocessableEntity, "Password does not meet requirements", gin.H{"errors": validationErr.Violations})
		case errors.Is(err, domain.ErrUserAlreadyExists):
			respondError(c, http.StatusConflict, "Email already registered", nil)
		default:
			h.log.Error("registration failed", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Registration failed", nil)
		}
		return
	}

	h.sessions.Apply(c, handle)
	respondData(c, http.StatusCreated, gin.H{
		"user_id":    result.User.ID,
		"email":      result.User.Email,
		"csrf_token": result.CSRFToken,
	})
}

// Login handles user login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "Validation failed", gin.H{"errors": bindingErrors(err)})
		return
	}

	handle := middleware.Handle(c)
	result, err := h.authSvc.Login(c.Request.Context(), handle, req.Email, req.Password, req.RememberMe)
	if err != nil {
		h.writeCredentialError(c, err, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	h.sessions.Apply(c, handle)
	respondData(c, http.StatusOK, gin.H{
		"token":      result.Token,
		"user":       result.User.Public(),
		"csrf_token": result.CSRFToken,
	})
}

// Logout always succeeds
func (h *AuthHandlers) Logout(c *gin.Context) {
	handle := middleware.Handle(c)
	_ = h.authSvc.Logout(c.Request.Context(), handle)

	h.sessions.Apply(c, handle)
	respondMessage(c, http.StatusOK, "Logged out successfully")
}

// Check reports the current identity and, on the cookie channel, its CSRF token
func (h *AuthHandlers) Check(c *gin.Context) {
	handle := middleware.Handle(c)
	result, err := h.authSvc.GetAuthenticatedUser(c.Request.Context(), handle)
	h.sessions.Apply(c, handle)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			respondError(c, http.StatusUnauthorized, "Not authenticated", nil)
			return
		}
		h.log.Error("auth check failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Internal server error", nil)
		return
	}

	data := gin.H{"user": result.User.Public()}
	if result.CSRFToken != "" {
		data["csrf_token"] = result.CSRFToken
	}
	respondData(c, http.StatusOK, data)
}

// Me returns the user resolved by the RequireAuth middleware
func (h *AuthHandlers) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}
	respondData(c, http.StatusOK, gin.H{"user": user.Public()})
}

// ChangePassword replaces the caller's password and reissues credentials
func (h *AuthHandlers) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "Validation failed", gin.H{"errors": bindingErrors(err)})
		return
	}

	handle := middleware.Handle(c)
	result, err := h.authSvc.ChangePassword(c.Request.Context(), handle, req.CurrentPassword, req.NewPassword)
	if err != nil {
		var validationErr *domain.ValidationError
		switch {
		case errors.As(err, &validationErr):
			respondError(c, http.StatusUnprocessableEntity, "Password does not meet requirements", gin.H{"errors": validationErr.Violations})
		case errors.Is(err, domain.ErrUnauthenticated):
			h.sessions.Apply(c, handle)
			respondError(c, http.StatusUnauthorized, "Authentication required", nil)
		default:
			h.writeCredentialError(c, err, "Current password is incorrect", http.StatusForbidden)
		}
		return
	}

	h.sessions.Apply(c, handle)
	data := gin.H{"user": result.User.Public()}
	if result.Token != "" {
		data["token"] = result.Token
	}
	if result.CSRFToken != "" {
		data["csrf_token"] = result.CSRFToken
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password changed", "data": data})
}

// writeCredentialError answers lockout, bad-credential and store failures
func (h *AuthHandlers) writeCredentialError(c *gin.Context, err error, badCredentials string, badStatus int) {
	var locked *domain.LockedError
	var credErr *domain.CredentialsError
	switch {
	case errors.As(err, &locked):
		c.Header("Retry-After", strconv.Itoa(locked.Seconds()))
		respondError(c, http.StatusLocked, fmt.Sprintf(
			"Account locked due to too many failed login attempts. Try again in %d minute(s).", locked.Minutes()), nil)
	case errors.As(err, &credErr):
		respondError(c, badStatus, badCredentials, gin.H{"attempts_remaining": credErr.Remaining})
	default:
		h.log.Error("credential check failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Internal server error", nil)
	}
}

// Health reports liveness
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
