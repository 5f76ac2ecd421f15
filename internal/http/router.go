package httpx

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/you/cookbookauth/domain"
	"github.com/you/cookbookauth/internal/http/handlers"
	"github.com/you/cookbookauth/internal/http/middleware"
)

// RouterDeps are the collaborators the HTTP layer needs
type RouterDeps struct {
	Auth           *handlers.AuthHandlers
	Sessions       *middleware.SessionMW
	AuthSvc        domain.AuthService
	CSRF           domain.CSRFIssuer
	Logger         *zap.Logger
	AllowedOrigins []string
}

// BuildRouter wires middleware and routes
func BuildRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(deps.Logger.Named("http")))

	if len(deps.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     deps.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.CSRFHeader},
			ExposeHeaders:    []string{"Content-Length", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/health", handlers.Health)

	auth := r.Group("/auth")
	auth.Use(deps.Sessions.LoadSession())
	auth.POST("/register", deps.Auth.Register)
	auth.POST("/login", deps.Auth.Login)
	auth.POST("/logout", deps.Auth.Logout)
	auth.GET("/check", deps.Auth.Check)

	protected := auth.Group("")
	protected.Use(deps.Sessions.RequireAuth(deps.AuthSvc, deps.Logger))
	protected.GET("/me", deps.Auth.Me)
	protected.POST("/password", middleware.RequireCSRF(deps.CSRF), deps.Auth.ChangePassword)

	return r
}
