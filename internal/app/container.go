package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/you/cookbookauth/domain"
	"github.com/you/cookbookauth/internal/config"
	httpx "github.com/you/cookbookauth/internal/http"
	"github.com/you/cookbookauth/internal/http/handlers"
	"github.com/you/cookbookauth/internal/http/middleware"
	"github.com/you/cookbookauth/internal/infrastructure/audit"
	"github.com/you/cookbookauth/internal/infrastructure/auth"
	"github.com/you/cookbookauth/internal/infrastructure/database"
	"github.com/you/cookbookauth/internal/infrastructure/repositories"
	"github.com/you/cookbookauth/internal/services"
)

// Container holds all dependencies
type Container struct {
	// Config
	Config *config.Config
	Logger *zap.Logger

	// Infrastructure
	DB          *gorm.DB
	RedisClient *redis.Client

	// Repositories
	UserRepo    domain.UserRepository
	AttemptRepo domain.LoginAttemptRepository
	TokenRepo   domain.SessionTokenRepository
	SessionRepo domain.ServerSessionRepository

	// Services
	PasswordSvc domain.PasswordService
	TokenGen    domain.TokenGenerator
	AuditLog    domain.AuditLogger
	Lockout     domain.LockoutPolicy
	Sessions    domain.SessionManager
	CSRF        domain.CSRFIssuer
	AuthSvc     domain.AuthService

	// HTTP
	SessionMW *middleware.SessionMW
	Router    *gin.Engine
}

// NewContainer connects to the database and Redis, then wires everything else
func NewContainer(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Container, error) {
	db, err := database.Open(cfg.DBDriver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		closeDB(db)
		return nil, err
	}

	rdb, err := database.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	return NewContainerWith(cfg, log, db, rdb), nil
}

// NewContainerWith wires repositories, services and the router over
// already opened stores
func NewContainerWith(cfg *config.Config, log *zap.Logger, db *gorm.DB, rdb *redis.Client) *Container {
	c := &Container{
		Config:      cfg,
		Logger:      log,
		DB:          db,
		RedisClient: rdb,
	}

	c.initRepositories()
	c.initServices()
	c.initHTTP()

	return c
}

func (c *Container) initRepositories() {
	c.UserRepo = repositories.NewUserRepository(c.DB)
	c.TokenRepo = repositories.NewSessionTokenRepository(c.DB)
	c.SessionRepo = repositories.NewSessionRepository(c.RedisClient, c.Config.SessionIdleTTL)

	switch c.Config.LockoutStore {
	case config.LockoutStoreDatabase:
		c.AttemptRepo = repositories.NewLoginAttemptRepository(c.DB)
	default:
		c.AttemptRepo = repositories.NewLoginAttemptRedisRepository(c.RedisClient)
	}
}

func (c *Container) initServices() {
	c.PasswordSvc = auth.NewPasswordService()
	c.TokenGen = auth.NewTokenGenerator()
	c.AuditLog = audit.NewZapAuditLogger(c.Logger)

	c.Lockout = services.NewLockoutService(c.AttemptRepo, services.LockoutConfig{
		MaxAttempts: c.Config.LockoutMaxAttempts,
		Duration:    c.Config.LockoutDuration,
	})
	c.Sessions = services.NewSessionManager(c.UserRepo, c.TokenRepo, c.SessionRepo, c.TokenGen, services.SessionConfig{
		RememberTTL: c.Config.RememberTTL,
	})
	c.CSRF = services.NewCSRFService(c.SessionRepo, c.TokenGen)

	// Auth service depends on all of the above
	c.AuthSvc = services.NewAuthService(
		c.UserRepo,
		c.PasswordSvc,
		c.Lockout,
		c.Sessions,
		c.CSRF,
		c.AuditLog,
		c.Logger,
		services.AuthConfig{BearerTTL: c.Config.BearerTTL},
	)
}

func (c *Container) initHTTP() {
	c.SessionMW = middleware.NewSessionMW(middleware.CookieConfig{
		SessionName:  c.Config.SessionCookie,
		RememberName: c.Config.RememberCookie,
		Domain:       c.Config.CookieDomain,
		Secure:       c.Config.SecureCookies,
		SameSite:     c.Config.SameSite,
	})

	c.Router = httpx.BuildRouter(httpx.RouterDeps{
		Auth:           handlers.NewAuthHandlers(c.AuthSvc, c.SessionMW, c.Logger),
		Sessions:       c.SessionMW,
		AuthSvc:        c.AuthSvc,
		CSRF:           c.CSRF,
		Logger:         c.Logger,
		AllowedOrigins: c.Config.AllowedOrigins,
	})
}

// PurgeExpiredTokens deletes bearer and remember-me tokens past their expiry
func (c *Container) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	n, err := c.TokenRepo.DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	c.Logger.Info("purged expired session tokens", zap.Int64("deleted", n))
	return n, nil
}

// Close closes all connections
func (c *Container) Close() error {
	var errs []error
	if c.RedisClient != nil {
		errs = append(errs, c.RedisClient.Close())
	}
	if c.DB != nil {
		errs = append(errs, closeDB(c.DB))
	}
	return errors.Join(errs...)
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
