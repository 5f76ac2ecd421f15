package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when CONFIG_PATH is unset
const DefaultPath = "config/config.yml"

// Lockout store backends
const (
	LockoutStoreRedis    = "redis"
	LockoutStoreDatabase = "database"
)

type AppConfig struct {
	Port    int    `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SessionConfig struct {
	CookieName         string `yaml:"cookie_name"`
	RememberCookieName string `yaml:"remember_cookie_name"`
	CookieDomain       string `yaml:"cookie_domain"`
	SecureCookies      bool   `yaml:"secure_cookies"`
	SameSite           string `yaml:"same_site"`
	IdleTTL            string `yaml:"idle_ttl"`
	RememberTTL        string `yaml:"remember_ttl"`
	BearerTTL          string `yaml:"bearer_ttl"`
}

type LockoutConfig struct {
	MaxAttempts int    `yaml:"max_attempts"`
	Duration    string `yaml:"duration"`
	Store       string `yaml:"store"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type ConfigFile struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Session  SessionConfig  `yaml:"session"`
	Lockout  LockoutConfig  `yaml:"lockout"`
	Log      LogConfig      `yaml:"log"`
	CORS     CORSConfig     `yaml:"cors"`
}

type Config struct {
	Port               string
	GinMode            string
	DBDriver           string
	DSN                string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	SessionCookie      string
	RememberCookie     string
	CookieDomain       string
	SecureCookies      bool
	SameSite           http.SameSite
	SessionIdleTTL     time.Duration
	RememberTTL        time.Duration
	BearerTTL          time.Duration
	LockoutMaxAttempts int
	LockoutDuration    time.Duration
	LockoutStore       string
	LogLevel           string
	LogDevelopment     bool
	AllowedOrigins     []string
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// Load reads .env (if present), then the yaml file named by CONFIG_PATH
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()
	return LoadFrom(env("CONFIG_PATH", DefaultPath))
}

// LoadFrom reads the yaml file at path and applies environment overrides
func LoadFrom(path string) (*Config, error) {
	configFile, err := loadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	applyDefaults(configFile)
	applyEnv(configFile)

	idleTTL, err := time.ParseDuration(configFile.Session.IdleTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid session idle TTL: %w", err)
	}

	rememberTTL, err := time.ParseDuration(configFile.Session.RememberTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid remember-me TTL: %w", err)
	}

	bearerTTL, err := time.ParseDuration(configFile.Session.BearerTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid bearer token TTL: %w", err)
	}

	lockDur, err := time.ParseDuration(configFile.Lockout.Duration)
	if err != nil {
		return nil, fmt.Errorf("invalid lockout duration: %w", err)
	}

	sameSite, err := parseSameSite(configFile.Session.SameSite)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:               strconv.Itoa(configFile.App.Port),
		GinMode:            configFile.App.GinMode,
		DBDriver:           configFile.Database.Driver,
		DSN:                configFile.Database.DSN,
		RedisAddr:          configFile.Redis.Addr,
		RedisPassword:      configFile.Redis.Password,
		RedisDB:            configFile.Redis.DB,
		SessionCookie:      configFile.Session.CookieName,
		RememberCookie:     configFile.Session.RememberCookieName,
		CookieDomain:       configFile.Session.CookieDomain,
		SecureCookies:      configFile.Session.SecureCookies,
		SameSite:           sameSite,
		SessionIdleTTL:     idleTTL,
		RememberTTL:        rememberTTL,
		BearerTTL:          bearerTTL,
		LockoutMaxAttempts: configFile.Lockout.MaxAttempts,
		LockoutDuration:    lockDur,
		LockoutStore:       configFile.Lockout.Store,
		LogLevel:           configFile.Log.Level,
		LogDevelopment:     configFile.Log.Development,
		AllowedOrigins:     configFile.CORS.AllowedOrigins,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the auth core cannot run with
func (c *Config) Validate() error {
	var errs []error
	if c.DBDriver != "postgres" && c.DBDriver != "sqlite" {
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.DBDriver))
	}
	if c.DSN == "" {
		errs = append(errs, errors.New("database dsn is required"))
	}
	if c.RedisAddr == "" {
		errs = append(errs, errors.New("redis addr is required"))
	}
	if c.SessionCookie == "" || c.RememberCookie == "" || c.SessionCookie == c.RememberCookie {
		errs = append(errs, errors.New("session and remember-me cookie names must be set and distinct"))
	}
	if c.SessionIdleTTL <= 0 || c.RememberTTL <= 0 {
		errs = append(errs, errors.New("session TTLs must be positive"))
	}
	if c.LockoutMaxAttempts < 1 {
		errs = append(errs, errors.New("lockout max_attempts must be at least 1"))
	}
	if c.LockoutDuration <= 0 {
		errs = append(errs, errors.New("lockout duration must be positive"))
	}
	if c.LockoutStore != LockoutStoreRedis && c.LockoutStore != LockoutStoreDatabase {
		errs = append(errs, fmt.Errorf("unsupported lockout store %q", c.LockoutStore))
	}
	return errors.Join(errs...)
}

func applyDefaults(f *ConfigFile) {
	if f.App.Port == 0 {
		f.App.Port = 8080
	}
	if f.App.GinMode == "" {
		f.App.GinMode = "release"
	}
	if f.Database.Driver == "" {
		f.Database.Driver = "postgres"
	}
	if f.Session.CookieName == "" {
		f.Session.CookieName = "cookbook_session"
	}
	if f.Session.RememberCookieName == "" {
		f.Session.RememberCookieName = "cookbook_remember"
	}
	if f.Session.SameSite == "" {
		f.Session.SameSite = "lax"
	}
	if f.Session.IdleTTL == "" {
		f.Session.IdleTTL = "2h"
	}
	if f.Session.RememberTTL == "" {
		f.Session.RememberTTL = "720h"
	}
	if f.Session.BearerTTL == "" {
		f.Session.BearerTTL = "720h"
	}
	if f.Lockout.MaxAttempts == 0 {
		f.Lockout.MaxAttempts = 3
	}
	if f.Lockout.Duration == "" {
		f.Lockout.Duration = "3m"
	}
	if f.Lockout.Store == "" {
		f.Lockout.Store = LockoutStoreRedis
	}
	if f.Log.Level == "" {
		f.Log.Level = "info"
	}
}

func applyEnv(f *ConfigFile) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			f.App.Port = port
		}
	}
	f.Database.DSN = env("DATABASE_DSN", f.Database.DSN)
	f.Redis.Addr = env("REDIS_ADDR", f.Redis.Addr)
	f.Redis.Password = env("REDIS_PASSWORD", f.Redis.Password)
	f.Log.Level = env("LOG_LEVEL", f.Log.Level)
}

func parseSameSite(v string) (http.SameSite, error) {
	switch strings.ToLower(v) {
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("invalid same_site %q", v)
	}
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}

	return &config, nil
}
