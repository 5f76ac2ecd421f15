package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/you/cookbookauth/domain"
	"github.com/you/cookbookauth/internal/infrastructure/auth"
	"github.com/you/cookbookauth/internal/infrastructure/database"
	"github.com/you/cookbookauth/internal/infrastructure/repositories"
)

// fakeClock is a settable clock shared by the services under test
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// createValidUser creates a valid user entity for testing
func createValidUser(t *testing.T) *domain.User {
	t.Helper()

	return &domain.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		PasswordHash: "hashed_Abcdef1!",
		FirstName:    "Alice",
		LastName:     "Cook",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

// testStores bundles real repositories over sqlite and miniredis
type testStores struct {
	db       *gorm.DB
	mr       *miniredis.Miniredis
	redis    *redis.Client
	users    domain.UserRepository
	attempts domain.LoginAttemptRepository
	tokens   domain.SessionTokenRepository
	sessions domain.ServerSessionRepository
}

func setupStores(t *testing.T) *testStores {
	t.Helper()

	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return &testStores{
		db:       db,
		mr:       mr,
		redis:    client,
		users:    repositories.NewUserRepository(db),
		attempts: repositories.NewLoginAttemptRedisRepository(client),
		tokens:   repositories.NewSessionTokenRepository(db),
		sessions: repositories.NewSessionRepository(client, 2*time.Hour),
	}
}

// seedUser stores a user whose password is hashed with the minimum bcrypt cost
func seedUser(t *testing.T, users domain.UserRepository, email, password string) *domain.User {
	t.Helper()

	hash, err := auth.NewPasswordServiceWithCost(bcrypt.MinCost).Hash(password)
	require.NoError(t, err)
	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Alice",
		LastName:     "Cook",
	}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}
