package repositories

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/cookbookauth/domain"
)

const (
	testMaxAttempts = 3
	testLockFor     = 3 * time.Minute
)

// attemptBackends runs the same contract against every store implementation
func attemptBackends(t *testing.T) map[string]func(t *testing.T) domain.LoginAttemptRepository {
	t.Helper()
	return map[string]func(t *testing.T) domain.LoginAttemptRepository{
		"gorm": func(t *testing.T) domain.LoginAttemptRepository {
			return NewLoginAttemptRepository(setupTestDB(t))
		},
		"redis": func(t *testing.T) domain.LoginAttemptRepository {
			_, client := setupTestRedis(t)
			return NewLoginAttemptRedisRepository(client)
		},
	}
}

func TestLoginAttemptRepository_IncrementUntilLocked(t *testing.T) {
	for name, newRepo := range attemptBackends(t) {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()
			now := time.Now().UTC().Truncate(time.Millisecond)

			_, err := repo.Find(ctx, "alice@example.com")
			assert.ErrorIs(t, err, domain.ErrAttemptNotFound)

			rec, err := repo.Increment(ctx, "alice@example.com", now, testMaxAttempts, testLockFor)
			require.NoError(t, err)
			assert.Equal(t, 1, rec.Attempts)
			assert.Nil(t, rec.LockedUntil)

			rec, err = repo.Increment(ctx, "alice@example.com", now, testMaxAttempts, testLockFor)
			require.NoError(t, err)
			assert.Equal(t, 2, rec.Attempts)
			assert.Nil(t, rec.LockedUntil)

			rec, err = repo.Increment(ctx, "alice@example.com", now, testMaxAttempts, testLockFor)
			require.NoError(t, err)
			assert.Equal(t, 3, rec.Attempts)
			require.NotNil(t, rec.LockedUntil)
			assert.WithinDuration(t, now.Add(testLockFor), *rec.LockedUntil, time.Millisecond)

			found, err := repo.Find(ctx, "alice@example.com")
			require.NoError(t, err)
			assert.Equal(t, 3, found.Attempts)
			require.NotNil(t, found.LockedUntil)
			assert.WithinDuration(t, now.Add(testLockFor), *found.LockedUntil, time.Millisecond)
			assert.WithinDuration(t, now, found.LastAttemptAt, time.Millisecond)
		})
	}
}

func TestLoginAttemptRepository_LockNotExtendedWhileLocked(t *testing.T) {
	for name, newRepo := range attemptBackends(t) {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()
			now := time.Now().UTC().Truncate(time.Millisecond)

			for i := 0; i < testMaxAttempts; i++ {
				_, err := repo.Increment(ctx, "alice@example.com", now, testMaxAttempts, testLockFor)
				require.NoError(t, err)
			}

			later := now.Add(time.Minute)
			rec, err := repo.Increment(ctx, "alice@example.com", later, testMaxAttempts, testLockFor)
			require.NoError(t, err)
			assert.Equal(t, 4, rec.Attempts)
			require.NotNil(t, rec.LockedUntil)
			assert.WithinDuration(t, now.Add(testLockFor), *rec.LockedUntil, time.Millisecond)
		})
	}
}

func TestLoginAttemptRepository_ExpiredLockRestartsCount(t *testing.T) {
	for name, newRepo := range attemptBackends(t) {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()
			now := time.Now().UTC().Truncate(time.Millisecond)

			for i := 0; i < testMaxAttempts; i++ {
				_, err := repo.Increment(ctx, "alice@example.com", now, testMaxAttempts, testLockFor)
				require.NoError(t, err)
			}

			afterLock := now.Add(testLockFor + time.Second)
			rec, err := repo.Increment(ctx, "alice@example.com", afterLock, testMaxAttempts, testLockFor)
			require.NoError(t, err)
			assert.Equal(t, 1, rec.Attempts)
			assert.Nil(t, rec.LockedUntil)
		})
	}
}

func TestLoginAttemptRepository_Delete(t *testing.T) {
	for name, newRepo := range attemptBackends(t) {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()

			_, err := repo.Increment(ctx, "alice@example.com", time.Now(), testMaxAttempts, testLockFor)
			require.NoError(t, err)

			require.NoError(t, repo.Delete(ctx, "alice@example.com"))
			_, err = repo.Find(ctx, "alice@example.com")
			assert.ErrorIs(t, err, domain.ErrAttemptNotFound)

			// deleting again is fine
			require.NoError(t, repo.Delete(ctx, "alice@example.com"))
		})
	}
}

func TestLoginAttemptRepository_EmailsAreIndependent(t *testing.T) {
	for name, newRepo := range attemptBackends(t) {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()
			now := time.Now()

			_, err := repo.Increment(ctx, "alice@example.com", now, testMaxAttempts, testLockFor)
			require.NoError(t, err)
			rec, err := repo.Increment(ctx, "bob@example.com", now, testMaxAttempts, testLockFor)
			require.NoError(t, err)
			assert.Equal(t, 1, rec.Attempts)
		})
	}
}

func TestLoginAttemptRedisRepository_ConcurrentIncrements(t *testing.T) {
	_, client := setupTestRedis(t)
	repo := NewLoginAttemptRedisRepository(client)
	ctx := context.Background()
	now := time.Now()

	const workers = 12
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[int]bool)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := repo.Increment(ctx, "race@example.com", now, testMaxAttempts, testLockFor)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			seen[rec.Attempts] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	// every increment observed a distinct count
	assert.Len(t, seen, workers)
	rec, err := repo.Find(ctx, "race@example.com")
	require.NoError(t, err)
	assert.Equal(t, workers, rec.Attempts)
	assert.NotNil(t, rec.LockedUntil)
}

func TestLoginAttemptRedisRepository_StoreFailure(t *testing.T) {
	mr, client := setupTestRedis(t)
	repo := NewLoginAttemptRedisRepository(client)
	mr.Close()

	_, err := repo.Increment(context.Background(), "alice@example.com", time.Now(), testMaxAttempts, testLockFor)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	_, err = repo.Find(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
