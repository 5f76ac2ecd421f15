package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/cookbookauth/domain"
	"github.com/you/cookbookauth/internal/infrastructure/auth"
	"github.com/you/cookbookauth/internal/mocks"
)

const testRememberTTL = 30 * 24 * time.Hour

func newTestSessionManager(t *testing.T) (domain.SessionManager, *testStores, *fakeClock) {
	t.Helper()

	stores := setupStores(t)
	clock := newFakeClock()
	mgr := NewSessionManager(stores.users, stores.tokens, stores.sessions, auth.NewTokenGenerator(), SessionConfig{
		RememberTTL: testRememberTTL,
		Now:         clock.Now,
	})
	return mgr, stores, clock
}

func TestSessionManagerImpl_CreateAndResolveToken(t *testing.T) {
	mgr, stores, _ := newTestSessionManager(t)
	ctx := context.Background()
	user := seedUser(t, stores.users, "alice@example.com", "Abcdef1!")

	token, err := mgr.CreateToken(ctx, user.ID, time.Hour)
	require.NoError(t, err)
	assert.Len(t, token, 64)

	resolved, err := mgr.ResolveToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
	assert.Equal(t, "alice@example.com", resolved.Email)

	// only the hash is persisted
	_, err = stores.tokens.FindByHash(ctx, token)
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)

	second, err := mgr.CreateToken(ctx, user.ID, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, token, second)
}

func TestSessionManagerImpl_ResolveToken(t *testing.T) {
	tests := []struct {
		name          string
		ttl           time.Duration
		advance       time.Duration
		token         func(issued string) string
		expectedError error
	}{
		{
			name:    "valid until expiry",
			ttl:     time.Hour,
			advance: time.Hour - time.Second,
		},
		{
			name:          "expired at the expiry instant",
			ttl:           time.Hour,
			advance:       time.Hour,
			expectedError: domain.ErrUnauthenticated,
		},
		{
			name:          "expired long ago",
			ttl:           time.Hour,
			advance:       48 * time.Hour,
			expectedError: domain.ErrUnauthenticated,
		},
		{
			name:    "zero ttl never expires",
			ttl:     0,
			advance: 10 * 365 * 24 * time.Hour,
		},
		{
			name:          "unknown token",
			ttl:           time.Hour,
			token:         func(string) string { return "deadbeef" },
			expectedError: domain.ErrUnauthenticated,
		},
		{
			name:          "altered token",
			ttl:           time.Hour,
			token:         func(issued string) string { return issued[:len(issued)-1] + "x" },
			expectedError: domain.ErrUnauthenticated,
		},
		{
			name:          "empty token",
			ttl:           time.Hour,
			token:         func(string) string { return "" },
			expectedError: domain.ErrUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr, stores, clock := newTestSessionManager(t)
			ctx := context.Background()
			user := seedUser(t, stores.users, "alice@example.com", "Abcdef1!")

			issued, err := mgr.CreateToken(ctx, user.ID, tt.ttl)
			require.NoError(t, err)
			clock.Advance(tt.advance)

			presented := issued
			if tt.token != nil {
				presented = tt.token(issued)
			}
			resolved, err := mgr.ResolveToken(ctx, presented)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, resolved)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, user.ID, resolved.ID)
		})
	}
}

func TestSessionManagerImpl_RevokeToken(t *testing.T) {
	mgr, stores, _ := newTestSessionManager(t)
	ctx := context.Background()
	user := seedUser(t, stores.users, "alice@example.com", "Abcdef1!")

	token, err := mgr.CreateToken(ctx, user.ID, time.Hour)
	require.NoError(t, err)

	require.NoError(t, mgr.RevokeToken(ctx, token))
	_, err = mgr.ResolveToken(ctx, token)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	assert.NoError(t, mgr.RevokeToken(ctx, token))
	assert.NoError(t, mgr.RevokeToken(ctx, "never-issued"))
	assert.NoError(t, mgr.RevokeToken(ctx, ""))
}

func TestSessionManagerImpl_RevokeUserTokens(t *testing.T) {
	mgr, stores, _ := newTestSessionManager(t)
	ctx := context.Background()
	alice := seedUser(t, stores.users, "alice@example.com", "Abcdef1!")
	bob := seedUser(t, stores.users, "bob@example.com", "Abcdef1!")

	laptop, err := mgr.CreateToken(ctx, alice.ID, time.Hour)
	require.NoError(t, err)
	phone, err := mgr.CreateToken(ctx, alice.ID, 0)
	require.NoError(t, err)
	other, err := mgr.CreateToken(ctx, bob.ID, time.Hour)
	require.NoError(t, err)

	require.NoError(t, mgr.RevokeUserTokens(ctx, alice.ID))

	for _, token := range []string{laptop, phone} {
		_, err := mgr.ResolveToken(ctx, token)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	}
	resolved, err := mgr.ResolveToken(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, resolved.ID)
}

func TestSessionManagerImpl_Establish(t *testing.T) {
	mgr, stores, clock := newTestSessionManager(t)
	ctx := context.Background()
	user := seedUser(t, stores.users, "alice@example.com", "Abcdef1!")

	t.Run("without remember-me", func(t *testing.T) {
		handle := &domain.SessionHandle{}
		require.NoError(t, mgr.Establish(ctx, handle, user, false))

		require.NotNil(t, handle.Session)
		assert.True(t, handle.SessionChanged)
		assert.Len(t, handle.SessionID, 64)
		assert.False(t, handle.RememberIssued)
		assert.Equal(t, clock.Now(), handle.Session.CreatedAt)

		stored, err := stores.sessions.FindByID(ctx, handle.SessionID)
		require.NoError(t, err)
		assert.Equal(t, user.ID, stored.UserID)
		assert.Equal(t, "Alice", stored.FirstName)
		assert.True(t, stored.Authenticated)
	})

	t.Run("replaces the prior session", func(t *testing.T) {
		handle := &domain.SessionHandle{}
		require.NoError(t, mgr.Establish(ctx, handle, user, false))
		prior := handle.SessionID

		require.NoError(t, mgr.Establish(ctx, handle, user, false))
		assert.NotEqual(t, prior, handle.SessionID)

		_, err := stores.sessions.FindByID(ctx, prior)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("planted session id is discarded", func(t *testing.T) {
		handle := &domain.SessionHandle{SessionID: "attacker-chosen"}
		require.NoError(t, mgr.Establish(ctx, handle, user, false))
		assert.NotEqual(t, "attacker-chosen", handle.SessionID)
	})

	t.Run("with remember-me", func(t *testing.T) {
		handle := &domain.SessionHandle{}
		require.NoError(t, mgr.Establish(ctx, handle, user, true))

		assert.True(t, handle.RememberIssued)
		assert.Len(t, handle.RememberToken, 64)
		assert.Equal(t, clock.Now().Add(testRememberTTL), handle.RememberExpiresAt)

		resolved, err := mgr.ResolveToken(ctx, handle.RememberToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, resolved.ID)
	})

	t.Run("login without remember-me drops an old remember-me token", func(t *testing.T) {
		old, err := mgr.CreateToken(ctx, user.ID, testRememberTTL)
		require.NoError(t, err)

		handle := &domain.SessionHandle{RememberToken: old}
		require.NoError(t, mgr.Establish(ctx, handle, user, false))
		assert.True(t, handle.RememberCleared)

		_, err = mgr.ResolveToken(ctx, old)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})
}

func TestSessionManagerImpl_ResolveServerSession(t *testing.T) {
	t.Run("live session", func(t *testing.T) {
		mgr, stores, clock := newTestSessionManager(t)
		ctx := context.Background()
		user := seedUser(t, stores.users, "alice@example.com", "Abcdef1!")

		login := &domain.SessionHandle{}
		require.NoError(t, mgr.Establish(ctx, login, user, false))

		clock.Advance(10 * time.Minute)
		handle := &domain.SessionHandle{SessionID: login.SessionID}
		resolved, err := mgr.ResolveServerSession(ctx, handle)
		require.NoError(t, err)
		assert.Equal(t, user.ID, resolved.ID)
		assert.Equal(t, "alice@example.com", resolved.Email)
		assert.False(t, handle.SessionChanged)

		stored, err := stores.sessions.FindByID(ctx, login.SessionID)
		require.NoError(t, err)
		assert.Equal(t, clock.Now(), stored.LastActivityAt.UTC())
	})

	t.Run("remember-me re-establishes with a rotated token", func(t *testing.T) {
		mgr, stores, _ := newTestSessionManager(t)
		ctx := context.Background()
		user := seedUser(t, stores.users, "alice@example.com", "Abcdef1!")

		login := &domain.SessionHandle{}
		require.NoError(t, mgr.Establish(ctx, login, user, true))
		oldRemember := login.RememberToken

		// browser came back after the session expired
		stores.mr.FastForward(3 * time.Hour)
		handle := &domain.SessionHandle{SessionID: login.SessionID, RememberToken: oldRemember}
		resolved, err := mgr.ResolveServerSession(ctx, handle)
		require.NoError(t, err)
		assert.Equal(t, user.ID, resolved.ID)

		assert.True(t, handle.SessionChanged)
		assert.NotEqual(t, login.SessionID, handle.SessionID)
		assert.True(t, handle.RememberIssued)
		assert.NotEqual(t, oldRemember, handle.RememberToken)

		_, err = mgr.ResolveToken(ctx, oldRemember)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
		_, err = stores.sessions.FindByID(ctx, handle.SessionID)
		assert.NoError(t, err)
	})

	t.Run("expired remember-me token", func(t *testing.T) {
		mgr, stores, clock := newTestSessionManager(t)
		ctx := context.Background()
		user := seedUser(t, stores.users, "alice@example.com", "Abcdef1!")

		remember, err := mgr.CreateToken(ctx, user.ID, testRememberTTL)
		require.NoError(t, err)
		clock.Advance(testRememberTTL)

		handle := &domain.SessionHandle{RememberToken: remember}
		_, err = mgr.ResolveServerSession(ctx, handle)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
		assert.True(t, handle.RememberCleared)
		assert.Nil(t, handle.Session)
	})

	t.Run("stale session cookie", func(t *testing.T) {
		mgr, _, _ := newTestSessionManager(t)

		handle := &domain.SessionHandle{SessionID: "gone"}
		_, err := mgr.ResolveServerSession(context.Background(), handle)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
		assert.True(t, handle.SessionCleared)
	})

	t.Run("nothing presented", func(t *testing.T) {
		mgr, _, _ := newTestSessionManager(t)

		handle := &domain.SessionHandle{}
		_, err := mgr.ResolveServerSession(context.Background(), handle)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
		assert.False(t, handle.SessionCleared)
		assert.False(t, handle.RememberCleared)
	})
}

func TestSessionManagerImpl_Destroy(t *testing.T) {
	mgr, stores, _ := newTestSessionManager(t)
	ctx := context.Background()
	user := seedUser(t, stores.users, "alice@example.com", "Abcdef1!")

	handle := &domain.SessionHandle{}
	require.NoError(t, mgr.Establish(ctx, handle, user, true))
	sessionID := handle.SessionID
	remember := handle.RememberToken

	require.NoError(t, mgr.Destroy(ctx, handle))
	assert.True(t, handle.SessionCleared)
	assert.True(t, handle.RememberCleared)
	assert.Nil(t, handle.Session)

	_, err := stores.sessions.FindByID(ctx, sessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = mgr.ResolveToken(ctx, remember)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	// a second destroy is harmless
	assert.NoError(t, mgr.Destroy(ctx, handle))
	assert.NoError(t, mgr.Destroy(ctx, &domain.SessionHandle{}))
}

func TestSessionManagerImpl_StoreFailures(t *testing.T) {
	storeErr := domain.StoreError("redis", errors.New("connection refused"))
	user := createValidUser(t)

	t.Run("establish fails when the session cannot be saved", func(t *testing.T) {
		sessionRepo := mocks.NewMockServerSessionRepository()
		sessionRepo.SaveFunc = func(context.Context, *domain.ServerSession) error { return storeErr }
		mgr := NewSessionManager(mocks.NewMockUserRepository(), mocks.NewMockSessionTokenRepository(), sessionRepo, mocks.NewMockTokenGenerator(), SessionConfig{RememberTTL: testRememberTTL})

		handle := &domain.SessionHandle{}
		err := mgr.Establish(context.Background(), handle, user, true)
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		assert.Nil(t, handle.Session)
		assert.False(t, handle.RememberIssued)
	})

	t.Run("destroy reports failures but still clears cookies", func(t *testing.T) {
		tokenRepo := mocks.NewMockSessionTokenRepository()
		tokenRepo.DeleteFunc = func(context.Context, string) error { return storeErr }
		sessionRepo := mocks.NewMockServerSessionRepository()
		sessionRepo.DeleteFunc = func(context.Context, string) error { return storeErr }
		mgr := NewSessionManager(mocks.NewMockUserRepository(), tokenRepo, sessionRepo, mocks.NewMockTokenGenerator(), SessionConfig{RememberTTL: testRememberTTL})

		handle := &domain.SessionHandle{SessionID: "s1", RememberToken: "r1"}
		err := mgr.Destroy(context.Background(), handle)
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		assert.True(t, handle.SessionCleared)
		assert.True(t, handle.RememberCleared)
	})

	t.Run("token lookup failure is not reported as unauthenticated", func(t *testing.T) {
		tokenRepo := mocks.NewMockSessionTokenRepository()
		tokenRepo.FindByHashFunc = func(context.Context, string) (*domain.SessionToken, error) { return nil, storeErr }
		mgr := NewSessionManager(mocks.NewMockUserRepository(), tokenRepo, mocks.NewMockServerSessionRepository(), mocks.NewMockTokenGenerator(), SessionConfig{})

		_, err := mgr.ResolveToken(context.Background(), "token-1")
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		assert.NotErrorIs(t, err, domain.ErrUnauthenticated)
	})
}
