package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/cookbookauth/domain"
	"github.com/you/cookbookauth/internal/infrastructure/auth"
	"github.com/you/cookbookauth/internal/mocks"
)

func TestCSRFServiceImpl_GetOrCreate(t *testing.T) {
	tests := []struct {
		name          string
		handle        *domain.SessionHandle
		saveErr       error
		expectSave    bool
		expectedToken string
		expectedError error
	}{
		{
			name:          "no session",
			handle:        &domain.SessionHandle{},
			expectedError: domain.ErrUnauthenticated,
		},
		{
			name:          "cached token is reused",
			handle:        &domain.SessionHandle{Session: &domain.ServerSession{ID: "s1", CSRFToken: "cached"}},
			expectedToken: "cached",
		},
		{
			name:       "new token is minted and saved",
			handle:     &domain.SessionHandle{Session: &domain.ServerSession{ID: "s1"}},
			expectSave: true,
		},
		{
			name:          "save failure leaves the session untouched",
			handle:        &domain.SessionHandle{Session: &domain.ServerSession{ID: "s1"}},
			saveErr:       domain.StoreError("save session", errors.New("timeout")),
			expectSave:    true,
			expectedError: domain.ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessionRepo := mocks.NewMockServerSessionRepository()
			saved := false
			sessionRepo.SaveFunc = func(ctx context.Context, session *domain.ServerSession) error {
				saved = true
				return tt.saveErr
			}
			svc := NewCSRFService(sessionRepo, auth.NewTokenGenerator())

			token, err := svc.GetOrCreate(context.Background(), tt.handle)
			assert.Equal(t, tt.expectSave, saved)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				if tt.handle.Session != nil {
					assert.Empty(t, tt.handle.Session.CSRFToken)
				}
				return
			}
			require.NoError(t, err)
			if tt.expectedToken != "" {
				assert.Equal(t, tt.expectedToken, token)
			} else {
				assert.Len(t, token, 64)
			}
			assert.Equal(t, token, tt.handle.Session.CSRFToken)
		})
	}
}

func TestCSRFServiceImpl_StableForSessionLifetime(t *testing.T) {
	stores := setupStores(t)
	ctx := context.Background()
	svc := NewCSRFService(stores.sessions, auth.NewTokenGenerator())

	session := &domain.ServerSession{ID: "s1", UserID: "user-1", Authenticated: true}
	require.NoError(t, stores.sessions.Save(ctx, session))

	first, err := svc.GetOrCreate(ctx, &domain.SessionHandle{SessionID: "s1", Session: session})
	require.NoError(t, err)

	// a later request loads the session from the store
	reloaded, err := stores.sessions.FindByID(ctx, "s1")
	require.NoError(t, err)
	second, err := svc.GetOrCreate(ctx, &domain.SessionHandle{SessionID: "s1", Session: reloaded})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// a recreated session gets a new token
	fresh := &domain.ServerSession{ID: "s2", UserID: "user-1", Authenticated: true}
	third, err := svc.GetOrCreate(ctx, &domain.SessionHandle{SessionID: "s2", Session: fresh})
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestCSRFServiceImpl_Validate(t *testing.T) {
	svc := NewCSRFService(mocks.NewMockServerSessionRepository(), auth.NewTokenGenerator())
	withToken := &domain.SessionHandle{Session: &domain.ServerSession{ID: "s1", CSRFToken: "abc123"}}

	tests := []struct {
		name          string
		handle        *domain.SessionHandle
		token         string
		expectedError error
	}{
		{name: "matching token", handle: withToken, token: "abc123"},
		{name: "wrong token", handle: withToken, token: "abc124", expectedError: domain.ErrCSRFMismatch},
		{name: "missing token", handle: withToken, token: "", expectedError: domain.ErrCSRFMismatch},
		{name: "no session", handle: &domain.SessionHandle{}, token: "abc123", expectedError: domain.ErrCSRFMismatch},
		{
			name:          "session without token",
			handle:        &domain.SessionHandle{Session: &domain.ServerSession{ID: "s1"}},
			token:         "",
			expectedError: domain.ErrCSRFMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Validate(tt.handle, tt.token)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			assert.NoError(t, err)
		})
	}
}
