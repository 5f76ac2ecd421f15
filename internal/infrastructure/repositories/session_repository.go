package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/you/cookbookauth/domain"
)

// SessionRepositoryImpl implements domain.ServerSessionRepository using Redis.
// Every save pushes the idle expiry forward.
type SessionRepositoryImpl struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(client redis.UniversalClient, ttl time.Duration) domain.ServerSessionRepository {
	return &SessionRepositoryImpl{
		client: client,
		prefix: "session:",
		ttl:    ttl,
	}
}

// Save implements domain.ServerSessionRepository
func (r *SessionRepositoryImpl) Save(ctx context.Context, session *domain.ServerSession) error {
	key := r.prefix + session.ID
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return domain.StoreError("save session", err)
	}
	return nil
}

// FindByID implements domain.ServerSessionRepository
func (r *SessionRepositoryImpl) FindByID(ctx context.Context, sessionID string) (*domain.ServerSession, error) {
	key := r.prefix + sessionID
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, domain.StoreError("find session", err)
	}

	var session domain.ServerSession
	if err := json.Unmarshal(data, &session); err != nil {
		// Unreadable sessions are dropped rather than trusted
		r.client.Del(ctx, key)
		return nil, domain.ErrSessionNotFound
	}

	return &session, nil
}

// Delete implements domain.ServerSessionRepository
func (r *SessionRepositoryImpl) Delete(ctx context.Context, sessionID string) error {
	key := r.prefix + sessionID
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return domain.StoreError("delete session", err)
	}
	return nil
}
