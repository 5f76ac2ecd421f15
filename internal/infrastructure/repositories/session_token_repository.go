package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/you/cookbookauth/domain"
)

// SessionTokenRepositoryImpl implements domain.SessionTokenRepository using GORM
type SessionTokenRepositoryImpl struct {
	db *gorm.DB
}

// DBSessionToken stores a token by its SHA-256 hash, never the raw value
type DBSessionToken struct {
	TokenHash string `gorm:"primaryKey;size:64"`
	UserID    string `gorm:"index;size:36;not null"`
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// TableName returns the table name for GORM
func (DBSessionToken) TableName() string {
	return "session_tokens"
}

// NewSessionTokenRepository creates a new session token repository
func NewSessionTokenRepository(db *gorm.DB) domain.SessionTokenRepository {
	return &SessionTokenRepositoryImpl{db: db}
}

// Create implements domain.SessionTokenRepository
func (r *SessionTokenRepositoryImpl) Create(ctx context.Context, tokenHash string, token *domain.SessionToken) error {
	row := &DBSessionToken{
		TokenHash: tokenHash,
		UserID:    token.UserID,
		ExpiresAt: token.ExpiresAt,
		CreatedAt: token.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return domain.StoreError("create session token", err)
	}
	return nil
}

// FindByHash implements domain.SessionTokenRepository. Expiry is left to the caller.
func (r *SessionTokenRepositoryImpl) FindByHash(ctx context.Context, tokenHash string) (*domain.SessionToken, error) {
	var row DBSessionToken
	err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, domain.StoreError("find session token", err)
	}
	return &domain.SessionToken{
		UserID:    row.UserID,
		ExpiresAt: row.ExpiresAt,
		CreatedAt: row.CreatedAt,
	}, nil
}

// Delete implements domain.SessionTokenRepository. Deleting a missing token is not an error.
func (r *SessionTokenRepositoryImpl) Delete(ctx context.Context, tokenHash string) error {
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&DBSessionToken{}).Error; err != nil {
		return domain.StoreError("delete session token", err)
	}
	return nil
}

// DeleteByUser implements domain.SessionTokenRepository
func (r *SessionTokenRepositoryImpl) DeleteByUser(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&DBSessionToken{}).Error; err != nil {
		return domain.StoreError("delete user session tokens", err)
	}
	return nil
}

// DeleteExpired implements domain.SessionTokenRepository
func (r *SessionTokenRepositoryImpl) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Delete(&DBSessionToken{})
	if res.Error != nil {
		return 0, domain.StoreError("delete expired session tokens", res.Error)
	}
	return res.RowsAffected, nil
}
