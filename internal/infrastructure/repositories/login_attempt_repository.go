package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/you/cookbookauth/domain"
)

// LoginAttemptRepositoryImpl implements domain.LoginAttemptRepository using GORM
type LoginAttemptRepositoryImpl struct {
	db *gorm.DB
}

// DBLoginAttempt is one row per email with recorded failures
type DBLoginAttempt struct {
	Email         string `gorm:"primaryKey;size:255"`
	Attempts      int    `gorm:"not null;default:0"`
	LockedUntil   *time.Time
	LastAttemptAt time.Time
}

// TableName returns the table name for GORM
func (DBLoginAttempt) TableName() string {
	return "login_attempts"
}

// NewLoginAttemptRepository creates a new login attempt repository
func NewLoginAttemptRepository(db *gorm.DB) domain.LoginAttemptRepository {
	return &LoginAttemptRepositoryImpl{db: db}
}

// Find implements domain.LoginAttemptRepository
func (r *LoginAttemptRepositoryImpl) Find(ctx context.Context, email string) (*domain.LoginAttempt, error) {
	var row DBLoginAttempt
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAttemptNotFound
		}
		return nil, domain.StoreError("find login attempt", err)
	}
	return row.toDomain(), nil
}

// Increment implements domain.LoginAttemptRepository. The row is created if
// missing and then updated under a row lock inside one transaction, so two
// concurrent failures cannot both read the same count.
func (r *LoginAttemptRepositoryImpl) Increment(ctx context.Context, email string, now time.Time, maxAttempts int, lockFor time.Duration) (*domain.LoginAttempt, error) {
	var row DBLoginAttempt
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := DBLoginAttempt{Email: email, LastAttemptAt: now}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("email = ?", email).First(&row).Error; err != nil {
			return err
		}

		if row.LockedUntil != nil && !row.LockedUntil.After(now) {
			row.Attempts = 0
			row.LockedUntil = nil
		}
		row.Attempts++
		row.LastAttemptAt = now
		if row.Attempts >= maxAttempts && row.LockedUntil == nil {
			until := now.Add(lockFor)
			row.LockedUntil = &until
		}

		return tx.Model(&DBLoginAttempt{}).Where("email = ?", email).Updates(map[string]interface{}{
			"attempts":        row.Attempts,
			"locked_until":    row.LockedUntil,
			"last_attempt_at": row.LastAttemptAt,
		}).Error
	})
	if err != nil {
		return nil, domain.StoreError("increment login attempts", err)
	}
	return row.toDomain(), nil
}

// Delete implements domain.LoginAttemptRepository. Missing rows are not an error.
func (r *LoginAttemptRepositoryImpl) Delete(ctx context.Context, email string) error {
	if err := r.db.WithContext(ctx).Where("email = ?", email).Delete(&DBLoginAttempt{}).Error; err != nil {
		return domain.StoreError("delete login attempts", err)
	}
	return nil
}

func (row *DBLoginAttempt) toDomain() *domain.LoginAttempt {
	return &domain.LoginAttempt{
		Email:         row.Email,
		Attempts:      row.Attempts,
		LockedUntil:   row.LockedUntil,
		LastAttemptAt: row.LastAttemptAt,
	}
}
