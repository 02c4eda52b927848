package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/learning-platform-api/internal/models"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByNickName finds a user by display handle
func (r *GormUserRepository) FindByNickName(ctx context.Context, nickName string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("nick_name = ?", nickName).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update saves the profile columns of a user. Lockout columns are owned by
// RecordLoginFailure and ResetLoginFailures and are never written here.
func (r *GormUserRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Model(user).
		Select("nick_name", "real_name", "phone_number", "profile_image", "updated_at").
		Updates(user).Error
}

// RecordLoginFailure increments the counter with a single UPDATE so that
// concurrent failures are never lost, then locks the account if the threshold
// was reached and no lock is currently running.
func (r *GormUserRepository) RecordLoginFailure(ctx context.Context, userID uint64, threshold int, lockUntil, now time.Time) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumn("failed_attempt_count", gorm.Expr("failed_attempt_count + 1")).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.User{}).
			Where("id = ? AND failed_attempt_count >= ?", userID, threshold).
			Where("locked_until IS NULL OR locked_until <= ?", now).
			UpdateColumn("locked_until", lockUntil).Error; err != nil {
			return err
		}

		return tx.First(&user, userID).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ResetLoginFailures clears the failure counter and any lock
func (r *GormUserRepository) ResetLoginFailures(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumns(map[string]interface{}{
			"failed_attempt_count": 0,
			"locked_until":         nil,
		}).Error
}
