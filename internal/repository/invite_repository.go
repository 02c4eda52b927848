package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/learning-platform-api/internal/models"
)

var (
	// ErrInviteNotFound is returned when no invite has the given token.
	ErrInviteNotFound = errors.New("invite repository: invite not found")
	// ErrInviteExpired is returned when the invite is past its expiry.
	ErrInviteExpired = errors.New("invite repository: invite expired")
	// ErrInviteExhausted is returned when every use of the invite has been consumed.
	ErrInviteExhausted = errors.New("invite repository: invite exhausted")
	// ErrAlreadyMember is returned when the user already belongs to the invite's scope.
	ErrAlreadyMember = errors.New("invite repository: already a member")
)

// GormInviteRepository is a GORM implementation of InviteRepository
type GormInviteRepository struct {
	db *gorm.DB
}

// NewInviteRepository creates a new InviteRepository
func NewInviteRepository(db *gorm.DB) InviteRepository {
	return &GormInviteRepository{db: db}
}

// Create creates an invite token
func (r *GormInviteRepository) Create(ctx context.Context, invite *models.InviteToken) error {
	return r.db.WithContext(ctx).Create(invite).Error
}

// FindByToken finds an invite by its token string
func (r *GormInviteRepository) FindByToken(ctx context.Context, token string) (*models.InviteToken, error) {
	var invite models.InviteToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// Redeem validates the invite, consumes one use and inserts the membership.
// The use counter only moves through a conditional UPDATE, so used_count can
// never pass max_uses even when many redemptions race.
func (r *GormInviteRepository) Redeem(ctx context.Context, token string, userID uint64, now time.Time) (*models.InviteToken, error) {
	var invite models.InviteToken
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("token = ?", token).First(&invite).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInviteNotFound
			}
			return err
		}

		if invite.ExpiredAt(now) {
			return ErrInviteExpired
		}
		if invite.Exhausted() {
			return ErrInviteExhausted
		}

		member, err := isScopeMember(tx, invite.ScopeType, invite.ScopeID, userID)
		if err != nil {
			return err
		}
		if member {
			return ErrAlreadyMember
		}

		result := tx.Model(&models.InviteToken{}).
			Where("id = ? AND used_count < max_uses AND expires_at >= ?", invite.ID, now).
			UpdateColumn("used_count", gorm.Expr("used_count + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInviteExhausted
		}
		invite.UsedCount++

		if err := tx.Create(membershipFor(&invite, userID, now)).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyMember
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func isScopeMember(tx *gorm.DB, scope models.InviteScope, scopeID, userID uint64) (bool, error) {
	var count int64
	var query *gorm.DB
	switch scope {
	case models.InviteScopeWorkspace:
		query = tx.Model(&models.WorkspaceMember{}).Where("workspace_id = ? AND user_id = ?", scopeID, userID)
	case models.InviteScopeCourse:
		query = tx.Model(&models.CourseMember{}).Where("course_id = ? AND user_id = ?", scopeID, userID)
	default:
		return false, ErrInviteNotFound
	}

	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func membershipFor(invite *models.InviteToken, userID uint64, now time.Time) interface{} {
	if invite.ScopeType == models.InviteScopeCourse {
		return &models.CourseMember{
			CourseID: invite.ScopeID,
			UserID:   userID,
			Role:     models.CourseRole(invite.Role),
			JoinedAt: now,
		}
	}
	return &models.WorkspaceMember{
		WorkspaceID: invite.ScopeID,
		UserID:      userID,
		Role:        models.WorkspaceRole(invite.Role),
		JoinedAt:    now,
	}
}
