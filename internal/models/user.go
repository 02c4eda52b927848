package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a local account. Its credential lives with the identity provider.
type User struct {
	ID                 uint64         `gorm:"primarykey" json:"id"`
	Email              string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	NickName           string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"nick_name"`
	RealName           string         `gorm:"type:varchar(50);not null" json:"real_name"`
	ProfileImage       string         `gorm:"type:varchar(500)" json:"profile_image"`
	PhoneNumber        string         `gorm:"type:varchar(20)" json:"phone_number"`
	IsSystemAdmin      bool           `gorm:"not null;default:false" json:"is_system_admin"`
	FailedAttemptCount int            `gorm:"not null;default:0" json:"-"`
	LockedUntil        *time.Time     `json:"-"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Workspaces []WorkspaceMember `gorm:"foreignKey:UserID" json:"-"`
}

// LockedAt reports whether the account is locked at the given instant.
func (u *User) LockedAt(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}
