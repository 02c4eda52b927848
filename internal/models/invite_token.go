package models

import "time"

// InviteScope names the kind of resource an invite grants membership to.
type InviteScope string

const (
	InviteScopeWorkspace InviteScope = "workspace"
	InviteScopeCourse    InviteScope = "course"
)

type InviteToken struct {
	ID        uint64      `gorm:"primarykey" json:"id"`
	ScopeType InviteScope `gorm:"type:varchar(20);not null;index:idx_invite_tokens_scope" json:"scope_type"`
	ScopeID   uint64      `gorm:"not null;index:idx_invite_tokens_scope" json:"scope_id"`
	Role      string      `gorm:"type:varchar(20);not null" json:"role"`
	Token     string      `gorm:"type:varchar(64);uniqueIndex;not null" json:"token"`
	MaxUses   int         `gorm:"not null;default:100" json:"max_uses"`
	UsedCount int         `gorm:"not null;default:0" json:"used_count"`
	ExpiresAt time.Time   `gorm:"not null" json:"expires_at"`
	CreatedBy uint64      `gorm:"not null" json:"created_by"`
	CreatedAt time.Time   `json:"created_at"`
}

// ExpiredAt reports whether the token is past its expiry at the given instant.
func (t *InviteToken) ExpiredAt(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Exhausted reports whether every use has been consumed.
func (t *InviteToken) Exhausted() bool {
	return t.UsedCount >= t.MaxUses
}

// RemainingUses returns how many redemptions are left.
func (t *InviteToken) RemainingUses() int {
	if t.Exhausted() {
		return 0
	}
	return t.MaxUses - t.UsedCount
}
