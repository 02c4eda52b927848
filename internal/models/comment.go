package models

import (
	"time"

	"gorm.io/gorm"
)

// TabType names the collaborative tab a comment belongs to.
type TabType string

const (
	TabTypeGuide   TabType = "guide"
	TabTypePrompt  TabType = "prompt"
	TabTypeProduct TabType = "product"
)

func (t TabType) Valid() bool {
	return t == TabTypeGuide || t == TabTypePrompt || t == TabTypeProduct
}

type Comment struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	TaskID       uint64         `gorm:"not null;index:idx_comments_item" json:"task_id"`
	TeamTaskID   uint64         `gorm:"not null;default:0;index:idx_comments_item" json:"team_task_id"`
	TabType      TabType        `gorm:"type:varchar(20);not null" json:"tab_type"`
	PromptUserID *uint64        `json:"prompt_user_id"`
	AuthorID     uint64         `gorm:"not null" json:"author_id"`
	Text         string         `gorm:"column:comment_text;type:text;not null" json:"comment_text"`
	ParentID     *uint64        `gorm:"index" json:"parent_comment_id"`
	IsEdited     bool           `gorm:"not null;default:false" json:"is_edited"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Author   User             `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Mentions []CommentMention `gorm:"foreignKey:CommentID" json:"mentions,omitempty"`
}

type CommentMention struct {
	CommentID uint64 `gorm:"primarykey" json:"comment_id"`
	UserID    uint64 `gorm:"primarykey" json:"user_id"`
}
