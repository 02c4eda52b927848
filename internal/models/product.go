package models

import "time"

// ReviewAction is the verdict an Expert or Manager gives a submitted product.
type ReviewAction string

const (
	ReviewActionApprove         ReviewAction = "approve"
	ReviewActionReject          ReviewAction = "reject"
	ReviewActionRequestRevision ReviewAction = "request_revision"
)

func (a ReviewAction) Valid() bool {
	switch a {
	case ReviewActionApprove, ReviewActionReject, ReviewActionRequestRevision:
		return true
	}
	return false
}

// Product is the work output of one task, either individual (TeamTaskID == 0)
// or owned by a team task.
type Product struct {
	ID             uint64       `gorm:"primarykey" json:"id"`
	TaskID         uint64       `gorm:"not null;uniqueIndex:idx_products_owner" json:"task_id"`
	TeamTaskID     uint64       `gorm:"not null;default:0;uniqueIndex:idx_products_owner" json:"team_task_id"`
	Content        string       `gorm:"type:text" json:"content"`
	Status         TaskStatus   `gorm:"type:varchar(20);not null;default:'Todo'" json:"status"`
	CurrentVersion int          `gorm:"not null;default:0" json:"current_version"`
	LastEditorID   *uint64      `json:"last_editor_id"`
	SubmittedAt    *time.Time   `json:"submitted_at"`
	ReviewedAt     *time.Time   `json:"reviewed_at"`
	ReviewAction   ReviewAction `gorm:"type:varchar(20)" json:"review_action"`
	ReviewScore    *int         `json:"review_score"`
	ReviewRank     *int         `json:"review_rank"`
	ReviewFeedback string       `gorm:"type:text" json:"review_feedback"`
	ReviewerID     *uint64      `json:"reviewer_id"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`

	LastEditor *User `gorm:"foreignKey:LastEditorID" json:"last_editor,omitempty"`
}

type ProductVersion struct {
	ID            uint64    `gorm:"primarykey" json:"id"`
	ProductID     uint64    `gorm:"not null;uniqueIndex:idx_product_versions_number" json:"product_id"`
	VersionNumber int       `gorm:"not null;uniqueIndex:idx_product_versions_number" json:"version_number"`
	Content       string    `gorm:"type:text" json:"content"`
	Memo          string    `gorm:"type:varchar(200)" json:"memo"`
	EditorID      uint64    `gorm:"not null" json:"editor_id"`
	CreatedAt     time.Time `json:"created_at"`

	Editor User `gorm:"foreignKey:EditorID" json:"editor,omitempty"`
}
