package models

import "time"

type Guide struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	TaskID       uint64    `gorm:"not null;uniqueIndex" json:"task_id"`
	Content      string    `gorm:"type:text" json:"content"`
	LastEditorID *uint64   `json:"last_editor_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	LastEditor  *User        `gorm:"foreignKey:LastEditorID" json:"last_editor,omitempty"`
	Attachments []Attachment `gorm:"foreignKey:GuideID" json:"attachments,omitempty"`
}

// Attachment is a file kept in the blob store and linked to a guide.
type Attachment struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	GuideID     uint64    `gorm:"not null;index" json:"guide_id"`
	FileName    string    `gorm:"type:varchar(255);not null" json:"file_name"`
	FileURL     string    `gorm:"type:varchar(1000);not null" json:"file_url"`
	StoragePath string    `gorm:"type:varchar(500);not null" json:"-"`
	FileSize    int64     `json:"file_size"`
	MimeType    string    `gorm:"type:varchar(100)" json:"mime_type"`
	UploadedBy  uint64    `gorm:"not null" json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}
