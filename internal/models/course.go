package models

import "time"

// CourseStatus is shown to users only. Access control never reads it.
type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "draft"
	CourseStatusActive    CourseStatus = "active"
	CourseStatusCompleted CourseStatus = "completed"
)

func (s CourseStatus) Valid() bool {
	switch s {
	case CourseStatusDraft, CourseStatusActive, CourseStatusCompleted:
		return true
	}
	return false
}

type Course struct {
	ID          uint64       `gorm:"primarykey" json:"id"`
	WorkspaceID uint64       `gorm:"not null;index" json:"workspace_id"`
	Name        string       `gorm:"type:varchar(100);not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	Status      CourseStatus `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	StartDate   *time.Time   `json:"start_date"`
	EndDate     *time.Time   `json:"end_date"`
	CreatedBy   uint64       `gorm:"not null" json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	// Relations
	Workspace Workspace      `gorm:"foreignKey:WorkspaceID" json:"-"`
	Members   []CourseMember `gorm:"foreignKey:CourseID" json:"members,omitempty"`
}

type CourseMember struct {
	CourseID uint64     `gorm:"primarykey" json:"course_id"`
	UserID   uint64     `gorm:"primarykey" json:"user_id"`
	Role     CourseRole `gorm:"type:varchar(20);not null" json:"role"`
	JoinedAt time.Time  `json:"joined_at"`

	// Relations
	Course Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// Module groups tasks inside a course.
type Module struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	CourseID    uint64    `gorm:"not null;index" json:"course_id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	OrderIndex  int       `gorm:"not null;default:0" json:"order_index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Tasks []Task `gorm:"foreignKey:ModuleID" json:"tasks,omitempty"`
}
