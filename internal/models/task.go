package models

import "time"

type TaskStatus string

const (
	TaskStatusTodo   TaskStatus = "Todo"
	TaskStatusDoing  TaskStatus = "Doing"
	TaskStatusReview TaskStatus = "Review"
	TaskStatusDone   TaskStatus = "Done"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusDoing, TaskStatusReview, TaskStatusDone:
		return true
	}
	return false
}

type Task struct {
	ID           uint64     `gorm:"primarykey" json:"id"`
	ModuleID     uint64     `gorm:"not null;index" json:"module_id"`
	CourseID     uint64     `gorm:"not null;index" json:"course_id"`
	Name         string     `gorm:"type:varchar(200);not null" json:"name"`
	Description  string     `gorm:"type:text" json:"description"`
	Status       TaskStatus `gorm:"type:varchar(20);not null;default:'Todo'" json:"status"`
	OrderIndex   int        `gorm:"not null;default:0" json:"order_index"`
	AssigneeRole string     `gorm:"type:varchar(20)" json:"assignee_role"`
	DueDate      *time.Time `json:"due_date"`
	CreatedBy    uint64     `gorm:"not null" json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Module Module `gorm:"foreignKey:ModuleID" json:"-"`
}
