package models

import "time"

type Team struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	CourseID    uint64    `gorm:"not null;index" json:"course_id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Members []TeamMember `gorm:"foreignKey:TeamID" json:"members,omitempty"`
}

type TeamMember struct {
	TeamID   uint64    `gorm:"primarykey" json:"team_id"`
	UserID   uint64    `gorm:"primarykey" json:"user_id"`
	Role     TeamRole  `gorm:"type:varchar(20);not null" json:"role"`
	JoinedAt time.Time `json:"joined_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TeamTask is a course task exported to one team. It tracks the team's own progress.
type TeamTask struct {
	ID        uint64     `gorm:"primarykey" json:"id"`
	TeamID    uint64     `gorm:"not null;uniqueIndex:idx_team_tasks_team_task" json:"team_id"`
	TaskID    uint64     `gorm:"not null;uniqueIndex:idx_team_tasks_team_task;index" json:"task_id"`
	Status    TaskStatus `gorm:"type:varchar(20);not null;default:'Todo'" json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Task Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
}
