package dto

import (
	"time"

	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/services"
)

type TeamDTO struct {
	ID          uint64          `json:"id"`
	CourseID    uint64          `json:"course_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Members     []TeamMemberDTO `json:"members"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type TeamMemberDTO struct {
	UserID   uint64          `json:"user_id"`
	Role     models.TeamRole `json:"role"`
	JoinedAt time.Time       `json:"joined_at"`
	User     *UserSummaryDTO `json:"user,omitempty"`
}

// TeamTaskDTO is a task as exported to one team
type TeamTaskDTO struct {
	ID     uint64            `json:"id"`
	TeamID uint64            `json:"team_id"`
	TaskID uint64            `json:"task_id"`
	Status models.TaskStatus `json:"status"`
	Task   *TaskDTO          `json:"task,omitempty"`
}

type TeamMemberRequest struct {
	UserID uint64          `json:"user_id" binding:"required"`
	Role   models.TeamRole `json:"role" binding:"required,oneof=CEO CPO CMO COO CTO CFO"`
}

type TeamRequest struct {
	Name        *string             `json:"name" binding:"omitempty,max=100"`
	Description *string             `json:"description"`
	Members     []TeamMemberRequest `json:"members" binding:"omitempty,dive"`
}

func (r TeamMemberRequest) Input() services.TeamMemberInput {
	return services.TeamMemberInput{UserID: r.UserID, Role: r.Role}
}

func (r TeamRequest) Input() services.TeamInput {
	input := services.TeamInput{Name: r.Name, Description: r.Description}
	for _, m := range r.Members {
		input.Members = append(input.Members, m.Input())
	}
	return input
}

// ExportResponse reports how many team tasks an export created
type ExportResponse struct {
	Created int64 `json:"created"`
}

func ToTeamDTO(team models.Team) TeamDTO {
	dto := TeamDTO{
		ID:          team.ID,
		CourseID:    team.CourseID,
		Name:        team.Name,
		Description: team.Description,
		Members:     make([]TeamMemberDTO, len(team.Members)),
		CreatedAt:   team.CreatedAt,
		UpdatedAt:   team.UpdatedAt,
	}
	for i, m := range team.Members {
		dto.Members[i] = TeamMemberDTO{
			UserID:   m.UserID,
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
			User:     userSummary(&m.User),
		}
	}
	return dto
}

func ToTeamDTOs(teams []models.Team) []TeamDTO {
	out := make([]TeamDTO, len(teams))
	for i, t := range teams {
		out[i] = ToTeamDTO(t)
	}
	return out
}

func ToTeamTaskDTO(tt models.TeamTask) TeamTaskDTO {
	dto := TeamTaskDTO{
		ID:     tt.ID,
		TeamID: tt.TeamID,
		TaskID: tt.TaskID,
		Status: tt.Status,
	}
	if tt.Task.ID != 0 {
		task := ToTaskDTO(tt.Task)
		dto.Task = &task
	}
	return dto
}

func ToTeamTaskDTOs(tasks []models.TeamTask) []TeamTaskDTO {
	out := make([]TeamTaskDTO, len(tasks))
	for i, t := range tasks {
		out[i] = ToTeamTaskDTO(t)
	}
	return out
}
