package dto

import (
	"time"

	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/services"
)

// ModuleDTO represents a module in API responses
type ModuleDTO struct {
	ID          uint64        `json:"id"`
	CourseID    uint64        `json:"course_id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	OrderIndex  int           `json:"order_index"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Tasks       []TaskItemDTO `json:"tasks,omitempty"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID           uint64            `json:"id"`
	ModuleID     uint64            `json:"module_id"`
	CourseID     uint64            `json:"course_id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Status       models.TaskStatus `json:"status"`
	OrderIndex   int               `json:"order_index"`
	AssigneeRole string            `json:"assignee_role"`
	DueDate      *time.Time        `json:"due_date"`
	CreatedBy    uint64            `json:"created_by"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// TaskItemDTO represents a task in list responses (minimal data)
type TaskItemDTO struct {
	ID         uint64            `json:"id"`
	Name       string            `json:"name"`
	Status     models.TaskStatus `json:"status"`
	OrderIndex int               `json:"order_index"`
	DueDate    *time.Time        `json:"due_date"`
}

type ModuleRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description"`
	OrderIndex  *int    `json:"order_index" binding:"omitempty,gte=0"`
}

func (r ModuleRequest) Input() services.ModuleInput {
	return services.ModuleInput{
		Name:        r.Name,
		Description: r.Description,
		OrderIndex:  r.OrderIndex,
	}
}

// TaskRequest is used for both create and update. ClearDueDate removes the due date.
type TaskRequest struct {
	Name         *string    `json:"name" binding:"omitempty,max=200"`
	Description  *string    `json:"description"`
	OrderIndex   *int       `json:"order_index" binding:"omitempty,gte=0"`
	AssigneeRole *string    `json:"assignee_role" binding:"omitempty,max=20"`
	DueDate      *time.Time `json:"due_date"`
	ClearDueDate bool       `json:"clear_due_date"`
}

func (r TaskRequest) Input() services.TaskInput {
	return services.TaskInput{
		Name:         r.Name,
		Description:  r.Description,
		OrderIndex:   r.OrderIndex,
		AssigneeRole: r.AssigneeRole,
		DueDate:      r.DueDate,
		ClearDueDate: r.ClearDueDate,
	}
}

// ToModuleDTO converts a Module model to ModuleDTO
func ToModuleDTO(module models.Module) ModuleDTO {
	dto := ModuleDTO{
		ID:          module.ID,
		CourseID:    module.CourseID,
		Name:        module.Name,
		Description: module.Description,
		OrderIndex:  module.OrderIndex,
		CreatedAt:   module.CreatedAt,
		UpdatedAt:   module.UpdatedAt,
	}

	// Include tasks if preloaded
	if len(module.Tasks) > 0 {
		dto.Tasks = make([]TaskItemDTO, len(module.Tasks))
		for i, task := range module.Tasks {
			dto.Tasks[i] = ToTaskItemDTO(task)
		}
	}
	return dto
}

func ToModuleDTOs(modules []models.Module) []ModuleDTO {
	out := make([]ModuleDTO, len(modules))
	for i, m := range modules {
		out[i] = ToModuleDTO(m)
	}
	return out
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:           task.ID,
		ModuleID:     task.ModuleID,
		CourseID:     task.CourseID,
		Name:         task.Name,
		Description:  task.Description,
		Status:       task.Status,
		OrderIndex:   task.OrderIndex,
		AssigneeRole: task.AssigneeRole,
		DueDate:      task.DueDate,
		CreatedBy:    task.CreatedBy,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}
}

func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	out := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		out[i] = ToTaskDTO(t)
	}
	return out
}

// ToTaskItemDTO converts a Task model to TaskItemDTO
func ToTaskItemDTO(task models.Task) TaskItemDTO {
	return TaskItemDTO{
		ID:         task.ID,
		Name:       task.Name,
		Status:     task.Status,
		OrderIndex: task.OrderIndex,
		DueDate:    task.DueDate,
	}
}
