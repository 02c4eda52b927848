package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/repository"
	"github.com/yukikurage/learning-platform-api/internal/storage"
	"github.com/yukikurage/learning-platform-api/internal/utils"
)

// TaskService handles module and task business logic
type TaskService struct {
	tasks repository.TaskRepository
	blobs storage.BlobStore
	log   logrus.FieldLogger
}

// NewTaskService creates a new TaskService. blobs may be nil
func NewTaskService(tasks repository.TaskRepository, blobs storage.BlobStore, log logrus.FieldLogger) *TaskService {
	return &TaskService{tasks: tasks, blobs: blobs, log: log}
}

// ModuleInput represents input for creating or updating a module
type ModuleInput struct {
	Name        *string
	Description *string
	OrderIndex  *int
}

// CreateModule adds a module to a course
func (s *TaskService) CreateModule(ctx context.Context, courseID uint64, input ModuleInput) (*models.Module, error) {
	module := &models.Module{CourseID: courseID}
	if err := applyModuleInput(module, input); err != nil {
		return nil, err
	}

	if err := s.tasks.CreateModule(ctx, module); err != nil {
		return nil, wrap(err, "create module")
	}
	return module, nil
}

// GetModule returns a module of the course
func (s *TaskService) GetModule(ctx context.Context, courseID, moduleID uint64) (*models.Module, error) {
	module, err := s.tasks.FindModule(ctx, courseID, moduleID)
	if err != nil {
		return nil, notFound(err, ErrModuleNotFound, "find module")
	}
	return module, nil
}

// UpdateModule changes the module fields present in input
func (s *TaskService) UpdateModule(ctx context.Context, courseID, moduleID uint64, input ModuleInput) (*models.Module, error) {
	module, err := s.GetModule(ctx, courseID, moduleID)
	if err != nil {
		return nil, err
	}
	if err := applyModuleInput(module, input); err != nil {
		return nil, err
	}

	if err := s.tasks.UpdateModule(ctx, module); err != nil {
		return nil, wrap(err, "update module")
	}
	return module, nil
}

// DeleteModule removes a module and its tasks
func (s *TaskService) DeleteModule(ctx context.Context, courseID, moduleID uint64) error {
	if _, err := s.GetModule(ctx, courseID, moduleID); err != nil {
		return err
	}
	paths, err := s.tasks.DeleteModule(ctx, moduleID)
	if err != nil {
		return wrap(err, "delete module")
	}
	removeBlobs(ctx, s.blobs, s.log, paths)
	return nil
}

// ListModules returns the course modules with their tasks
func (s *TaskService) ListModules(ctx context.Context, courseID uint64) ([]models.Module, error) {
	modules, err := s.tasks.ListModules(ctx, courseID)
	if err != nil {
		return nil, wrap(err, "list modules")
	}
	return modules, nil
}

// TaskInput represents input for creating or updating a task
type TaskInput struct {
	Name         *string
	Description  *string
	OrderIndex   *int
	AssigneeRole *string
	DueDate      *time.Time
	ClearDueDate bool
}

// CreateTask adds a task to a module
func (s *TaskService) CreateTask(ctx context.Context, courseID, moduleID, creatorID uint64, input TaskInput) (*models.Task, error) {
	if _, err := s.GetModule(ctx, courseID, moduleID); err != nil {
		return nil, err
	}

	task := &models.Task{
		ModuleID:  moduleID,
		CourseID:  courseID,
		Status:    models.TaskStatusTodo,
		CreatedBy: creatorID,
	}
	if err := applyTaskInput(task, input); err != nil {
		return nil, err
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, wrap(err, "create task")
	}
	return task, nil
}

// GetTask returns a task of the course
func (s *TaskService) GetTask(ctx context.Context, courseID, taskID uint64) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, courseID, taskID)
	if err != nil {
		return nil, notFound(err, ErrTaskNotFound, "find task")
	}
	return task, nil
}

// UpdateTask changes the task fields present in input. Status is owned by
// the product lifecycle and cannot be set here.
func (s *TaskService) UpdateTask(ctx context.Context, courseID, taskID uint64, input TaskInput) (*models.Task, error) {
	task, err := s.GetTask(ctx, courseID, taskID)
	if err != nil {
		return nil, err
	}
	if err := applyTaskInput(task, input); err != nil {
		return nil, err
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, wrap(err, "update task")
	}
	return task, nil
}

// DeleteTask removes a task and everything produced for it
func (s *TaskService) DeleteTask(ctx context.Context, courseID, taskID uint64) error {
	if _, err := s.GetTask(ctx, courseID, taskID); err != nil {
		return err
	}
	paths, err := s.tasks.Delete(ctx, taskID)
	if err != nil {
		return wrap(err, "delete task")
	}
	removeBlobs(ctx, s.blobs, s.log, paths)
	return nil
}

// ListTasks returns a page of a module's tasks, optionally filtered by status
func (s *TaskService) ListTasks(ctx context.Context, courseID, moduleID uint64, status *models.TaskStatus, page utils.PaginationParams) ([]models.Task, int64, error) {
	if _, err := s.GetModule(ctx, courseID, moduleID); err != nil {
		return nil, 0, err
	}
	if status != nil && !status.Valid() {
		return nil, 0, invalidField("status", "must be one of [Todo Doing Review Done]")
	}

	tasks, total, err := s.tasks.List(ctx, repository.TaskFilter{
		ModuleID: moduleID,
		Status:   status,
		Page:     page,
	})
	if err != nil {
		return nil, 0, wrap(err, "list tasks")
	}
	return tasks, total, nil
}

func applyModuleInput(module *models.Module, input ModuleInput) error {
	if input.Name != nil {
		module.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		module.Description = *input.Description
	}
	if input.OrderIndex != nil {
		module.OrderIndex = *input.OrderIndex
	}
	if module.Name == "" {
		return invalidField("name", "is required")
	}
	return nil
}

func applyTaskInput(task *models.Task, input TaskInput) error {
	if input.Name != nil {
		task.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.OrderIndex != nil {
		task.OrderIndex = *input.OrderIndex
	}
	if input.AssigneeRole != nil {
		role := models.TeamRole(*input.AssigneeRole)
		if *input.AssigneeRole != "" && !role.Valid() {
			return invalidField("assignee_role", "must be one of [CEO CPO CMO COO CTO CFO]")
		}
		task.AssigneeRole = *input.AssigneeRole
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if task.Name == "" {
		return invalidField("name", "is required")
	}
	return nil
}
