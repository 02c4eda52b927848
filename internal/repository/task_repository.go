package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/yukikurage/learning-platform-api/internal/database"
	"github.com/yukikurage/learning-platform-api/internal/models"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// CreateModule creates a module
func (r *GormTaskRepository) CreateModule(ctx context.Context, module *models.Module) error {
	return r.db.WithContext(ctx).Omit("Tasks").Create(module).Error
}

// FindModule finds a module inside a course
func (r *GormTaskRepository) FindModule(ctx context.Context, courseID, moduleID uint64) (*models.Module, error) {
	var module models.Module
	if err := r.db.WithContext(ctx).
		Where("id = ? AND course_id = ?", moduleID, courseID).
		First(&module).Error; err != nil {
		return nil, err
	}
	return &module, nil
}

// UpdateModule updates a module
func (r *GormTaskRepository) UpdateModule(ctx context.Context, module *models.Module) error {
	return r.db.WithContext(ctx).Omit("Tasks").Save(module).Error
}

// DeleteModule deletes a module with its tasks and returns the storage
// paths of the attachments removed with them
func (r *GormTaskRepository) DeleteModule(ctx context.Context, moduleID uint64) ([]string, error) {
	var paths []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taskIDs []uint64
		if err := tx.Model(&models.Task{}).Where("module_id = ?", moduleID).Pluck("id", &taskIDs).Error; err != nil {
			return err
		}
		var err error
		if paths, err = deleteTaskTrees(tx, taskIDs); err != nil {
			return err
		}
		return tx.Delete(&models.Module{}, moduleID).Error
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// ListModules lists the modules of a course in display order, tasks included
func (r *GormTaskRepository) ListModules(ctx context.Context, courseID uint64) ([]models.Module, error) {
	var modules []models.Module
	if err := r.db.WithContext(ctx).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC").Order("id ASC")
		}).
		Where("course_id = ?", courseID).
		Order("order_index ASC").Order("id ASC").
		Find(&modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Omit("Module").Create(task).Error
}

// FindByID finds a task inside a course
func (r *GormTaskRepository) FindByID(ctx context.Context, courseID, taskID uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).
		Where("id = ? AND course_id = ?", taskID, courseID).
		First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// Update updates a task
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Omit("Module").Save(task).Error
}

// Delete deletes a task with its products, guide, prompts and comments and
// returns the storage paths of the removed attachments
func (r *GormTaskRepository) Delete(ctx context.Context, taskID uint64) ([]string, error) {
	var paths []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		paths, err = deleteTaskTrees(tx, []uint64{taskID})
		return err
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task
	query := r.db.WithContext(ctx).Model(&models.Task{}).Where("module_id = ?", filter.ModuleID)

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("order_index ASC").Order("id ASC")
	if filter.Page.Limit > 0 {
		listQuery = listQuery.Scopes(database.Paginate(filter.Page))
	}

	if err := listQuery.Find(&tasks).Error; err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}
