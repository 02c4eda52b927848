package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yukikurage/learning-platform-api/internal/database"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/utils"
)

// ErrCreateManagerMembership is returned when the creator's Manager membership cannot be inserted.
var ErrCreateManagerMembership = errors.New("course repository: create manager membership failed")

// GormCourseRepository is a GORM implementation of CourseRepository
type GormCourseRepository struct {
	db *gorm.DB
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &GormCourseRepository{db: db}
}

// CreateWithManager creates a course and its creator's Manager membership in one transaction
func (r *GormCourseRepository) CreateWithManager(ctx context.Context, course *models.Course, manager *models.CourseMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Workspace", "Members").Create(course).Error; err != nil {
			return err
		}

		manager.CourseID = course.ID
		if err := tx.Omit("Course", "User").Create(manager).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrCreateManagerMembership, err)
		}
		return nil
	})
}

// FindByID finds a course by ID
func (r *GormCourseRepository) FindByID(ctx context.Context, id uint64) (*models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// Update updates a course
func (r *GormCourseRepository) Update(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Omit("Workspace", "Members").Save(course).Error
}

// Delete deletes a course and everything under it and returns the storage
// paths of the removed attachments
func (r *GormCourseRepository) Delete(ctx context.Context, id uint64) ([]string, error) {
	var paths []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		paths, err = deleteCourseTrees(tx, []uint64{id})
		return err
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// ListByWorkspace lists courses of a workspace, newest first
func (r *GormCourseRepository) ListByWorkspace(ctx context.Context, workspaceID uint64, page utils.PaginationParams) ([]models.Course, int64, error) {
	var courses []models.Course
	query := r.db.WithContext(ctx).Model(&models.Course{}).Where("workspace_id = ?", workspaceID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Order("id DESC").
		Scopes(database.Paginate(page)).
		Find(&courses).Error; err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

// FindMember finds a specific course member
func (r *GormCourseRepository) FindMember(ctx context.Context, courseID, userID uint64) (*models.CourseMember, error) {
	var member models.CourseMember
	if err := r.db.WithContext(ctx).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers lists all members of a course with their accounts
func (r *GormCourseRepository) ListMembers(ctx context.Context, courseID uint64) ([]models.CourseMember, error) {
	var members []models.CourseMember
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("course_id = ?", courseID).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListUserRoles returns the caller's role in each of the given courses they belong to
func (r *GormCourseRepository) ListUserRoles(ctx context.Context, userID uint64, courseIDs []uint64) (map[uint64]models.CourseRole, error) {
	roles := make(map[uint64]models.CourseRole, len(courseIDs))
	if len(courseIDs) == 0 {
		return roles, nil
	}

	var members []models.CourseMember
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id IN ?", userID, courseIDs).
		Find(&members).Error; err != nil {
		return nil, err
	}

	for _, m := range members {
		roles[m.CourseID] = m.Role
	}
	return roles, nil
}

// CountMembersAmong counts how many of userIDs are members of the course
func (r *GormCourseRepository) CountMembersAmong(ctx context.Context, courseID uint64, userIDs []uint64) (int64, error) {
	var count int64
	if len(userIDs) == 0 {
		return 0, nil
	}

	err := r.db.WithContext(ctx).Model(&models.CourseMember{}).
		Where("course_id = ? AND user_id IN ?", courseID, userIDs).
		Count(&count).Error
	return count, err
}
