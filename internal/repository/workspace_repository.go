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

var (
	// ErrCreateWorkspace is returned when inserting the workspace row fails.
	ErrCreateWorkspace = errors.New("workspace repository: create workspace failed")
	// ErrCreateOwnerMembership is returned when inserting the owner membership fails.
	ErrCreateOwnerMembership = errors.New("workspace repository: create owner membership failed")
)

// GormWorkspaceRepository is a GORM implementation of WorkspaceRepository
type GormWorkspaceRepository struct {
	db *gorm.DB
}

// NewWorkspaceRepository creates a new WorkspaceRepository
func NewWorkspaceRepository(db *gorm.DB) WorkspaceRepository {
	return &GormWorkspaceRepository{db: db}
}

// CreateWithOwner creates the workspace and the Owner membership atomically.
// Both sentinels keep the underlying driver error in the chain so callers can
// still detect gorm.ErrDuplicatedKey.
func (r *GormWorkspaceRepository) CreateWithOwner(ctx context.Context, workspace *models.Workspace, owner *models.WorkspaceMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Owner", "Members").Create(workspace).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrCreateWorkspace, err)
		}

		owner.WorkspaceID = workspace.ID
		if err := tx.Omit("Workspace", "User").Create(owner).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrCreateOwnerMembership, err)
		}

		return nil
	})
}

// FindByID finds a workspace by ID with optional preloading
func (r *GormWorkspaceRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Workspace, error) {
	var workspace models.Workspace
	query := r.db.WithContext(ctx)
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&workspace, id).Error; err != nil {
		return nil, err
	}
	return &workspace, nil
}

// FindByName finds a workspace by its unique name
func (r *GormWorkspaceRepository) FindByName(ctx context.Context, name string) (*models.Workspace, error) {
	var workspace models.Workspace
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&workspace).Error; err != nil {
		return nil, err
	}
	return &workspace, nil
}

// Update updates a workspace
func (r *GormWorkspaceRepository) Update(ctx context.Context, workspace *models.Workspace) error {
	return r.db.WithContext(ctx).Omit("Owner", "Members").Save(workspace).Error
}

// Delete deletes the workspace with its courses, memberships and invites in
// one transaction and returns the storage paths of the removed attachments
func (r *GormWorkspaceRepository) Delete(ctx context.Context, id uint64) ([]string, error) {
	var paths []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var courseIDs []uint64
		if err := tx.Model(&models.Course{}).Where("workspace_id = ?", id).Pluck("id", &courseIDs).Error; err != nil {
			return err
		}
		var err error
		if paths, err = deleteCourseTrees(tx, courseIDs); err != nil {
			return err
		}

		if err := tx.Where("scope_type = ? AND scope_id = ?", models.InviteScopeWorkspace, id).
			Delete(&models.InviteToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("workspace_id = ?", id).Delete(&models.WorkspaceMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Workspace{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// FindMember finds a specific workspace member
func (r *GormWorkspaceRepository) FindMember(ctx context.Context, workspaceID, userID uint64) (*models.WorkspaceMember, error) {
	var member models.WorkspaceMember
	if err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// RemoveMember removes a member from a workspace
func (r *GormWorkspaceRepository) RemoveMember(ctx context.Context, workspaceID, userID uint64) error {
	return r.db.WithContext(ctx).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Delete(&models.WorkspaceMember{}).Error
}

// ListMembers lists members of a workspace, owners first, then by join time
func (r *GormWorkspaceRepository) ListMembers(ctx context.Context, workspaceID uint64, page utils.PaginationParams) ([]models.WorkspaceMember, int64, error) {
	var members []models.WorkspaceMember
	query := r.db.WithContext(ctx).Model(&models.WorkspaceMember{}).Where("workspace_id = ?", workspaceID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("User").
		Order(fmt.Sprintf("CASE WHEN role = '%s' THEN 0 ELSE 1 END", models.WorkspaceRoleOwner)).
		Order("joined_at ASC").
		Scopes(database.Paginate(page)).
		Find(&members).Error; err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

// ListByUser lists the memberships of a user with their workspaces
func (r *GormWorkspaceRepository) ListByUser(ctx context.Context, userID uint64) ([]models.WorkspaceMember, error) {
	var members []models.WorkspaceMember
	if err := r.db.WithContext(ctx).
		Preload("Workspace").
		Where("user_id = ?", userID).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// CountMembers counts members per workspace
func (r *GormWorkspaceRepository) CountMembers(ctx context.Context, workspaceIDs ...uint64) (map[uint64]int64, error) {
	counts := make(map[uint64]int64, len(workspaceIDs))
	if len(workspaceIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		WorkspaceID uint64
		Total       int64
	}
	if err := r.db.WithContext(ctx).Model(&models.WorkspaceMember{}).
		Select("workspace_id, COUNT(*) AS total").
		Where("workspace_id IN ?", workspaceIDs).
		Group("workspace_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.WorkspaceID] = row.Total
	}
	return counts, nil
}
