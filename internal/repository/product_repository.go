package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yukikurage/learning-platform-api/internal/database"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/utils"
)

// ErrStaleProduct is returned when the product is no longer in the expected status.
var ErrStaleProduct = errors.New("product repository: product status changed concurrently")

// GormProductRepository is a GORM implementation of ProductRepository
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new ProductRepository
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &GormProductRepository{db: db}
}

// Find finds the product of a work item
func (r *GormProductRepository) Find(ctx context.Context, item WorkItem) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Preload("LastEditor").
		Where("task_id = ? AND team_task_id = ?", item.TaskID, item.TeamTaskID).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Apply runs one lifecycle step in a transaction:
//  1. a product leaving Todo is created on first use;
//  2. the row is updated only while it is still in change.From;
//  3. the snapshot, if any, is stored under the new version number;
//  4. the owning task or team task takes the new status.
func (r *GormProductRepository) Apply(ctx context.Context, change ProductChange) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if change.From == models.TaskStatusTodo {
			seed := models.Product{
				TaskID:     change.Item.TaskID,
				TeamTaskID: change.Item.TeamTaskID,
				Status:     models.TaskStatusTodo,
			}
			if err := tx.Omit("LastEditor").Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
				return err
			}
		}

		updates := map[string]interface{}{"status": change.To}
		for column, value := range change.Updates {
			updates[column] = value
		}
		if change.BumpVersion {
			updates["current_version"] = gorm.Expr("current_version + 1")
		}

		result := tx.Model(&models.Product{}).
			Where("task_id = ? AND team_task_id = ? AND status = ?", change.Item.TaskID, change.Item.TeamTaskID, change.From).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleProduct
		}

		if err := tx.Preload("LastEditor").
			Where("task_id = ? AND team_task_id = ?", change.Item.TaskID, change.Item.TeamTaskID).
			First(&product).Error; err != nil {
			return err
		}

		if change.Snapshot != nil {
			snapshot := *change.Snapshot
			snapshot.ProductID = product.ID
			snapshot.VersionNumber = product.CurrentVersion
			if err := tx.Omit("Editor").Create(&snapshot).Error; err != nil {
				return err
			}
		}

		if change.From == change.To {
			return nil
		}
		if change.Item.TeamTaskID != 0 {
			return tx.Model(&models.TeamTask{}).Where("id = ?", change.Item.TeamTaskID).
				Update("status", change.To).Error
		}
		return tx.Model(&models.Task{}).Where("id = ?", change.Item.TaskID).
			Update("status", change.To).Error
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListVersions lists saved versions, newest first
func (r *GormProductRepository) ListVersions(ctx context.Context, productID uint64, page utils.PaginationParams) ([]models.ProductVersion, int64, error) {
	var versions []models.ProductVersion
	query := r.db.WithContext(ctx).Model(&models.ProductVersion{}).Where("product_id = ?", productID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Editor").
		Order("version_number DESC").
		Scopes(database.Paginate(page)).
		Find(&versions).Error; err != nil {
		return nil, 0, err
	}
	return versions, total, nil
}
