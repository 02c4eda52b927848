package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yukikurage/learning-platform-api/internal/models"
)

// GormGuideRepository is a GORM implementation of GuideRepository
type GormGuideRepository struct {
	db *gorm.DB
}

// NewGuideRepository creates a new GuideRepository
func NewGuideRepository(db *gorm.DB) GuideRepository {
	return &GormGuideRepository{db: db}
}

// FindByTask finds the guide of a task with attachments
func (r *GormGuideRepository) FindByTask(ctx context.Context, taskID uint64) (*models.Guide, error) {
	var guide models.Guide
	if err := r.db.WithContext(ctx).
		Preload("LastEditor").
		Preload("Attachments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("task_id = ?", taskID).
		First(&guide).Error; err != nil {
		return nil, err
	}
	return &guide, nil
}

// Upsert writes the guide content of a task
func (r *GormGuideRepository) Upsert(ctx context.Context, taskID uint64, content string, editorID uint64) (*models.Guide, error) {
	guide := models.Guide{
		TaskID:       taskID,
		Content:      content,
		LastEditorID: &editorID,
	}

	if err := r.db.WithContext(ctx).
		Omit("LastEditor", "Attachments").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "last_editor_id", "updated_at"}),
		}).
		Create(&guide).Error; err != nil {
		return nil, err
	}

	return r.FindByTask(ctx, taskID)
}

// Ensure returns the guide of a task, creating an empty one if needed
func (r *GormGuideRepository) Ensure(ctx context.Context, taskID uint64) (*models.Guide, error) {
	var guide models.Guide
	if err := r.db.WithContext(ctx).
		Omit("LastEditor", "Attachments").
		Where(models.Guide{TaskID: taskID}).
		FirstOrCreate(&guide).Error; err != nil {
		return nil, err
	}
	return &guide, nil
}

// CreateAttachment creates an attachment record
func (r *GormGuideRepository) CreateAttachment(ctx context.Context, attachment *models.Attachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

// FindAttachment finds an attachment of a guide
func (r *GormGuideRepository) FindAttachment(ctx context.Context, guideID, attachmentID uint64) (*models.Attachment, error) {
	var attachment models.Attachment
	if err := r.db.WithContext(ctx).
		Where("id = ? AND guide_id = ?", attachmentID, guideID).
		First(&attachment).Error; err != nil {
		return nil, err
	}
	return &attachment, nil
}

// DeleteAttachment deletes an attachment record
func (r *GormGuideRepository) DeleteAttachment(ctx context.Context, attachmentID uint64) error {
	return r.db.WithContext(ctx).Delete(&models.Attachment{}, attachmentID).Error
}
