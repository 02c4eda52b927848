package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/yukikurage/learning-platform-api/internal/models"
)

// GormCommentRepository is a GORM implementation of CommentRepository
type GormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &GormCommentRepository{db: db}
}

// Create creates a comment with its mentions in one transaction
func (r *GormCommentRepository) Create(ctx context.Context, comment *models.Comment, mentionIDs []uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Author", "Mentions").Create(comment).Error; err != nil {
			return err
		}
		if len(mentionIDs) == 0 {
			return nil
		}

		mentions := make([]models.CommentMention, len(mentionIDs))
		for i, userID := range mentionIDs {
			mentions[i] = models.CommentMention{CommentID: comment.ID, UserID: userID}
		}
		if err := tx.Create(&mentions).Error; err != nil {
			return err
		}
		comment.Mentions = mentions
		return nil
	})
}

// FindByID finds a comment by ID
func (r *GormCommentRepository) FindByID(ctx context.Context, id uint64) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Mentions").
		First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// List lists the comments of a work item in posting order
func (r *GormCommentRepository) List(ctx context.Context, filter CommentFilter) ([]models.Comment, error) {
	var comments []models.Comment
	query := r.db.WithContext(ctx).
		Where("task_id = ? AND team_task_id = ?", filter.Item.TaskID, filter.Item.TeamTaskID)

	if filter.TabType != nil {
		query = query.Where("tab_type = ?", *filter.TabType)
	}
	if filter.PromptUserID != nil {
		query = query.Where("prompt_user_id = ?", *filter.PromptUserID)
	}

	if err := query.
		Preload("Author").
		Preload("Mentions").
		Order("created_at ASC").Order("id ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// UpdateText replaces the text of a comment and marks it edited
func (r *GormCommentRepository) UpdateText(ctx context.Context, id uint64, text string) error {
	return r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"comment_text": text,
			"is_edited":    true,
		}).Error
}

// Delete soft deletes a comment
func (r *GormCommentRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&models.Comment{}, id).Error
}
