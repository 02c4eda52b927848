package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yukikurage/learning-platform-api/internal/database"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/utils"
)

// GormPromptRepository is a GORM implementation of PromptRepository
type GormPromptRepository struct {
	db *gorm.DB
}

// NewPromptRepository creates a new PromptRepository
func NewPromptRepository(db *gorm.DB) PromptRepository {
	return &GormPromptRepository{db: db}
}

// Create stores a prompt and its answer
func (r *GormPromptRepository) Create(ctx context.Context, prompt *models.PromptConversation) error {
	return r.db.WithContext(ctx).Omit("Feedback").Create(prompt).Error
}

// FindByID finds a prompt by ID with its feedback
func (r *GormPromptRepository) FindByID(ctx context.Context, id uint64) (*models.PromptConversation, error) {
	var prompt models.PromptConversation
	if err := r.db.WithContext(ctx).Preload("Feedback").First(&prompt, id).Error; err != nil {
		return nil, err
	}
	return &prompt, nil
}

// List lists a user's prompts for a work item, newest first
func (r *GormPromptRepository) List(ctx context.Context, item WorkItem, userID uint64, page utils.PaginationParams) ([]models.PromptConversation, int64, error) {
	var prompts []models.PromptConversation
	query := r.db.WithContext(ctx).Model(&models.PromptConversation{}).
		Where("task_id = ? AND team_task_id = ? AND user_id = ?", item.TaskID, item.TeamTaskID, userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Feedback").
		Order("created_at DESC").Order("id DESC").
		Scopes(database.Paginate(page)).
		Find(&prompts).Error; err != nil {
		return nil, 0, err
	}
	return prompts, total, nil
}

// SaveFeedback creates or replaces the feedback of a prompt
func (r *GormPromptRepository) SaveFeedback(ctx context.Context, feedback *models.PromptFeedback) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "prompt_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"clarity_score", "specificity_score", "context_score", "format_score",
				"piq_score", "strengths", "improvements", "ai_comment",
			}),
		}).
		Create(feedback).Error
}
