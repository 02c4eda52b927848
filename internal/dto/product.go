package dto

import (
	"time"

	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/services"
)

// ProductDTO represents a work item's product. Review fields stay empty
// until a reviewer has moved the product out of Review.
type ProductDTO struct {
	ID              uint64              `json:"id"`
	TaskID          uint64              `json:"task_id"`
	TeamTaskID      uint64              `json:"team_task_id"`
	Content         string              `json:"product_content"`
	Status          models.TaskStatus   `json:"status"`
	CurrentVersion  int                 `json:"current_version"`
	LastEditorID    *uint64             `json:"last_editor_id"`
	LastEditor      *UserSummaryDTO     `json:"last_editor,omitempty"`
	SubmittedAt     *time.Time          `json:"submitted_at"`
	ReviewedAt      *time.Time          `json:"reviewed_at"`
	ReviewAction    models.ReviewAction `json:"review_action,omitempty"`
	Score           *int                `json:"score"`
	Rank            *int                `json:"rank"`
	FeedbackComment string              `json:"feedback_comment"`
	ReviewerID      *uint64             `json:"reviewer_id"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

type ProductVersionDTO struct {
	VersionNumber int             `json:"version_number"`
	Content       string          `json:"product_content"`
	Memo          string          `json:"version_memo"`
	EditorID      uint64          `json:"editor_id"`
	Editor        *UserSummaryDTO `json:"editor,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type SaveProductRequest struct {
	Content string `json:"product_content"`
	Memo    string `json:"version_memo" binding:"max=200"`
}

type ReviewProductRequest struct {
	ReviewAction    models.ReviewAction `json:"review_action" binding:"required"`
	Score           *int                `json:"score"`
	Rank            *int                `json:"rank"`
	FeedbackComment string              `json:"feedback_comment"`
}

func (r SaveProductRequest) Input() services.SaveInput {
	return services.SaveInput{Content: r.Content, Memo: r.Memo}
}

func (r ReviewProductRequest) Input() services.ReviewInput {
	return services.ReviewInput{
		Action:   r.ReviewAction,
		Score:    r.Score,
		Rank:     r.Rank,
		Feedback: r.FeedbackComment,
	}
}

func ToProductDTO(p models.Product) ProductDTO {
	return ProductDTO{
		ID:              p.ID,
		TaskID:          p.TaskID,
		TeamTaskID:      p.TeamTaskID,
		Content:         p.Content,
		Status:          p.Status,
		CurrentVersion:  p.CurrentVersion,
		LastEditorID:    p.LastEditorID,
		LastEditor:      userSummary(p.LastEditor),
		SubmittedAt:     p.SubmittedAt,
		ReviewedAt:      p.ReviewedAt,
		ReviewAction:    p.ReviewAction,
		Score:           p.ReviewScore,
		Rank:            p.ReviewRank,
		FeedbackComment: p.ReviewFeedback,
		ReviewerID:      p.ReviewerID,
		UpdatedAt:       p.UpdatedAt,
	}
}

func ToProductVersionDTOs(versions []models.ProductVersion) []ProductVersionDTO {
	out := make([]ProductVersionDTO, len(versions))
	for i, v := range versions {
		out[i] = ProductVersionDTO{
			VersionNumber: v.VersionNumber,
			Content:       v.Content,
			Memo:          v.Memo,
			EditorID:      v.EditorID,
			Editor:        userSummary(&v.Editor),
			CreatedAt:     v.CreatedAt,
		}
	}
	return out
}
