package dto

import (
	"time"

	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/services"
)

type CommentDTO struct {
	ID             uint64          `json:"id"`
	TaskID         uint64          `json:"task_id"`
	TeamTaskID     uint64          `json:"team_task_id"`
	TabType        models.TabType  `json:"tab_type"`
	PromptUserID   *uint64         `json:"prompt_user_id"`
	Author         *UserSummaryDTO `json:"author,omitempty"`
	AuthorID       uint64          `json:"author_id"`
	Text           string          `json:"comment_text"`
	ParentID       *uint64         `json:"parent_comment_id"`
	IsEdited       bool            `json:"is_edited"`
	MentionUserIDs []uint64        `json:"mention_user_ids"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type CreateCommentRequest struct {
	TabType        models.TabType `json:"tab_type" binding:"required"`
	PromptUserID   *uint64        `json:"prompt_user_id"`
	Text           string         `json:"comment_text" binding:"required"`
	ParentID       *uint64        `json:"parent_comment_id"`
	MentionUserIDs []uint64       `json:"mention_user_ids"`
}

type UpdateCommentRequest struct {
	Text string `json:"comment_text" binding:"required"`
}

func (r CreateCommentRequest) Input() services.CommentInput {
	return services.CommentInput{
		TabType:      r.TabType,
		PromptUserID: r.PromptUserID,
		Text:         r.Text,
		ParentID:     r.ParentID,
		MentionIDs:   r.MentionUserIDs,
	}
}

func ToCommentDTO(c models.Comment) CommentDTO {
	dto := CommentDTO{
		ID:             c.ID,
		TaskID:         c.TaskID,
		TeamTaskID:     c.TeamTaskID,
		TabType:        c.TabType,
		PromptUserID:   c.PromptUserID,
		Author:         userSummary(&c.Author),
		AuthorID:       c.AuthorID,
		Text:           c.Text,
		ParentID:       c.ParentID,
		IsEdited:       c.IsEdited,
		MentionUserIDs: make([]uint64, len(c.Mentions)),
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
	for i, m := range c.Mentions {
		dto.MentionUserIDs[i] = m.UserID
	}
	return dto
}

func ToCommentDTOs(comments []models.Comment) []CommentDTO {
	out := make([]CommentDTO, len(comments))
	for i, c := range comments {
		out[i] = ToCommentDTO(c)
	}
	return out
}
