package dto

import (
	"time"

	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/services"
)

// PromptDTO is one prompt and the generated answer
type PromptDTO struct {
	ID              uint64       `json:"id"`
	TaskID          uint64       `json:"task_id"`
	TeamTaskID      uint64       `json:"team_task_id"`
	UserID          uint64       `json:"user_id"`
	PromptText      string       `json:"prompt_text"`
	AIResponse      string       `json:"ai_response"`
	AIModel         string       `json:"ai_model"`
	TokensUsed      int          `json:"tokens_used"`
	ExecutionTimeMS int64        `json:"execution_time_ms"`
	CreatedAt       time.Time    `json:"created_at"`
	Feedback        *FeedbackDTO `json:"feedback,omitempty"`
}

// FeedbackDTO is the AI evaluation of a prompt
type FeedbackDTO struct {
	PromptID         uint64    `json:"prompt_id"`
	ClarityScore     int       `json:"clarity_score"`
	SpecificityScore int       `json:"specificity_score"`
	ContextScore     int       `json:"context_score"`
	FormatScore      int       `json:"format_score"`
	PIQScore         int       `json:"piq_score"`
	Strengths        []string  `json:"strengths"`
	Improvements     []string  `json:"improvements"`
	AIComment        string    `json:"ai_comment"`
	CreatedAt        time.Time `json:"created_at"`
}

type AskPromptRequest struct {
	PromptText  string   `json:"prompt_text" binding:"required"`
	AIModel     string   `json:"ai_model" binding:"max=50"`
	Temperature *float32 `json:"temperature"`
	MaxTokens   int      `json:"max_tokens"`
}

func (r AskPromptRequest) Input() services.AskInput {
	return services.AskInput{
		PromptText:  r.PromptText,
		Model:       r.AIModel,
		Temperature: r.Temperature,
		MaxTokens:   r.MaxTokens,
	}
}

func ToPromptDTO(p models.PromptConversation) PromptDTO {
	dto := PromptDTO{
		ID:              p.ID,
		TaskID:          p.TaskID,
		TeamTaskID:      p.TeamTaskID,
		UserID:          p.UserID,
		PromptText:      p.PromptText,
		AIResponse:      p.AIResponse,
		AIModel:         p.AIModel,
		TokensUsed:      p.TokensUsed,
		ExecutionTimeMS: p.DurationMS,
		CreatedAt:       p.CreatedAt,
	}
	if p.Feedback != nil {
		fb := ToFeedbackDTO(*p.Feedback)
		dto.Feedback = &fb
	}
	return dto
}

func ToPromptDTOs(prompts []models.PromptConversation) []PromptDTO {
	out := make([]PromptDTO, len(prompts))
	for i, p := range prompts {
		out[i] = ToPromptDTO(p)
	}
	return out
}

func ToFeedbackDTO(f models.PromptFeedback) FeedbackDTO {
	strengths, improvements := f.Strengths, f.Improvements
	if strengths == nil {
		strengths = []string{}
	}
	if improvements == nil {
		improvements = []string{}
	}
	return FeedbackDTO{
		PromptID:         f.PromptID,
		ClarityScore:     f.ClarityScore,
		SpecificityScore: f.SpecificityScore,
		ContextScore:     f.ContextScore,
		FormatScore:      f.FormatScore,
		PIQScore:         f.PIQScore,
		Strengths:        strengths,
		Improvements:     improvements,
		AIComment:        f.AIComment,
		CreatedAt:        f.CreatedAt,
	}
}
