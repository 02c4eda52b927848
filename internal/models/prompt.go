package models

import "time"

type PromptConversation struct {
	ID         uint64    `gorm:"primarykey" json:"id"`
	TaskID     uint64    `gorm:"not null;index:idx_prompts_item" json:"task_id"`
	TeamTaskID uint64    `gorm:"not null;default:0;index:idx_prompts_item" json:"team_task_id"`
	UserID     uint64    `gorm:"not null;index" json:"user_id"`
	PromptText string    `gorm:"type:text;not null" json:"prompt_text"`
	AIResponse string    `gorm:"type:text" json:"ai_response"`
	AIModel    string    `gorm:"type:varchar(50)" json:"ai_model"`
	TokensUsed int       `json:"tokens_used"`
	DurationMS int64     `json:"execution_time_ms"`
	CreatedAt  time.Time `json:"created_at"`

	Feedback *PromptFeedback `gorm:"foreignKey:PromptID" json:"feedback,omitempty"`
}

// PromptFeedback is the AI evaluation of a single prompt.
type PromptFeedback struct {
	ID               uint64    `gorm:"primarykey" json:"id"`
	PromptID         uint64    `gorm:"not null;uniqueIndex" json:"prompt_id"`
	ClarityScore     int       `json:"clarity_score"`
	SpecificityScore int       `json:"specificity_score"`
	ContextScore     int       `json:"context_score"`
	FormatScore      int       `json:"format_score"`
	PIQScore         int       `json:"piq_score"`
	Strengths        []string  `gorm:"serializer:json" json:"strengths"`
	Improvements     []string  `gorm:"serializer:json" json:"improvements"`
	AIComment        string    `gorm:"type:text" json:"ai_comment"`
	CreatedAt        time.Time `json:"created_at"`
}
