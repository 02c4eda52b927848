package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	apierrors "github.com/yukikurage/learning-platform-api/internal/errors"
	"github.com/yukikurage/learning-platform-api/internal/metrics"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/repository"
	"github.com/yukikurage/learning-platform-api/internal/utils"
)

const (
	CodePromptNotFound      = "PROMPT_NOT_FOUND"
	CodePromptOwnerRequired = "PROMPT_OWNER_REQUIRED"

	MaxPromptModelLength = 50
	MaxPromptTokens      = 8192
)

var (
	ErrPromptNotFound        = apierrors.NewNotFound(CodePromptNotFound, "Prompt not found")
	ErrPromptOwnerRequired   = apierrors.NewForbidden(CodePromptOwnerRequired, "Only the author of a prompt can request its evaluation")
	ErrGeneratorUnconfigured = apierrors.NewUnavailable("Text generation is not configured")
)

// AskInput is one prompt sent to the text generator.
type AskInput struct {
	PromptText  string
	Model       string
	Temperature *float32
	MaxTokens   int
}

// PromptService runs prompts of the Prompt tab and their evaluations.
type PromptService struct {
	prompts   repository.PromptRepository
	generator TextGenerator
	metrics   *metrics.Metrics
	log       logrus.FieldLogger
}

// NewPromptService creates a new PromptService. generator may be nil, in
// which case generation and evaluation are unavailable.
func NewPromptService(prompts repository.PromptRepository, generator TextGenerator, m *metrics.Metrics, log logrus.FieldLogger) *PromptService {
	return &PromptService{
		prompts:   prompts,
		generator: generator,
		metrics:   m,
		log:       log,
	}
}

// Ask sends a prompt to the generator and stores the conversation.
func (s *PromptService) Ask(ctx context.Context, item repository.WorkItem, userID uint64, input AskInput) (*models.PromptConversation, error) {
	if strings.TrimSpace(input.PromptText) == "" {
		return nil, invalidField("prompt_text", "is required")
	}
	if len(input.Model) > MaxPromptModelLength {
		return nil, invalidField("ai_model", "is too long")
	}
	if input.Temperature != nil && (*input.Temperature < 0 || *input.Temperature > 2) {
		return nil, invalidField("temperature", "must be between 0 and 2")
	}
	if input.MaxTokens < 0 || input.MaxTokens > MaxPromptTokens {
		return nil, invalidField("max_tokens", fmt.Sprintf("must be between 0 and %d, 0 uses the default", MaxPromptTokens))
	}
	if s.generator == nil {
		return nil, ErrGeneratorUnconfigured
	}

	generation, err := s.generator.Generate(ctx, input.PromptText, input.Model, GenerateOptions{
		Temperature: input.Temperature,
		MaxTokens:   input.MaxTokens,
	})
	if err != nil {
		s.metrics.AIRequestsTotal.WithLabelValues("generate", "error").Inc()
		return nil, apierrors.NewUpstream("Text generation failed", err)
	}
	s.metrics.AIRequestsTotal.WithLabelValues("generate", "success").Inc()

	prompt := &models.PromptConversation{
		TaskID:     item.TaskID,
		TeamTaskID: item.TeamTaskID,
		UserID:     userID,
		PromptText: input.PromptText,
		AIResponse: generation.Text,
		AIModel:    generation.Model,
		TokensUsed: generation.TokensUsed,
		DurationMS: generation.Duration.Milliseconds(),
	}
	if err := s.prompts.Create(ctx, prompt); err != nil {
		return nil, wrap(err, "store prompt")
	}
	return prompt, nil
}

// ListPrompts returns the caller's prompt history for a work item.
func (s *PromptService) ListPrompts(ctx context.Context, item repository.WorkItem, userID uint64, page utils.PaginationParams) ([]models.PromptConversation, int64, error) {
	prompts, total, err := s.prompts.List(ctx, item, userID, page)
	if err != nil {
		return nil, 0, wrap(err, "list prompts")
	}
	return prompts, total, nil
}

// Evaluate scores a stored prompt and keeps the result as its feedback.
func (s *PromptService) Evaluate(ctx context.Context, item repository.WorkItem, userID, promptID uint64) (*models.PromptFeedback, error) {
	prompt, err := s.prompts.FindByID(ctx, promptID)
	if err != nil {
		return nil, notFound(err, ErrPromptNotFound, "find prompt")
	}
	if prompt.TaskID != item.TaskID || prompt.TeamTaskID != item.TeamTaskID {
		return nil, ErrPromptNotFound
	}
	if prompt.UserID != userID {
		return nil, ErrPromptOwnerRequired
	}
	if s.generator == nil {
		return nil, ErrGeneratorUnconfigured
	}

	evaluation, _, err := EvaluatePrompt(ctx, s.generator, prompt.PromptText, prompt.AIResponse, s.log)
	if err != nil {
		s.metrics.AIRequestsTotal.WithLabelValues("evaluate", "error").Inc()
		return nil, apierrors.NewUpstream("Prompt evaluation failed", err)
	}
	s.metrics.AIRequestsTotal.WithLabelValues("evaluate", "success").Inc()

	feedback := &models.PromptFeedback{
		PromptID:         prompt.ID,
		ClarityScore:     evaluation.ClarityScore,
		SpecificityScore: evaluation.SpecificityScore,
		ContextScore:     evaluation.ContextScore,
		FormatScore:      evaluation.FormatScore,
		PIQScore:         evaluation.PIQScore,
		Strengths:        evaluation.Strengths,
		Improvements:     evaluation.Improvements,
		AIComment:        evaluation.AIComment,
	}
	if err := s.prompts.SaveFeedback(ctx, feedback); err != nil {
		return nil, wrap(err, "save prompt feedback")
	}
	return feedback, nil
}
