package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// ErrGeneratorUnavailable is returned when no text generator is configured.
var ErrGeneratorUnavailable = errors.New("ai: text generator not configured")

// GenerateOptions tunes one generation. Zero values fall back to the
// generator's defaults.
type GenerateOptions struct {
	Temperature  *float32
	MaxTokens    int
	SystemPrompt string
}

// Generation is the generator's answer to a prompt.
type Generation struct {
	Text       string
	TokensUsed int
	Model      string
	Duration   time.Duration
}

// TextGenerator produces text for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt, model string, opts GenerateOptions) (*Generation, error)
}

// openAIModelPrefixes match the chat models the completion API serves.
var openAIModelPrefixes = []string{"gpt-", "chatgpt-", "o1", "o3", "o4"}

// AIConfig configures AIService. ModelPrefixes lists the model name prefixes
// the backend serves; a requested model matching none of them is replaced by
// DefaultModel. Empty means the OpenAI chat models.
type AIConfig struct {
	APIKey             string
	BaseURL            string
	DefaultModel       string
	DefaultTemperature float32
	DefaultMaxTokens   int
	ModelPrefixes      []string
}

type AIService struct {
	client *openai.Client
	cfg    AIConfig
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewAIService(cfg AIConfig, log logrus.FieldLogger) *AIService {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = openai.GPT4o
	}
	if cfg.DefaultMaxTokens <= 0 {
		cfg.DefaultMaxTokens = 2048
	}
	if len(cfg.ModelPrefixes) == 0 {
		cfg.ModelPrefixes = openAIModelPrefixes
	}
	return &AIService{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// Generate sends prompt to the chat completion API. An empty or unserved
// model uses the configured default; Generation.Model reports the one used.
func (s *AIService) Generate(ctx context.Context, prompt, model string, opts GenerateOptions) (*Generation, error) {
	if s == nil || s.client == nil {
		return nil, ErrGeneratorUnavailable
	}
	model = s.resolveModel(model)
	temperature := s.cfg.DefaultTemperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	maxTokens := s.cfg.DefaultMaxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}

	var messages []openai.ChatCompletionMessage
	if opts.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: opts.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	if reasoningModel(model) {
		// Reasoning models only take the default temperature and MaxCompletionTokens.
		req.Temperature = 0
		req.MaxTokens = 0
		req.MaxCompletionTokens = maxTokens
	}

	start := s.now()
	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return &Generation{
		Text:       resp.Choices[0].Message.Content,
		TokensUsed: resp.Usage.TotalTokens,
		Model:      model,
		Duration:   s.now().Sub(start),
	}, nil
}

func (s *AIService) resolveModel(model string) string {
	if model == "" {
		return s.cfg.DefaultModel
	}
	lower := strings.ToLower(model)
	for _, prefix := range s.cfg.ModelPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return model
		}
	}
	s.log.WithFields(logrus.Fields{
		"requested_model": model,
		"model":           s.cfg.DefaultModel,
	}).Warn("Model not served by the completion API, using default")
	return s.cfg.DefaultModel
}

func reasoningModel(model string) bool {
	for _, prefix := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

// Evaluation scores a prompt. Sub-scores are 1..5, PIQ is 0..100.
type Evaluation struct {
	ClarityScore     int      `json:"clarity_score"`
	SpecificityScore int      `json:"specificity_score"`
	ContextScore     int      `json:"context_score"`
	FormatScore      int      `json:"format_score"`
	PIQScore         int      `json:"piq_score"`
	Strengths        []string `json:"strengths"`
	Improvements     []string `json:"improvements"`
	AIComment        string   `json:"ai_comment"`
}

const evaluationPrompt = `Evaluate the following prompt written by a learner.

[User prompt]
%s

[AI response]
%s

Rate each criterion on a 1-5 scale:
1. clarity: how clear the prompt is
2. specificity: how specific the prompt is
3. context: whether enough background is provided
4. format: whether the desired output format is stated

Also give a PIQ score (0-100), strengths and improvements.

Reply with JSON only, in this shape:
{
  "clarity_score": number,
  "specificity_score": number,
  "context_score": number,
  "format_score": number,
  "piq_score": number,
  "strengths": string[],
  "improvements": string[],
  "ai_comment": string
}`

// EvaluatePrompt asks the generator to score a prompt and its answer. An
// answer that is not valid evaluation JSON yields FallbackEvaluation.
func EvaluatePrompt(ctx context.Context, gen TextGenerator, promptText, aiResponse string, log logrus.FieldLogger) (*Evaluation, *Generation, error) {
	generation, err := gen.Generate(ctx, fmt.Sprintf(evaluationPrompt, promptText, aiResponse), "", GenerateOptions{})
	if err != nil {
		return nil, nil, err
	}

	evaluation, err := parseEvaluation(generation.Text)
	if err != nil {
		log.WithError(err).Warn("Prompt evaluation was not valid JSON, using fallback scores")
		return FallbackEvaluation(generation.Text), generation, nil
	}
	return evaluation, generation, nil
}

// FallbackEvaluation is the neutral score set used when the evaluation
// cannot be parsed.
func FallbackEvaluation(raw string) *Evaluation {
	return &Evaluation{
		ClarityScore:     3,
		SpecificityScore: 3,
		ContextScore:     3,
		FormatScore:      3,
		PIQScore:         60,
		Strengths:        []string{},
		Improvements:     []string{"evaluation failed"},
		AIComment:        raw,
	}
}

func parseEvaluation(text string) (*Evaluation, error) {
	content := strings.TrimSpace(text)
	// Models often wrap JSON in a markdown fence.
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}

	var evaluation Evaluation
	if err := json.Unmarshal([]byte(content), &evaluation); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}
	for _, score := range []int{evaluation.ClarityScore, evaluation.SpecificityScore, evaluation.ContextScore, evaluation.FormatScore} {
		if score < 1 || score > 5 {
			return nil, fmt.Errorf("sub-score %d out of range", score)
		}
	}
	if evaluation.PIQScore < 0 || evaluation.PIQScore > 100 {
		return nil, fmt.Errorf("piq score %d out of range", evaluation.PIQScore)
	}
	if evaluation.Strengths == nil {
		evaluation.Strengths = []string{}
	}
	if evaluation.Improvements == nil {
		evaluation.Improvements = []string{}
	}
	return &evaluation, nil
}
