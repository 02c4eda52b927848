package services

import (
	"context"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/yukikurage/learning-platform-api/internal/errors"
	"github.com/yukikurage/learning-platform-api/internal/metrics"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/repository"
	"github.com/yukikurage/learning-platform-api/internal/testutil"
	"github.com/yukikurage/learning-platform-api/internal/utils"
)

func TestPrompt_AskListAndEvaluate(t *testing.T) {
	p := newProductScenario(t)
	ctx := context.Background()
	learner := p.participant.UserID

	p.generator.Reply = "Here is your function."
	prompt, err := p.prompts.Ask(ctx, p.item, learner, AskInput{PromptText: "Write a Go function", Model: "gpt-4"})
	require.NoError(t, err)
	assert.Equal(t, "Here is your function.", prompt.AIResponse)
	assert.Equal(t, "gpt-4", prompt.AIModel)
	assert.Equal(t, 42, prompt.TokensUsed)
	assert.Equal(t, int64(150), prompt.DurationMS)

	prompts, total, err := p.prompts.ListPrompts(ctx, p.item, learner, utils.NewPaginationParams(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, prompts, 1)

	others, total, err := p.prompts.ListPrompts(ctx, p.item, p.expert.UserID, utils.NewPaginationParams(1, 20))
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, others)

	p.generator.Reply = "not json at all"
	feedback, err := p.prompts.Evaluate(ctx, p.item, learner, prompt.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, feedback.PIQScore)
	assert.Equal(t, []string{"evaluation failed"}, feedback.Improvements)

	p.generator.Reply = `{"clarity_score":4,"specificity_score":4,"context_score":4,"format_score":4,"piq_score":80,"strengths":["concise"],"improvements":[],"ai_comment":"good"}`
	feedback, err = p.prompts.Evaluate(ctx, p.item, learner, prompt.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, feedback.PIQScore)

	var stored models.PromptFeedback
	require.NoError(t, p.db.Where("prompt_id = ?", prompt.ID).First(&stored).Error)
	assert.Equal(t, 80, stored.PIQScore)
	assert.Equal(t, []string{"concise"}, stored.Strengths)

	assert.Equal(t, float64(2), promtestutil.ToFloat64(p.metrics.AIRequestsTotal.WithLabelValues("evaluate", "success")))
}

func TestPrompt_EvaluateGuards(t *testing.T) {
	p := newProductScenario(t)
	ctx := context.Background()

	p.generator.Reply = "ok"
	prompt, err := p.prompts.Ask(ctx, p.item, p.participant.UserID, AskInput{PromptText: "hello"})
	require.NoError(t, err)

	_, err = p.prompts.Evaluate(ctx, p.item, p.expert.UserID, prompt.ID)
	assert.Equal(t, CodePromptOwnerRequired, apierrors.CodeOf(err))

	otherItem := repository.WorkItem{TaskID: p.item.TaskID, TeamTaskID: 77}
	_, err = p.prompts.Evaluate(ctx, otherItem, p.participant.UserID, prompt.ID)
	assert.Equal(t, CodePromptNotFound, apierrors.CodeOf(err))

	_, err = p.prompts.Evaluate(ctx, p.item, p.participant.UserID, prompt.ID+100)
	assert.Equal(t, CodePromptNotFound, apierrors.CodeOf(err))
}

func TestPrompt_Failures(t *testing.T) {
	p := newProductScenario(t)
	ctx := context.Background()

	_, err := p.prompts.Ask(ctx, p.item, p.participant.UserID, AskInput{PromptText: "   "})
	assert.Equal(t, apierrors.KindValidation, apierrors.KindOf(err))

	hot := float32(3)
	_, err = p.prompts.Ask(ctx, p.item, p.participant.UserID, AskInput{PromptText: "hi", Temperature: &hot})
	assert.Equal(t, apierrors.KindValidation, apierrors.KindOf(err))

	p.generator.Err = assert.AnError
	_, err = p.prompts.Ask(ctx, p.item, p.participant.UserID, AskInput{PromptText: "hi"})
	assert.Equal(t, apierrors.KindUpstream, apierrors.KindOf(err))

	disabled := NewPromptService(repository.NewPromptRepository(p.db), nil, metrics.NewNop(), testutil.NewLogger())
	_, err = disabled.Ask(ctx, p.item, p.participant.UserID, AskInput{PromptText: "hi"})
	assert.Equal(t, apierrors.KindUnavailable, apierrors.KindOf(err))
}

func TestPrompt_MaxTokensBounds(t *testing.T) {
	p := newProductScenario(t)
	ctx := context.Background()
	p.generator.Reply = "ok"

	for _, n := range []int{0, 1, MaxPromptTokens} {
		_, err := p.prompts.Ask(ctx, p.item, p.participant.UserID, AskInput{PromptText: "hi", MaxTokens: n})
		assert.NoError(t, err, "max_tokens %d", n)
	}

	for _, n := range []int{-1, MaxPromptTokens + 1} {
		_, err := p.prompts.Ask(ctx, p.item, p.participant.UserID, AskInput{PromptText: "hi", MaxTokens: n})
		require.Error(t, err, "max_tokens %d", n)

		var apiErr *apierrors.Error
		require.ErrorAs(t, err, &apiErr)
		require.Len(t, apiErr.Fields, 1)
		assert.Equal(t, "max_tokens", apiErr.Fields[0].Field)
		assert.Equal(t, "must be between 0 and 8192, 0 uses the default", apiErr.Fields[0].Message)
	}
}
