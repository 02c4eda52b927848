package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/learning-platform-api/internal/dto"
	apierrors "github.com/yukikurage/learning-platform-api/internal/errors"
	"github.com/yukikurage/learning-platform-api/internal/middleware"
	"github.com/yukikurage/learning-platform-api/internal/services"
	"github.com/yukikurage/learning-platform-api/internal/utils"
)

// PromptHandler runs prompts against the text generator for the work item
// resolved by WorkItems.
type PromptHandler struct {
	prompts *services.PromptService
}

func NewPromptHandler(prompts *services.PromptService) *PromptHandler {
	return &PromptHandler{prompts: prompts}
}

// Ask sends a prompt to the generator and stores the conversation
func (h *PromptHandler) Ask(c *gin.Context) {
	item, ok := workItem(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.AskPromptRequest
	if !bindJSON(c, &req) {
		return
	}

	prompt, err := h.prompts.Ask(c.Request.Context(), item, userID, req.Input())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToPromptDTO(*prompt))
}

// ListPrompts returns the caller's prompt history for the item, newest first
func (h *PromptHandler) ListPrompts(c *gin.Context) {
	item, ok := workItem(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	prompts, total, err := h.prompts.ListPrompts(c.Request.Context(), item, userID, params)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"prompts":    dto.ToPromptDTOs(prompts),
		"pagination": utils.NewPaginationResponse(params, total),
	})
}

// Evaluate scores one of the caller's prompts
func (h *PromptHandler) Evaluate(c *gin.Context) {
	item, ok := workItem(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	promptID, ok := middleware.ParseIDParam(c, "prompt_id")
	if !ok {
		return
	}

	feedback, err := h.prompts.Evaluate(c.Request.Context(), item, userID, promptID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToFeedbackDTO(*feedback))
}
