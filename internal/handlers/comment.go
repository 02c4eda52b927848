package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/learning-platform-api/internal/dto"
	apierrors "github.com/yukikurage/learning-platform-api/internal/errors"
	"github.com/yukikurage/learning-platform-api/internal/middleware"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/services"
)

// CommentHandler serves the discussion threads of a work item. Routes run
// after WorkItems.Commented.
type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// ListComments returns the item's comments
// Can filter by tab_type and prompt_user_id
func (h *CommentHandler) ListComments(c *gin.Context) {
	item, ok := workItem(c)
	if !ok {
		return
	}

	var tabType *models.TabType
	if raw := c.Query("tab_type"); raw != "" {
		t := models.TabType(raw)
		tabType = &t
	}
	var promptUserID *uint64
	if raw := c.Query("prompt_user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.Respond(c, apierrors.NewValidation(apierrors.ErrCodeInvalidInput, "Invalid prompt_user_id",
				apierrors.FieldError{Field: "prompt_user_id", Message: "must be a positive integer"}))
			return
		}
		promptUserID = &id
	}

	comments, err := h.comments.ListComments(c.Request.Context(), item, tabType, promptUserID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"comments": dto.ToCommentDTOs(comments),
	})
}

func (h *CommentHandler) CreateComment(c *gin.Context) {
	item, ok := workItem(c)
	if !ok {
		return
	}
	access, ok := courseAccess(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.CreateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.comments.CreateComment(c.Request.Context(), access.Course.ID, item, userID, req.Input())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToCommentDTO(*comment))
}

// UpdateComment edits the text of the caller's own comment
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	item, ok := workItem(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	commentID, ok := middleware.ParseIDParam(c, "comment_id")
	if !ok {
		return
	}

	var req dto.UpdateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.comments.UpdateComment(c.Request.Context(), item, userID, commentID, req.Text)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCommentDTO(*comment))
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	item, ok := workItem(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	commentID, ok := middleware.ParseIDParam(c, "comment_id")
	if !ok {
		return
	}

	if err := h.comments.DeleteComment(c.Request.Context(), item, userID, commentID); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Comment deleted successfully",
	})
}
