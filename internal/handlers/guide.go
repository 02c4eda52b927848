package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/learning-platform-api/internal/dto"
	apierrors "github.com/yukikurage/learning-platform-api/internal/errors"
	"github.com/yukikurage/learning-platform-api/internal/middleware"
	"github.com/yukikurage/learning-platform-api/internal/services"
)

// GuideHandler serves a task's guide and its attachments. Routes run after
// WorkItems.Individual.
type GuideHandler struct {
	guides *services.GuideService
}

func NewGuideHandler(guides *services.GuideService) *GuideHandler {
	return &GuideHandler{guides: guides}
}

func (h *GuideHandler) GetGuide(c *gin.Context) {
	item, ok := workItem(c)
	if !ok {
		return
	}

	guide, err := h.guides.GetGuide(c.Request.Context(), item.TaskID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToGuideDTO(*guide))
}

func (h *GuideHandler) UpdateGuide(c *gin.Context) {
	item, ok := workItem(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateGuideRequest
	if !bindJSON(c, &req) {
		return
	}

	guide, err := h.guides.UpdateGuide(c.Request.Context(), item.TaskID, userID, req.Content)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToGuideDTO(*guide))
}

// AddAttachment uploads the multipart "file" field and links it to the guide
func (h *GuideHandler) AddAttachment(c *gin.Context) {
	item, ok := workItem(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	upload, ok := readUpload(c)
	if !ok {
		return
	}

	attachment, err := h.guides.AddAttachment(c.Request.Context(), item.TaskID, userID, upload)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToAttachmentDTO(*attachment))
}

func (h *GuideHandler) DeleteAttachment(c *gin.Context) {
	item, ok := workItem(c)
	if !ok {
		return
	}
	attachmentID, ok := middleware.ParseIDParam(c, "attachment_id")
	if !ok {
		return
	}

	if err := h.guides.DeleteAttachment(c.Request.Context(), item.TaskID, attachmentID); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Attachment deleted successfully",
	})
}
