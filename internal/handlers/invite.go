package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/learning-platform-api/internal/dto"
	apierrors "github.com/yukikurage/learning-platform-api/internal/errors"
	"github.com/yukikurage/learning-platform-api/internal/services"
)

// InviteHandler issues, previews and redeems invite links.
type InviteHandler struct {
	invites *services.InviteService
}

func NewInviteHandler(invites *services.InviteService) *InviteHandler {
	return &InviteHandler{invites: invites}
}

// CreateWorkspaceInvite issues a Member invite for the workspace (owner only)
func (h *InviteHandler) CreateWorkspaceInvite(c *gin.Context) {
	access, ok := workspaceAccess(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.CreateWorkspaceInviteRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	link, err := h.invites.CreateWorkspaceInvite(c.Request.Context(), access.Workspace.ID, userID, req.MaxUses)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToInviteLinkDTO(link))
}

// CreateCourseInvite issues an Expert or Participant invite for the course
func (h *InviteHandler) CreateCourseInvite(c *gin.Context) {
	access, ok := courseAccess(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.CreateCourseInviteRequest
	if !bindJSON(c, &req) {
		return
	}

	link, err := h.invites.CreateCourseInvite(c.Request.Context(), access.Course.ID, userID, req.InviteRole, req.MaxUses)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToInviteLinkDTO(link))
}

// PreviewInvite describes an invite without redeeming it. No auth required.
func (h *InviteHandler) PreviewInvite(c *gin.Context) {
	preview, err := h.invites.Preview(c.Request.Context(), c.Param("token"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToInvitePreviewDTO(preview))
}

// RedeemInvite joins the caller to the invite's workspace or course
func (h *InviteHandler) RedeemInvite(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	result, err := h.invites.Redeem(c.Request.Context(), c.Param("token"), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToRedeemResponse(result))
}
