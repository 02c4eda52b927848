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

type WorkspaceHandler struct {
	workspaces *services.WorkspaceService
}

func NewWorkspaceHandler(workspaces *services.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{workspaces: workspaces}
}

// CreateWorkspace creates a new workspace owned by the caller
func (h *WorkspaceHandler) CreateWorkspace(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req dto.CreateWorkspaceRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.workspaces.CreateWorkspace(c.Request.Context(), principal, services.CreateWorkspaceInput{
		Name:        req.Name,
		Description: req.Description,
		LogoImage:   req.LogoImage,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToWorkspaceDTO(*view))
}

// ListWorkspaces returns all workspaces the user is a member of
func (h *WorkspaceHandler) ListWorkspaces(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	views, err := h.workspaces.ListWorkspacesForUser(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"workspaces": dto.ToWorkspaceDTOs(views),
	})
}

// GetWorkspace returns a workspace the caller belongs to
func (h *WorkspaceHandler) GetWorkspace(c *gin.Context) {
	access, ok := workspaceAccess(c)
	if !ok {
		return
	}

	view, err := h.workspaces.GetWorkspace(c.Request.Context(), access)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToWorkspaceDTO(*view))
}

// UpdateWorkspace updates name, description or logo (owner only)
func (h *WorkspaceHandler) UpdateWorkspace(c *gin.Context) {
	access, ok := workspaceAccess(c)
	if !ok {
		return
	}

	var req dto.UpdateWorkspaceRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.workspaces.UpdateWorkspace(c.Request.Context(), access, services.UpdateWorkspaceInput{
		Name:        req.Name,
		Description: req.Description,
		LogoImage:   req.LogoImage,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToWorkspaceDTO(*view))
}

// DeleteWorkspace deletes a workspace and everything in it (owner only).
// The name must be repeated in confirm_name, in the body or the query.
func (h *WorkspaceHandler) DeleteWorkspace(c *gin.Context) {
	access, ok := workspaceAccess(c)
	if !ok {
		return
	}

	confirmName := c.Query("confirm_name")
	if confirmName == "" {
		var req dto.DeleteWorkspaceRequest
		if !bindJSON(c, &req) {
			return
		}
		confirmName = req.ConfirmName
	}

	if err := h.workspaces.DeleteWorkspace(c.Request.Context(), access, confirmName); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Workspace deleted successfully",
	})
}

// ListMembers returns a page of workspace members
func (h *WorkspaceHandler) ListMembers(c *gin.Context) {
	access, ok := workspaceAccess(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	members, total, err := h.workspaces.ListMembers(c.Request.Context(), access.Workspace.ID, params)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"members":    dto.ToWorkspaceMemberDTOs(members),
		"pagination": utils.NewPaginationResponse(params, total),
	})
}

// RemoveMember removes a member from the workspace (owner only)
func (h *WorkspaceHandler) RemoveMember(c *gin.Context) {
	access, ok := workspaceAccess(c)
	if !ok {
		return
	}
	targetID, ok := middleware.ParseIDParam(c, "user_id")
	if !ok {
		return
	}

	if err := h.workspaces.RemoveMember(c.Request.Context(), access, targetID); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member removed successfully",
	})
}
