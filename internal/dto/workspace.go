package dto

import (
	"time"

	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/services"
)

// WorkspaceDTO represents a workspace together with the caller's standing in it
type WorkspaceDTO struct {
	ID          uint64               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	LogoImage   string               `json:"logo_image"`
	OwnerID     uint64               `json:"owner_id"`
	MyRole      models.WorkspaceRole `json:"my_role"`
	MemberCount int64                `json:"member_count"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// WorkspaceMemberDTO represents a member in a workspace
type WorkspaceMemberDTO struct {
	User     UserSummaryDTO       `json:"user"`
	Role     models.WorkspaceRole `json:"role"`
	JoinedAt time.Time            `json:"joined_at"`
}

type CreateWorkspaceRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
	LogoImage   string `json:"logo_image" binding:"max=500"`
}

type UpdateWorkspaceRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	LogoImage   *string `json:"logo_image" binding:"omitempty,max=500"`
}

// DeleteWorkspaceRequest repeats the workspace name to confirm the deletion
type DeleteWorkspaceRequest struct {
	ConfirmName string `json:"confirm_name" binding:"required"`
}

// ToWorkspaceDTO converts a workspace view to WorkspaceDTO
func ToWorkspaceDTO(view services.WorkspaceView) WorkspaceDTO {
	ws := view.Workspace
	return WorkspaceDTO{
		ID:          ws.ID,
		Name:        ws.Name,
		Description: ws.Description,
		LogoImage:   ws.LogoImage,
		OwnerID:     ws.OwnerID,
		MyRole:      view.MyRole,
		MemberCount: view.MemberCount,
		CreatedAt:   ws.CreatedAt,
		UpdatedAt:   ws.UpdatedAt,
	}
}

// ToWorkspaceDTOs converts a list of workspace views
func ToWorkspaceDTOs(views []services.WorkspaceView) []WorkspaceDTO {
	out := make([]WorkspaceDTO, len(views))
	for i, v := range views {
		out[i] = ToWorkspaceDTO(v)
	}
	return out
}

// ToWorkspaceMemberDTOs converts workspace members with their preloaded users
func ToWorkspaceMemberDTOs(members []models.WorkspaceMember) []WorkspaceMemberDTO {
	out := make([]WorkspaceMemberDTO, len(members))
	for i, m := range members {
		out[i] = WorkspaceMemberDTO{
			User:     ToUserSummaryDTO(m.User),
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		}
	}
	return out
}
