package dto

import (
	"time"

	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/services"
)

type CreateWorkspaceInviteRequest struct {
	MaxUses *int `json:"max_uses"`
}

type CreateCourseInviteRequest struct {
	InviteRole models.CourseRole `json:"invite_role" binding:"required,oneof=Expert Participant"`
	MaxUses    *int              `json:"max_uses"`
}

// InviteLinkDTO is a freshly issued invite
type InviteLinkDTO struct {
	InviteURL string    `json:"invite_url"`
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	MaxUses   int       `json:"max_uses"`
	ExpiresAt time.Time `json:"expires_at"`
}

// InvitePreviewDTO describes an invite to someone who has not redeemed it yet
type InvitePreviewDTO struct {
	ScopeType     models.InviteScope `json:"scope_type"`
	ScopeID       uint64             `json:"scope_id"`
	ScopeName     string             `json:"scope_name"`
	Role          string             `json:"role"`
	ExpiresAt     time.Time          `json:"expires_at"`
	RemainingUses int                `json:"remaining_uses"`
}

// RedeemResponse holds whichever scope the invite joined
type RedeemResponse struct {
	ScopeType models.InviteScope `json:"scope_type"`
	Workspace *WorkspaceDTO      `json:"workspace,omitempty"`
	Course    *CourseDTO         `json:"course,omitempty"`
}

func ToInviteLinkDTO(link *services.InviteLink) InviteLinkDTO {
	return InviteLinkDTO{
		InviteURL: link.URL,
		Token:     link.Invite.Token,
		Role:      link.Invite.Role,
		MaxUses:   link.Invite.MaxUses,
		ExpiresAt: link.Invite.ExpiresAt,
	}
}

func ToInvitePreviewDTO(p *services.InvitePreview) InvitePreviewDTO {
	return InvitePreviewDTO{
		ScopeType:     p.Invite.ScopeType,
		ScopeID:       p.Invite.ScopeID,
		ScopeName:     p.ScopeName,
		Role:          p.Invite.Role,
		ExpiresAt:     p.Invite.ExpiresAt,
		RemainingUses: p.Invite.RemainingUses(),
	}
}

func ToRedeemResponse(r *services.RedeemResult) RedeemResponse {
	resp := RedeemResponse{ScopeType: r.Scope}
	if r.Workspace != nil {
		ws := ToWorkspaceDTO(*r.Workspace)
		resp.Workspace = &ws
	}
	if r.Course != nil {
		course := ToCourseDTO(*r.Course)
		resp.Course = &course
	}
	return resp
}
