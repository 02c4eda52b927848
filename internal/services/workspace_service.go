package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yukikurage/learning-platform-api/internal/authz"
	apierrors "github.com/yukikurage/learning-platform-api/internal/errors"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/repository"
	"github.com/yukikurage/learning-platform-api/internal/storage"
	"github.com/yukikurage/learning-platform-api/internal/utils"
)

const (
	CodeWorkspaceNameTaken     = "WS_002"
	CodeConfirmNameMismatch    = "WS_010"
	CodeCannotRemoveOwner      = "WS_011"
	CodeWorkspaceMemberMissing = "WS_012"
)

var (
	ErrWorkspaceNameTaken  = apierrors.NewConflict(CodeWorkspaceNameTaken, "A workspace with this name already exists")
	ErrConfirmNameMismatch = apierrors.NewValidation(CodeConfirmNameMismatch, "Confirmation name does not match the workspace name")
	ErrCannotRemoveOwner   = apierrors.NewValidation(CodeCannotRemoveOwner, "The workspace owner cannot be removed")
	ErrWorkspaceMemberGone = apierrors.NewNotFound(CodeWorkspaceMemberMissing, "Workspace member not found")
)

// WorkspaceService provides business logic for workspace operations.
type WorkspaceService struct {
	workspaces repository.WorkspaceRepository
	blobs      storage.BlobStore
	log        logrus.FieldLogger
	now        func() time.Time
}

// NewWorkspaceService creates a new WorkspaceService. blobs may be nil.
func NewWorkspaceService(workspaces repository.WorkspaceRepository, blobs storage.BlobStore, log logrus.FieldLogger) *WorkspaceService {
	return &WorkspaceService{
		workspaces: workspaces,
		blobs:      blobs,
		log:        log,
		now:        time.Now,
	}
}

// WorkspaceView is a workspace as seen by one member.
type WorkspaceView struct {
	Workspace   *models.Workspace
	MyRole      models.WorkspaceRole
	MemberCount int64
}

// CreateWorkspaceInput represents parameters to create a new workspace.
type CreateWorkspaceInput struct {
	Name        string
	Description string
	LogoImage   string
}

// CreateWorkspace creates a workspace owned by the caller. Only system
// administrators may create workspaces.
func (s *WorkspaceService) CreateWorkspace(ctx context.Context, caller *Principal, input CreateWorkspaceInput) (*WorkspaceView, error) {
	if err := authz.SystemAdmin(caller.IsSystemAdmin).Err(); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if _, err := s.workspaces.FindByName(ctx, name); err == nil {
		return nil, ErrWorkspaceNameTaken
	} else if !isNotFound(err) {
		return nil, wrap(err, "check workspace name")
	}

	ws := &models.Workspace{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		LogoImage:   input.LogoImage,
		OwnerID:     caller.ID,
	}
	owner := &models.WorkspaceMember{
		UserID:   caller.ID,
		Role:     models.WorkspaceRoleOwner,
		JoinedAt: s.now(),
	}

	if err := s.workspaces.CreateWithOwner(ctx, ws, owner); err != nil {
		if isDuplicate(err) {
			return nil, ErrWorkspaceNameTaken
		}
		return nil, wrap(err, "create workspace")
	}

	s.log.WithFields(logrus.Fields{"workspace_id": ws.ID, "owner_id": caller.ID}).Info("Workspace created")
	return &WorkspaceView{Workspace: ws, MyRole: models.WorkspaceRoleOwner, MemberCount: 1}, nil
}

// ListWorkspacesForUser returns the workspaces the user belongs to.
func (s *WorkspaceService) ListWorkspacesForUser(ctx context.Context, userID uint64) ([]WorkspaceView, error) {
	memberships, err := s.workspaces.ListByUser(ctx, userID)
	if err != nil {
		return nil, wrap(err, "list workspaces")
	}

	ids := make([]uint64, len(memberships))
	for i, m := range memberships {
		ids[i] = m.WorkspaceID
	}
	counts, err := s.workspaces.CountMembers(ctx, ids...)
	if err != nil {
		return nil, wrap(err, "count workspace members")
	}

	views := make([]WorkspaceView, len(memberships))
	for i := range memberships {
		m := &memberships[i]
		views[i] = WorkspaceView{
			Workspace:   &m.Workspace,
			MyRole:      m.Role,
			MemberCount: counts[m.WorkspaceID],
		}
	}
	return views, nil
}

// GetWorkspace returns the workspace detail for a resolved member.
func (s *WorkspaceService) GetWorkspace(ctx context.Context, access *WorkspaceAccess) (*WorkspaceView, error) {
	counts, err := s.workspaces.CountMembers(ctx, access.Workspace.ID)
	if err != nil {
		return nil, wrap(err, "count workspace members")
	}
	return &WorkspaceView{
		Workspace:   access.Workspace,
		MyRole:      access.Role,
		MemberCount: counts[access.Workspace.ID],
	}, nil
}

// UpdateWorkspaceInput holds the editable workspace fields.
type UpdateWorkspaceInput struct {
	Name        *string
	Description *string
	LogoImage   *string
}

// UpdateWorkspace changes name, description or logo.
func (s *WorkspaceService) UpdateWorkspace(ctx context.Context, access *WorkspaceAccess, input UpdateWorkspaceInput) (*WorkspaceView, error) {
	ws := access.Workspace

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name != ws.Name {
			if _, err := s.workspaces.FindByName(ctx, name); err == nil {
				return nil, ErrWorkspaceNameTaken
			} else if !isNotFound(err) {
				return nil, wrap(err, "check workspace name")
			}
			ws.Name = name
		}
	}
	if input.Description != nil {
		ws.Description = strings.TrimSpace(*input.Description)
	}
	if input.LogoImage != nil {
		ws.LogoImage = *input.LogoImage
	}

	if err := s.workspaces.Update(ctx, ws); err != nil {
		if isDuplicate(err) {
			return nil, ErrWorkspaceNameTaken
		}
		return nil, wrap(err, "update workspace")
	}
	return s.GetWorkspace(ctx, access)
}

// DeleteWorkspace removes the workspace and everything in it. The caller
// must repeat the workspace name exactly.
func (s *WorkspaceService) DeleteWorkspace(ctx context.Context, access *WorkspaceAccess, confirmName string) error {
	if confirmName != access.Workspace.Name {
		return ErrConfirmNameMismatch
	}

	paths, err := s.workspaces.Delete(ctx, access.Workspace.ID)
	if err != nil {
		return wrap(err, "delete workspace")
	}
	removeBlobs(ctx, s.blobs, s.log, paths)

	s.log.WithField("workspace_id", access.Workspace.ID).Info("Workspace deleted")
	return nil
}

// ListMembers returns a page of workspace members.
func (s *WorkspaceService) ListMembers(ctx context.Context, workspaceID uint64, page utils.PaginationParams) ([]models.WorkspaceMember, int64, error) {
	members, total, err := s.workspaces.ListMembers(ctx, workspaceID, page)
	if err != nil {
		return nil, 0, wrap(err, "list workspace members")
	}
	return members, total, nil
}

// RemoveMember removes a member from the workspace. The owner stays.
func (s *WorkspaceService) RemoveMember(ctx context.Context, access *WorkspaceAccess, targetID uint64) error {
	if targetID == access.Workspace.OwnerID {
		return ErrCannotRemoveOwner
	}

	if _, err := s.workspaces.FindMember(ctx, access.Workspace.ID, targetID); err != nil {
		return notFound(err, ErrWorkspaceMemberGone, "find workspace member")
	}

	if err := s.workspaces.RemoveMember(ctx, access.Workspace.ID, targetID); err != nil {
		return wrap(err, "remove workspace member")
	}
	return nil
}
