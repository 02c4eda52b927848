package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yukikurage/learning-platform-api/internal/constants"
	apierrors "github.com/yukikurage/learning-platform-api/internal/errors"
	"github.com/yukikurage/learning-platform-api/internal/metrics"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/repository"
	"github.com/yukikurage/learning-platform-api/internal/utils"
)

const (
	CodeInviteNotFound  = "INVITE_NOT_FOUND"
	CodeInviteExpired   = "INVITE_EXPIRED"
	CodeInviteExhausted = "INVITE_EXHAUSTED"
	CodeAlreadyMember   = "ALREADY_MEMBER"
)

var (
	ErrInviteNotFound  = apierrors.NewNotFound(CodeInviteNotFound, "Invite link is not valid")
	ErrInviteExpired   = apierrors.NewGone(CodeInviteExpired, "Invite link has expired")
	ErrInviteExhausted = apierrors.NewGone(CodeInviteExhausted, "Invite link has no uses left")
	ErrAlreadyMember   = apierrors.NewConflict(CodeAlreadyMember, "You are already a member")
)

// InviteService issues and redeems invite links for workspaces and courses.
type InviteService struct {
	invites     repository.InviteRepository
	workspaces  *WorkspaceService
	courses     *CourseService
	access      *AccessService
	metrics     *metrics.Metrics
	log         logrus.FieldLogger
	frontendURL string
	now         func() time.Time
}

// NewInviteService creates a new InviteService.
func NewInviteService(invites repository.InviteRepository, workspaces *WorkspaceService, courses *CourseService, access *AccessService,
	m *metrics.Metrics, log logrus.FieldLogger, frontendURL string) *InviteService {
	return &InviteService{
		invites:     invites,
		workspaces:  workspaces,
		courses:     courses,
		access:      access,
		metrics:     m,
		log:         log,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         time.Now,
	}
}

// InviteLink is a freshly issued invite.
type InviteLink struct {
	Invite *models.InviteToken
	URL    string
}

// CreateWorkspaceInvite issues a Member invite for a workspace.
func (s *InviteService) CreateWorkspaceInvite(ctx context.Context, workspaceID, creatorID uint64, maxUses *int) (*InviteLink, error) {
	return s.create(ctx, models.InviteScopeWorkspace, workspaceID, string(models.WorkspaceRoleMember), creatorID, maxUses)
}

// CreateCourseInvite issues an Expert or Participant invite for a course.
func (s *InviteService) CreateCourseInvite(ctx context.Context, courseID, creatorID uint64, role models.CourseRole, maxUses *int) (*InviteLink, error) {
	if role != models.CourseRoleExpert && role != models.CourseRoleParticipant {
		return nil, invalidField("invite_role", "must be one of [Expert Participant]")
	}
	return s.create(ctx, models.InviteScopeCourse, courseID, string(role), creatorID, maxUses)
}

func (s *InviteService) create(ctx context.Context, scope models.InviteScope, scopeID uint64, role string, creatorID uint64, maxUses *int) (*InviteLink, error) {
	uses := constants.DefaultInviteMaxUses
	if maxUses != nil {
		uses = *maxUses
	}
	if uses < 1 || uses > constants.MaxInviteMaxUses {
		return nil, invalidField("max_uses", fmt.Sprintf("must be between 1 and %d", constants.MaxInviteMaxUses))
	}

	invite := &models.InviteToken{
		ScopeType: scope,
		ScopeID:   scopeID,
		Role:      role,
		Token:     utils.GenerateInviteToken(),
		MaxUses:   uses,
		ExpiresAt: s.now().Add(constants.InviteTTL),
		CreatedBy: creatorID,
	}
	if err := s.invites.Create(ctx, invite); err != nil {
		return nil, wrap(err, "create invite")
	}

	return &InviteLink{
		Invite: invite,
		URL:    fmt.Sprintf("%s/invite/%s/%s", s.frontendURL, scope, invite.Token),
	}, nil
}

// InvitePreview is the public summary shown before redeeming.
type InvitePreview struct {
	Invite    *models.InviteToken
	ScopeName string
}

// Preview describes a usable invite without consuming it.
func (s *InviteService) Preview(ctx context.Context, token string) (*InvitePreview, error) {
	invite, err := s.invites.FindByToken(ctx, token)
	if err != nil {
		return nil, notFound(err, ErrInviteNotFound, "find invite")
	}
	if invite.ExpiredAt(s.now()) {
		return nil, ErrInviteExpired
	}
	if invite.Exhausted() {
		return nil, ErrInviteExhausted
	}

	preview := &InvitePreview{Invite: invite}
	switch invite.ScopeType {
	case models.InviteScopeWorkspace:
		ws, err := s.access.workspaces.FindByID(ctx, invite.ScopeID)
		if err != nil {
			return nil, notFound(err, ErrInviteNotFound, "find workspace")
		}
		preview.ScopeName = ws.Name
	case models.InviteScopeCourse:
		course, err := s.access.courses.FindByID(ctx, invite.ScopeID)
		if err != nil {
			return nil, notFound(err, ErrInviteNotFound, "find course")
		}
		preview.ScopeName = course.Name
	}
	return preview, nil
}

// RedeemResult is the scope the caller just joined.
type RedeemResult struct {
	Scope     models.InviteScope
	Workspace *WorkspaceView
	Course    *CourseView
}

// Redeem consumes one use of the invite and makes userID a member of its scope.
func (s *InviteService) Redeem(ctx context.Context, token string, userID uint64) (*RedeemResult, error) {
	invite, err := s.invites.Redeem(ctx, token, userID, s.now())
	if err != nil {
		typed := redeemError(err)
		s.metrics.InviteRedemptionsTotal.WithLabelValues("unknown", outcomeOf(typed)).Inc()
		return nil, typed
	}

	s.metrics.InviteRedemptionsTotal.WithLabelValues(string(invite.ScopeType), "success").Inc()
	s.log.WithFields(logrus.Fields{
		"scope":    invite.ScopeType,
		"scope_id": invite.ScopeID,
		"user_id":  userID,
	}).Info("Invite redeemed")

	result := &RedeemResult{Scope: invite.ScopeType}
	switch invite.ScopeType {
	case models.InviteScopeWorkspace:
		access, err := s.access.ResolveWorkspace(ctx, invite.ScopeID, userID)
		if err != nil {
			return nil, err
		}
		if result.Workspace, err = s.workspaces.GetWorkspace(ctx, access); err != nil {
			return nil, err
		}
	case models.InviteScopeCourse:
		access, err := s.access.ResolveCourse(ctx, invite.ScopeID, userID)
		if err != nil {
			return nil, err
		}
		if result.Course, err = s.courses.GetCourse(ctx, access); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func redeemError(err error) error {
	switch {
	case errors.Is(err, repository.ErrInviteNotFound):
		return ErrInviteNotFound
	case errors.Is(err, repository.ErrInviteExpired):
		return ErrInviteExpired
	case errors.Is(err, repository.ErrInviteExhausted):
		return ErrInviteExhausted
	case errors.Is(err, repository.ErrAlreadyMember):
		return ErrAlreadyMember
	default:
		return wrap(err, "redeem invite")
	}
}

func outcomeOf(err error) string {
	var e *apierrors.Error
	if errors.As(err, &e) {
		return strings.ToLower(e.Code)
	}
	return "error"
}
