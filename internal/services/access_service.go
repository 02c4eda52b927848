package services

import (
	"context"

	"github.com/yukikurage/learning-platform-api/internal/authz"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/repository"
)

// WorkspaceAccess is a caller's resolved standing in a workspace.
type WorkspaceAccess struct {
	Workspace *models.Workspace
	Role      models.WorkspaceRole
}

// CourseAccess is a caller's resolved standing in a course.
type CourseAccess struct {
	Course *models.Course
	Role   models.CourseRole
}

// TeamAccess is a caller's resolved standing in a team. TeamRole is nil when
// access comes from a Manager or Expert course role instead of a membership.
type TeamAccess struct {
	Team       *models.Team
	TeamRole   *models.TeamRole
	CourseRole *models.CourseRole
}

// IsMember reports whether the caller belongs to the team itself.
func (a *TeamAccess) IsMember() bool {
	return a.TeamRole != nil
}

// AccessService resolves memberships for scoped routes. A missing scope is
// always reported before a missing membership.
type AccessService struct {
	workspaces repository.WorkspaceRepository
	courses    repository.CourseRepository
	teams      repository.TeamRepository
}

// NewAccessService creates a new AccessService.
func NewAccessService(workspaces repository.WorkspaceRepository, courses repository.CourseRepository, teams repository.TeamRepository) *AccessService {
	return &AccessService{
		workspaces: workspaces,
		courses:    courses,
		teams:      teams,
	}
}

// ResolveWorkspace loads the workspace and the caller's role in it.
func (s *AccessService) ResolveWorkspace(ctx context.Context, workspaceID, userID uint64) (*WorkspaceAccess, error) {
	ws, err := s.workspaces.FindByID(ctx, workspaceID)
	if err != nil {
		return nil, notFound(err, ErrWorkspaceNotFound, "find workspace")
	}

	member, err := s.workspaces.FindMember(ctx, workspaceID, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, authz.Decision{Reason: authz.ReasonNotWorkspaceMember}.Err()
		}
		return nil, wrap(err, "find workspace member")
	}

	return &WorkspaceAccess{Workspace: ws, Role: member.Role}, nil
}

// ResolveCourse loads the course and the caller's role in it.
func (s *AccessService) ResolveCourse(ctx context.Context, courseID, userID uint64) (*CourseAccess, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, notFound(err, ErrCourseNotFound, "find course")
	}

	member, err := s.courses.FindMember(ctx, courseID, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, authz.Decision{Reason: authz.ReasonNotCourseMember}.Err()
		}
		return nil, wrap(err, "find course member")
	}

	return &CourseAccess{Course: course, Role: member.Role}, nil
}

// ResolveTeam loads the team and the caller's standing in it. A team outside
// courseID is reported as not found. Callers without a team membership are
// let through when they are Manager or Expert of the owning course.
func (s *AccessService) ResolveTeam(ctx context.Context, courseID, teamID, userID uint64) (*TeamAccess, error) {
	team, err := s.teams.FindByID(ctx, teamID)
	if err != nil {
		return nil, notFound(err, ErrTeamNotFound, "find team")
	}
	if courseID != 0 && team.CourseID != courseID {
		return nil, ErrTeamNotFound
	}

	access := &TeamAccess{Team: team}

	courseMember, err := s.courses.FindMember(ctx, team.CourseID, userID)
	switch {
	case err == nil:
		access.CourseRole = &courseMember.Role
	case !isNotFound(err):
		return nil, wrap(err, "find course member")
	}

	teamMember, err := s.teams.FindMember(ctx, teamID, userID)
	switch {
	case err == nil:
		access.TeamRole = &teamMember.Role
	case !isNotFound(err):
		return nil, wrap(err, "find team member")
	}

	if decision := authz.Team(access.TeamRole, access.CourseRole); !decision.Allowed {
		return nil, decision.Err()
	}
	return access, nil
}
