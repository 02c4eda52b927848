// Package authz holds the per-scope authorization rules. Every function here is
// pure: callers resolve memberships first and pass the resolved role in.
package authz

import (
	apierrors "github.com/yukikurage/learning-platform-api/internal/errors"
	"github.com/yukikurage/learning-platform-api/internal/models"
)

// Reason is the machine-readable explanation attached to a denial.
type Reason string

const (
	ReasonNone                  Reason = ""
	ReasonWorkspaceRoleRequired Reason = "WORKSPACE_ROLE_REQUIRED"
	ReasonCourseRoleRequired    Reason = "COURSE_ROLE_REQUIRED"
	ReasonTeamRoleRequired      Reason = "TEAM_ROLE_REQUIRED"
	ReasonNotWorkspaceMember    Reason = "NOT_WORKSPACE_MEMBER"
	ReasonNotCourseMember       Reason = "NOT_COURSE_MEMBER"
	ReasonNotTeamMember         Reason = "NOT_TEAM_MEMBER"
	ReasonSystemAdminRequired   Reason = "SYSTEM_ADMIN_REQUIRED"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed  bool
	Reason   Reason
	Required []string
	// ViaCourseRole is set when a team check passed through the course-level
	// Manager/Expert fallback instead of a team membership.
	ViaCourseRole bool
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason Reason, required []string) Decision {
	return Decision{Reason: reason, Required: required}
}

// Err converts a denial into a ForbiddenError. It returns nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return apierrors.NewForbidden(string(d.Reason), reasonMessages[d.Reason], d.Required...)
}

var reasonMessages = map[Reason]string{
	ReasonWorkspaceRoleRequired: "Your workspace role does not permit this action",
	ReasonCourseRoleRequired:    "Your course role does not permit this action",
	ReasonTeamRoleRequired:      "Your team role does not permit this action",
	ReasonNotWorkspaceMember:    "You are not a member of this workspace",
	ReasonNotCourseMember:       "You are not a member of this course",
	ReasonNotTeamMember:         "You are not a member of this team",
	ReasonSystemAdminRequired:   "Only system administrators can perform this action",
}

// Workspace decides a workspace-scoped check. Owner passes every check;
// Member passes when Member is required or nothing is required.
func Workspace(role models.WorkspaceRole, required ...models.WorkspaceRole) Decision {
	if role == models.WorkspaceRoleOwner || len(required) == 0 {
		return allow()
	}
	for _, r := range required {
		if r == role {
			return allow()
		}
	}
	return deny(ReasonWorkspaceRoleRequired, workspaceRoleNames(required))
}

// Course decides a course-scoped check. Manager passes every check. Expert and
// Participant pass only when named; Expert does not satisfy a Participant-only set.
func Course(role models.CourseRole, required ...models.CourseRole) Decision {
	if role == models.CourseRoleManager || len(required) == 0 {
		return allow()
	}
	for _, r := range required {
		if r == role {
			return allow()
		}
	}
	return deny(ReasonCourseRoleRequired, courseRoleNames(required))
}

// Team decides a team-scoped check. teamRole is nil when the caller holds no
// team membership; courseRole is the caller's role in the owning course, if any.
func Team(teamRole *models.TeamRole, courseRole *models.CourseRole, required ...models.TeamRole) Decision {
	if teamRole == nil {
		if courseRole != nil && (*courseRole == models.CourseRoleManager || *courseRole == models.CourseRoleExpert) {
			return Decision{Allowed: true, ViaCourseRole: true}
		}
		return deny(ReasonNotTeamMember, nil)
	}
	if len(required) == 0 {
		return allow()
	}
	for _, r := range required {
		if r == *teamRole {
			return allow()
		}
	}
	return deny(ReasonTeamRoleRequired, teamRoleNames(required))
}

// SystemAdmin decides checks reserved to system administrators.
func SystemAdmin(isSystemAdmin bool) Decision {
	if isSystemAdmin {
		return allow()
	}
	return deny(ReasonSystemAdminRequired, nil)
}

func workspaceRoleNames(roles []models.WorkspaceRole) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func courseRoleNames(roles []models.CourseRole) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func teamRoleNames(roles []models.TeamRole) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
