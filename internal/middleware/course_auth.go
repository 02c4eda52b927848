package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yukikurage/learning-platform-api/internal/authz"
	"github.com/yukikurage/learning-platform-api/internal/constants"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/services"
)

// RequireCourseRole checks that the user belongs to the course named by
// :course_id and holds one of roles. Manager passes every check.
func RequireCourseRole(resolver ScopeResolver, roles ...models.CourseRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		courseID, ok := ParseIDParam(c, "course_id")
		if !ok {
			return
		}
		userID, ok := requireUserID(c)
		if !ok {
			return
		}

		access, err := resolver.ResolveCourse(c.Request.Context(), courseID, userID)
		if err != nil {
			abortWith(c, err)
			return
		}
		if err := authz.Course(access.Role, roles...).Err(); err != nil {
			abortWith(c, err)
			return
		}

		c.Set(constants.ContextKeyCourseAccess, access)
		c.Next()
	}
}

// RequireTeamAccess checks that the user may see the team named by
// :team_id inside :course_id: a team member with one of roles, or a
// Manager or Expert of the course.
func RequireTeamAccess(resolver ScopeResolver, roles ...models.TeamRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		courseID, ok := ParseIDParam(c, "course_id")
		if !ok {
			return
		}
		teamID, ok := ParseIDParam(c, "team_id")
		if !ok {
			return
		}
		userID, ok := requireUserID(c)
		if !ok {
			return
		}

		access, err := resolver.ResolveTeam(c.Request.Context(), courseID, teamID, userID)
		if err != nil {
			abortWith(c, err)
			return
		}
		if err := authz.Team(access.TeamRole, access.CourseRole, roles...).Err(); err != nil {
			abortWith(c, err)
			return
		}

		c.Set(constants.ContextKeyTeamAccess, access)
		c.Next()
	}
}

// GetCourseAccess retrieves the access stored by RequireCourseRole
func GetCourseAccess(c *gin.Context) (*services.CourseAccess, bool) {
	v, exists := c.Get(constants.ContextKeyCourseAccess)
	if !exists {
		return nil, false
	}
	access, ok := v.(*services.CourseAccess)
	return access, ok
}

// GetTeamAccess retrieves the access stored by RequireTeamAccess
func GetTeamAccess(c *gin.Context) (*services.TeamAccess, bool) {
	v, exists := c.Get(constants.ContextKeyTeamAccess)
	if !exists {
		return nil, false
	}
	access, ok := v.(*services.TeamAccess)
	return access, ok
}
