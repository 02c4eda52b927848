package middleware

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/learning-platform-api/internal/authz"
	"github.com/yukikurage/learning-platform-api/internal/constants"
	apierrors "github.com/yukikurage/learning-platform-api/internal/errors"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/services"
)

// ScopeResolver resolves the caller's membership in a scope.
type ScopeResolver interface {
	ResolveWorkspace(ctx context.Context, workspaceID, userID uint64) (*services.WorkspaceAccess, error)
	ResolveCourse(ctx context.Context, courseID, userID uint64) (*services.CourseAccess, error)
	ResolveTeam(ctx context.Context, courseID, teamID, userID uint64) (*services.TeamAccess, error)
}

// RequireWorkspaceRole checks that the user belongs to the workspace named
// by the :workspace_id parameter and holds one of roles. No roles means any
// member. A missing workspace is reported before a missing membership.
func RequireWorkspaceRole(resolver ScopeResolver, roles ...models.WorkspaceRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		workspaceID, ok := ParseIDParam(c, "workspace_id")
		if !ok {
			return
		}
		userID, ok := requireUserID(c)
		if !ok {
			return
		}

		access, err := resolver.ResolveWorkspace(c.Request.Context(), workspaceID, userID)
		if err != nil {
			abortWith(c, err)
			return
		}
		if err := authz.Workspace(access.Role, roles...).Err(); err != nil {
			abortWith(c, err)
			return
		}

		// Store workspace access in context
		c.Set(constants.ContextKeyWorkspaceAccess, access)
		c.Next()
	}
}

// GetWorkspaceAccess retrieves the access stored by RequireWorkspaceRole
func GetWorkspaceAccess(c *gin.Context) (*services.WorkspaceAccess, bool) {
	v, exists := c.Get(constants.ContextKeyWorkspaceAccess)
	if !exists {
		return nil, false
	}
	access, ok := v.(*services.WorkspaceAccess)
	return access, ok
}

// ParseIDParam reads a positive integer path parameter, answering 400 when
// it is malformed.
func ParseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		abortWith(c, apierrors.NewValidation(apierrors.ErrCodeInvalidInput, "Invalid "+name,
			apierrors.FieldError{Field: name, Message: "must be a positive integer"}))
		return 0, false
	}
	return id, true
}

func requireUserID(c *gin.Context) (uint64, bool) {
	userID, exists := GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		c.Abort()
		return 0, false
	}
	return userID, true
}

func abortWith(c *gin.Context, err error) {
	apierrors.Respond(c, err)
	c.Abort()
}
