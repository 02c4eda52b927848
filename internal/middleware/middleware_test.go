package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/learning-platform-api/internal/authz"
	apierrors "github.com/yukikurage/learning-platform-api/internal/errors"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/services"
	"github.com/yukikurage/learning-platform-api/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuth struct{}

func (fakeAuth) Authenticate(_ context.Context, token string) (*services.Principal, error) {
	if token != "good" {
		return nil, services.ErrInvalidToken
	}
	return &services.Principal{ID: 7, Email: "u@example.com"}, nil
}

// fakeResolver grants the configured roles, or fails with err.
type fakeResolver struct {
	workspaceRole models.WorkspaceRole
	courseRole    models.CourseRole
	teamRole      *models.TeamRole
	err           error
}

func (r fakeResolver) ResolveWorkspace(_ context.Context, workspaceID, _ uint64) (*services.WorkspaceAccess, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &services.WorkspaceAccess{Workspace: &models.Workspace{ID: workspaceID}, Role: r.workspaceRole}, nil
}

func (r fakeResolver) ResolveCourse(_ context.Context, courseID, _ uint64) (*services.CourseAccess, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &services.CourseAccess{Course: &models.Course{ID: courseID}, Role: r.courseRole}, nil
}

func (r fakeResolver) ResolveTeam(_ context.Context, courseID, teamID, _ uint64) (*services.TeamAccess, error) {
	if r.err != nil {
		return nil, r.err
	}
	role := r.courseRole
	return &services.TeamAccess{Team: &models.Team{ID: teamID, CourseID: courseID}, TeamRole: r.teamRole, CourseRole: &role}, nil
}

func withUser(c *gin.Context) {
	c.Set("user_id", uint64(7))
	c.Next()
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apierrors.APIError {
	var body apierrors.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRequireAuth(t *testing.T) {
	router := gin.New()
	router.GET("/me", RequireAuth(fakeAuth{}), func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		require.True(t, ok)
		userID, ok := GetUserID(c)
		require.True(t, ok)
		assert.Equal(t, principal.ID, userID)
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"rejected token", "Bearer bad", http.StatusUnauthorized},
		{"valid token", "Bearer good", http.StatusNoContent},
		{"scheme is case-insensitive", "bearer good", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRequireWorkspaceRole(t *testing.T) {
	tests := []struct {
		name     string
		resolver fakeResolver
		path     string
		status   int
		code     string
	}{
		{"owner passes", fakeResolver{workspaceRole: models.WorkspaceRoleOwner}, "/ws/1", http.StatusOK, ""},
		{"member lacks owner role", fakeResolver{workspaceRole: models.WorkspaceRoleMember}, "/ws/1", http.StatusForbidden, string(authz.ReasonWorkspaceRoleRequired)},
		{"workspace missing", fakeResolver{err: services.ErrWorkspaceNotFound}, "/ws/1", http.StatusNotFound, services.CodeWorkspaceNotFound},
		{"malformed id", fakeResolver{workspaceRole: models.WorkspaceRoleOwner}, "/ws/abc", http.StatusBadRequest, apierrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/ws/:workspace_id", withUser, RequireWorkspaceRole(tt.resolver, models.WorkspaceRoleOwner), func(c *gin.Context) {
				access, ok := GetWorkspaceAccess(c)
				require.True(t, ok)
				c.JSON(http.StatusOK, gin.H{"id": access.Workspace.ID})
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, decodeError(t, w).Code)
			}
		})
	}
}

func TestRequireCourseRole_ExpertOnManagerRoute(t *testing.T) {
	router := gin.New()
	router.DELETE("/courses/:course_id", withUser,
		RequireCourseRole(fakeResolver{courseRole: models.CourseRoleExpert}, models.CourseRoleManager),
		func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/courses/3", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	body := decodeError(t, w)
	assert.Equal(t, string(authz.ReasonCourseRoleRequired), body.Code)
	assert.Equal(t, []interface{}{"Manager"}, body.Details["required_roles"])
}

func TestRequireTeamAccess(t *testing.T) {
	ceo := models.TeamRoleCEO
	tests := []struct {
		name     string
		resolver fakeResolver
		status   int
	}{
		{"team member", fakeResolver{courseRole: models.CourseRoleParticipant, teamRole: &ceo}, http.StatusOK},
		{"expert without membership", fakeResolver{courseRole: models.CourseRoleExpert}, http.StatusOK},
		{"participant without membership", fakeResolver{courseRole: models.CourseRoleParticipant}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/courses/:course_id/teams/:team_id", withUser, RequireTeamAccess(tt.resolver), func(c *gin.Context) {
				_, ok := GetTeamAccess(c)
				require.True(t, ok)
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/courses/1/teams/2", nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRequestLogger(t *testing.T) {
	router := gin.New()
	router.Use(RequestLogger(testutil.NewLogger()))
	router.GET("/ping", func(c *gin.Context) {
		assert.NotNil(t, Logger(c))
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-123")
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
