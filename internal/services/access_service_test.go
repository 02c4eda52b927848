package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/learning-platform-api/internal/authz"
	apierrors "github.com/yukikurage/learning-platform-api/internal/errors"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/testutil"
)

func TestResolveWorkspace_NotFoundBeforeForbidden(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	owner := testutil.CreateAdmin(t, s.db, "owner@example.com")
	outsider := testutil.CreateUser(t, s.db, "outsider@example.com")
	ws := testutil.CreateWorkspace(t, s.db, "Guild", owner)

	_, err := s.access.ResolveWorkspace(ctx, ws.ID+100, outsider.ID)
	assert.Equal(t, CodeWorkspaceNotFound, apierrors.CodeOf(err))

	_, err = s.access.ResolveWorkspace(ctx, ws.ID, outsider.ID)
	assert.Equal(t, apierrors.KindForbidden, apierrors.KindOf(err))
	assert.Equal(t, string(authz.ReasonNotWorkspaceMember), apierrors.CodeOf(err))
}

func TestResolveCourse(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	owner := testutil.CreateAdmin(t, s.db, "owner@example.com")
	expert := testutil.CreateUser(t, s.db, "expert@example.com")
	outsider := testutil.CreateUser(t, s.db, "outsider@example.com")
	ws := testutil.CreateWorkspace(t, s.db, "Guild", owner)
	course := testutil.CreateCourse(t, s.db, ws.ID, "Go 101", owner)
	testutil.AddCourseMember(t, s.db, course.ID, expert.ID, models.CourseRoleExpert)

	access, err := s.access.ResolveCourse(ctx, course.ID, expert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CourseRoleExpert, access.Role)

	_, err = s.access.ResolveCourse(ctx, course.ID, outsider.ID)
	assert.Equal(t, string(authz.ReasonNotCourseMember), apierrors.CodeOf(err))

	_, err = s.access.ResolveCourse(ctx, course.ID+100, outsider.ID)
	assert.Equal(t, CodeCourseNotFound, apierrors.CodeOf(err))
}

func TestResolveTeam(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	owner := testutil.CreateAdmin(t, s.db, "owner@example.com")
	expert := testutil.CreateUser(t, s.db, "expert@example.com")
	member := testutil.CreateUser(t, s.db, "member@example.com")
	participant := testutil.CreateUser(t, s.db, "participant@example.com")
	ws := testutil.CreateWorkspace(t, s.db, "Guild", owner)
	course := testutil.CreateCourse(t, s.db, ws.ID, "Go 101", owner)
	other := testutil.CreateCourse(t, s.db, ws.ID, "Go 102", owner)
	testutil.AddCourseMember(t, s.db, course.ID, expert.ID, models.CourseRoleExpert)
	testutil.AddCourseMember(t, s.db, course.ID, member.ID, models.CourseRoleParticipant)
	testutil.AddCourseMember(t, s.db, course.ID, participant.ID, models.CourseRoleParticipant)
	team := testutil.CreateTeam(t, s.db, course.ID, "Alpha", models.TeamRoleCEO, member)

	t.Run("team member", func(t *testing.T) {
		access, err := s.access.ResolveTeam(ctx, course.ID, team.ID, member.ID)
		require.NoError(t, err)
		assert.True(t, access.IsMember())
		assert.Equal(t, models.TeamRoleCEO, *access.TeamRole)
	})

	t.Run("expert falls back to course role", func(t *testing.T) {
		access, err := s.access.ResolveTeam(ctx, course.ID, team.ID, expert.ID)
		require.NoError(t, err)
		assert.False(t, access.IsMember())
		assert.Equal(t, models.CourseRoleExpert, *access.CourseRole)
	})

	t.Run("participant outside the team", func(t *testing.T) {
		_, err := s.access.ResolveTeam(ctx, course.ID, team.ID, participant.ID)
		assert.Equal(t, string(authz.ReasonNotTeamMember), apierrors.CodeOf(err))
	})

	t.Run("team of another course", func(t *testing.T) {
		_, err := s.access.ResolveTeam(ctx, other.ID, team.ID, member.ID)
		assert.Equal(t, CodeTeamNotFound, apierrors.CodeOf(err))
	})
}
