package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/testutil"
)

func TestExportTasks_IsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewTeamRepository(db)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner@example.com")
	ws := testutil.CreateWorkspace(t, db, "alpha", owner)
	course := testutil.CreateCourse(t, db, ws.ID, "go101", owner)
	module := testutil.CreateModule(t, db, course.ID, "week 1")
	t1 := testutil.CreateTask(t, db, module, "one", owner.ID)
	t2 := testutil.CreateTask(t, db, module, "two", owner.ID)
	red := testutil.CreateTeam(t, db, course.ID, "red", models.TeamRoleCEO)
	blue := testutil.CreateTeam(t, db, course.ID, "blue", models.TeamRoleCEO)

	created, err := repo.ExportTasks(ctx, []uint64{red.ID}, []uint64{t1.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created)

	created, err = repo.ExportTasks(ctx, []uint64{red.ID, blue.ID}, []uint64{t1.ID, t2.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), created)

	tasks, err := repo.ListTeamTasks(ctx, red.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "one", tasks[0].Task.Name)
	assert.Equal(t, models.TaskStatusTodo, tasks[1].Status)
}

func TestUpsertMember_ChangesRole(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewTeamRepository(db)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner@example.com")
	ws := testutil.CreateWorkspace(t, db, "alpha", owner)
	course := testutil.CreateCourse(t, db, ws.ID, "go101", owner)
	team := testutil.CreateTeam(t, db, course.ID, "red", models.TeamRoleCEO, owner)

	require.NoError(t, repo.UpsertMember(ctx, &models.TeamMember{TeamID: team.ID, UserID: owner.ID, Role: models.TeamRoleCFO}))

	member, err := repo.FindMember(ctx, team.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TeamRoleCFO, member.Role)
}
