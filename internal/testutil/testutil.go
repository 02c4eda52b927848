// Package testutil builds in-memory databases and fixtures for package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yukikurage/learning-platform-api/internal/database"
	"github.com/yukikurage/learning-platform-api/internal/models"
)

// Now is a fixed instant tests use as the service clock.
var Now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// Clock returns a clock function that always answers t.
func Clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// NewLogger returns a logger that discards everything below panic.
func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// NewDB opens a migrated in-memory SQLite database. A single connection is
// kept so every query sees the same memory database; this also serializes
// concurrent transactions.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         database.NewLogger(NewLogger(), "silent"),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db, NewLogger()))

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

// CreateUser inserts an account whose nick is derived from the email.
func CreateUser(t testing.TB, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:    email,
		NickName: "nick-" + email,
		RealName: "Real " + email,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateAdmin inserts a system administrator account.
func CreateAdmin(t testing.TB, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := CreateUser(t, db, email)
	require.NoError(t, db.Model(user).Update("is_system_admin", true).Error)
	user.IsSystemAdmin = true
	return user
}

// CreateWorkspace inserts a workspace owned by owner, with the Owner membership.
func CreateWorkspace(t testing.TB, db *gorm.DB, name string, owner *models.User) *models.Workspace {
	t.Helper()
	ws := &models.Workspace{Name: name, OwnerID: owner.ID}
	require.NoError(t, db.Omit("Owner", "Members").Create(ws).Error)
	AddWorkspaceMember(t, db, ws.ID, owner.ID, models.WorkspaceRoleOwner)
	return ws
}

// AddWorkspaceMember inserts a workspace membership.
func AddWorkspaceMember(t testing.TB, db *gorm.DB, workspaceID, userID uint64, role models.WorkspaceRole) {
	t.Helper()
	require.NoError(t, db.Omit("Workspace", "User").Create(&models.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        role,
		JoinedAt:    Now,
	}).Error)
}

// CreateCourse inserts a course with manager as its Manager.
func CreateCourse(t testing.TB, db *gorm.DB, workspaceID uint64, name string, manager *models.User) *models.Course {
	t.Helper()
	course := &models.Course{
		WorkspaceID: workspaceID,
		Name:        name,
		Status:      models.CourseStatusActive,
		CreatedBy:   manager.ID,
	}
	require.NoError(t, db.Omit("Workspace", "Members").Create(course).Error)
	AddCourseMember(t, db, course.ID, manager.ID, models.CourseRoleManager)
	return course
}

// AddCourseMember inserts a course membership.
func AddCourseMember(t testing.TB, db *gorm.DB, courseID, userID uint64, role models.CourseRole) {
	t.Helper()
	require.NoError(t, db.Omit("Course", "User").Create(&models.CourseMember{
		CourseID: courseID,
		UserID:   userID,
		Role:     role,
		JoinedAt: Now,
	}).Error)
}

// CreateModule inserts a module in a course.
func CreateModule(t testing.TB, db *gorm.DB, courseID uint64, name string) *models.Module {
	t.Helper()
	module := &models.Module{CourseID: courseID, Name: name}
	require.NoError(t, db.Omit("Tasks").Create(module).Error)
	return module
}

// CreateTask inserts a task in a module.
func CreateTask(t testing.TB, db *gorm.DB, module *models.Module, name string, creatorID uint64) *models.Task {
	t.Helper()
	task := &models.Task{
		ModuleID:  module.ID,
		CourseID:  module.CourseID,
		Name:      name,
		Status:    models.TaskStatusTodo,
		CreatedBy: creatorID,
	}
	require.NoError(t, db.Omit("Module").Create(task).Error)
	return task
}

// CreateTeam inserts a team whose members all hold role.
func CreateTeam(t testing.TB, db *gorm.DB, courseID uint64, name string, role models.TeamRole, members ...*models.User) *models.Team {
	t.Helper()
	team := &models.Team{CourseID: courseID, Name: name}
	require.NoError(t, db.Omit("Members").Create(team).Error)
	for _, u := range members {
		require.NoError(t, db.Omit("User").Create(&models.TeamMember{
			TeamID:   team.ID,
			UserID:   u.ID,
			Role:     role,
			JoinedAt: Now,
		}).Error)
	}
	return team
}

// CreateTeamTask exports one task to one team.
func CreateTeamTask(t testing.TB, db *gorm.DB, teamID, taskID uint64) *models.TeamTask {
	t.Helper()
	tt := &models.TeamTask{TeamID: teamID, TaskID: taskID, Status: models.TaskStatusTodo}
	require.NoError(t, db.Omit("Task").Create(tt).Error)
	return tt
}

var inviteSeq atomic.Int64

// CreateInvite inserts an invite token expiring at expiresAt.
func CreateInvite(t testing.TB, db *gorm.DB, scope models.InviteScope, scopeID uint64, role string, maxUses int, expiresAt time.Time) *models.InviteToken {
	t.Helper()
	invite := &models.InviteToken{
		ScopeType: scope,
		ScopeID:   scopeID,
		Role:      role,
		Token:     fmt.Sprintf("token-%s-%d-%d", scope, scopeID, inviteSeq.Add(1)),
		MaxUses:   maxUses,
		ExpiresAt: expiresAt,
		CreatedBy: 1,
	}
	require.NoError(t, db.Create(invite).Error)
	return invite
}
