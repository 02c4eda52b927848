package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	apierrors "github.com/yukikurage/learning-platform-api/internal/errors"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/repository"
)

const CodeNotCourseMembers = "TEAM_MEMBER_NOT_IN_COURSE"

var ErrNotCourseMembers = apierrors.NewValidation(CodeNotCourseMembers, "Every team member must belong to the course")

// TeamService provides business logic for teams and their exported tasks.
type TeamService struct {
	teams   repository.TeamRepository
	courses repository.CourseRepository
	tasks   repository.TaskRepository
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewTeamService creates a new TeamService.
func NewTeamService(teams repository.TeamRepository, courses repository.CourseRepository, tasks repository.TaskRepository, log logrus.FieldLogger) *TeamService {
	return &TeamService{
		teams:   teams,
		courses: courses,
		tasks:   tasks,
		log:     log,
		now:     time.Now,
	}
}

// TeamMemberInput assigns a team role to a course member.
type TeamMemberInput struct {
	UserID uint64
	Role   models.TeamRole
}

// TeamInput holds the editable team fields. Members are only read on create.
type TeamInput struct {
	Name        *string
	Description *string
	Members     []TeamMemberInput
}

// CreateTeam creates a team inside a course with its initial members.
func (s *TeamService) CreateTeam(ctx context.Context, courseID uint64, input TeamInput) (*models.Team, error) {
	team := &models.Team{CourseID: courseID}
	if err := applyTeamInput(team, input); err != nil {
		return nil, err
	}

	members := make([]models.TeamMember, 0, len(input.Members))
	seen := make(map[uint64]bool, len(input.Members))
	userIDs := make([]uint64, 0, len(input.Members))
	for _, m := range input.Members {
		if !m.Role.Valid() {
			return nil, invalidField("members.role", "must be one of [CEO CPO CMO COO CTO CFO]")
		}
		if seen[m.UserID] {
			return nil, invalidField("members.user_id", "must not repeat")
		}
		seen[m.UserID] = true
		userIDs = append(userIDs, m.UserID)
		members = append(members, models.TeamMember{UserID: m.UserID, Role: m.Role, JoinedAt: s.now()})
	}
	if err := s.requireCourseMembers(ctx, courseID, userIDs); err != nil {
		return nil, err
	}

	if err := s.teams.CreateWithMembers(ctx, team, members); err != nil {
		return nil, wrap(err, "create team")
	}
	return s.GetTeam(ctx, team.ID)
}

// ListTeams returns the teams of a course with their members.
func (s *TeamService) ListTeams(ctx context.Context, courseID uint64) ([]models.Team, error) {
	teams, err := s.teams.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, wrap(err, "list teams")
	}
	return teams, nil
}

// GetTeam returns a team with its members.
func (s *TeamService) GetTeam(ctx context.Context, teamID uint64) (*models.Team, error) {
	team, err := s.teams.FindByID(ctx, teamID, "Members", "Members.User")
	if err != nil {
		return nil, notFound(err, ErrTeamNotFound, "find team")
	}
	return team, nil
}

// UpdateTeam changes the team name or description.
func (s *TeamService) UpdateTeam(ctx context.Context, team *models.Team, input TeamInput) (*models.Team, error) {
	if err := applyTeamInput(team, input); err != nil {
		return nil, err
	}
	if err := s.teams.Update(ctx, team); err != nil {
		return nil, wrap(err, "update team")
	}
	return s.GetTeam(ctx, team.ID)
}

// DeleteTeam removes the team with its team tasks and their work.
func (s *TeamService) DeleteTeam(ctx context.Context, teamID uint64) error {
	if err := s.teams.Delete(ctx, teamID); err != nil {
		return wrap(err, "delete team")
	}
	return nil
}

// SetMember adds a course member to the team or changes their role.
func (s *TeamService) SetMember(ctx context.Context, team *models.Team, input TeamMemberInput) (*models.Team, error) {
	if !input.Role.Valid() {
		return nil, invalidField("role", "must be one of [CEO CPO CMO COO CTO CFO]")
	}
	if err := s.requireCourseMembers(ctx, team.CourseID, []uint64{input.UserID}); err != nil {
		return nil, err
	}

	member := &models.TeamMember{
		TeamID:   team.ID,
		UserID:   input.UserID,
		Role:     input.Role,
		JoinedAt: s.now(),
	}
	if err := s.teams.UpsertMember(ctx, member); err != nil {
		return nil, wrap(err, "set team member")
	}
	return s.GetTeam(ctx, team.ID)
}

// RemoveMember takes a user out of the team.
func (s *TeamService) RemoveMember(ctx context.Context, teamID, userID uint64) error {
	if _, err := s.teams.FindMember(ctx, teamID, userID); err != nil {
		return notFound(err, apierrors.NewNotFound("TEAM_MEMBER_NOT_FOUND", "Team member not found"), "find team member")
	}
	if err := s.teams.RemoveMember(ctx, teamID, userID); err != nil {
		return wrap(err, "remove team member")
	}
	return nil
}

// ExportModule copies every task of a module to every team of the course.
// Pairs that were exported before are left as they are.
func (s *TeamService) ExportModule(ctx context.Context, courseID, moduleID uint64) (int64, error) {
	if _, err := s.tasks.FindModule(ctx, courseID, moduleID); err != nil {
		return 0, notFound(err, ErrModuleNotFound, "find module")
	}

	tasks, _, err := s.tasks.List(ctx, repository.TaskFilter{ModuleID: moduleID})
	if err != nil {
		return 0, wrap(err, "list tasks")
	}
	teams, err := s.teams.ListByCourse(ctx, courseID)
	if err != nil {
		return 0, wrap(err, "list teams")
	}

	taskIDs := make([]uint64, len(tasks))
	for i, t := range tasks {
		taskIDs[i] = t.ID
	}
	teamIDs := make([]uint64, len(teams))
	for i, t := range teams {
		teamIDs[i] = t.ID
	}

	created, err := s.teams.ExportTasks(ctx, teamIDs, taskIDs)
	if err != nil {
		return 0, wrap(err, "export tasks")
	}

	s.log.WithFields(logrus.Fields{
		"course_id": courseID,
		"module_id": moduleID,
		"created":   created,
	}).Info("Module exported to teams")
	return created, nil
}

// ListTeamTasks returns the tasks exported to a team.
func (s *TeamService) ListTeamTasks(ctx context.Context, teamID uint64) ([]models.TeamTask, error) {
	teamTasks, err := s.teams.ListTeamTasks(ctx, teamID)
	if err != nil {
		return nil, wrap(err, "list team tasks")
	}
	return teamTasks, nil
}

// GetTeamTask returns a task exported to the team.
func (s *TeamService) GetTeamTask(ctx context.Context, teamID, teamTaskID uint64) (*models.TeamTask, error) {
	teamTask, err := s.teams.FindTeamTask(ctx, teamID, teamTaskID)
	if err != nil {
		return nil, notFound(err, ErrTeamTaskNotFound, "find team task")
	}
	return teamTask, nil
}

// FindTeamTaskOfTask returns the team copy teamTaskID of taskID.
func (s *TeamService) FindTeamTaskOfTask(ctx context.Context, taskID, teamTaskID uint64) (*models.TeamTask, error) {
	teamTask, err := s.teams.FindTeamTaskOfTask(ctx, taskID, teamTaskID)
	if err != nil {
		return nil, notFound(err, ErrTeamTaskNotFound, "find team task")
	}
	return teamTask, nil
}

func (s *TeamService) requireCourseMembers(ctx context.Context, courseID uint64, userIDs []uint64) error {
	if len(userIDs) == 0 {
		return nil
	}
	count, err := s.courses.CountMembersAmong(ctx, courseID, userIDs)
	if err != nil {
		return wrap(err, "check course members")
	}
	if count != int64(len(userIDs)) {
		return ErrNotCourseMembers
	}
	return nil
}

func applyTeamInput(team *models.Team, input TeamInput) error {
	if input.Name != nil {
		team.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		team.Description = *input.Description
	}
	if team.Name == "" {
		return invalidField("name", "is required")
	}
	return nil
}
