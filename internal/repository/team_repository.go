package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yukikurage/learning-platform-api/internal/models"
)

// GormTeamRepository is a GORM implementation of TeamRepository
type GormTeamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new TeamRepository
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &GormTeamRepository{db: db}
}

// CreateWithMembers creates a team and its members in one transaction
func (r *GormTeamRepository) CreateWithMembers(ctx context.Context, team *models.Team, members []models.TeamMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Members").Create(team).Error; err != nil {
			return err
		}
		if len(members) == 0 {
			return nil
		}

		for i := range members {
			members[i].TeamID = team.ID
		}
		if err := tx.Omit("User").Create(&members).Error; err != nil {
			return err
		}
		team.Members = members
		return nil
	})
}

// FindByID finds a team by ID with optional preloading
func (r *GormTeamRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Team, error) {
	var team models.Team
	query := r.db.WithContext(ctx)
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&team, id).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// Update updates a team
func (r *GormTeamRepository) Update(ctx context.Context, team *models.Team) error {
	return r.db.WithContext(ctx).Omit("Members").Save(team).Error
}

// Delete deletes a team and its work
func (r *GormTeamRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteTeamWork(tx, []uint64{id}); err != nil {
			return err
		}
		return tx.Delete(&models.Team{}, id).Error
	})
}

// ListByCourse lists the teams of a course with members
func (r *GormTeamRepository) ListByCourse(ctx context.Context, courseID uint64) ([]models.Team, error) {
	var teams []models.Team
	if err := r.db.WithContext(ctx).
		Preload("Members").
		Preload("Members.User").
		Where("course_id = ?", courseID).
		Order("id ASC").
		Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

// FindMember finds a specific team member
func (r *GormTeamRepository) FindMember(ctx context.Context, teamID, userID uint64) (*models.TeamMember, error) {
	var member models.TeamMember
	if err := r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// UpsertMember adds a member or changes their role
func (r *GormTeamRepository) UpsertMember(ctx context.Context, member *models.TeamMember) error {
	return r.db.WithContext(ctx).
		Omit("User").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "team_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role"}),
		}).
		Create(member).Error
}

// RemoveMember removes a member from a team
func (r *GormTeamRepository) RemoveMember(ctx context.Context, teamID, userID uint64) error {
	return r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Delete(&models.TeamMember{}).Error
}

// ExportTasks creates the missing team tasks. Existing pairs are skipped, so
// exporting the same module twice is harmless.
func (r *GormTeamRepository) ExportTasks(ctx context.Context, teamIDs, taskIDs []uint64) (int64, error) {
	if len(teamIDs) == 0 || len(taskIDs) == 0 {
		return 0, nil
	}

	rows := make([]models.TeamTask, 0, len(teamIDs)*len(taskIDs))
	for _, teamID := range teamIDs {
		for _, taskID := range taskIDs {
			rows = append(rows, models.TeamTask{
				TeamID: teamID,
				TaskID: taskID,
				Status: models.TaskStatusTodo,
			})
		}
	}

	result := r.db.WithContext(ctx).
		Omit("Task").
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&rows, 100)
	return result.RowsAffected, result.Error
}

// FindTeamTask finds a team task belonging to a team
func (r *GormTeamRepository) FindTeamTask(ctx context.Context, teamID, teamTaskID uint64) (*models.TeamTask, error) {
	var teamTask models.TeamTask
	if err := r.db.WithContext(ctx).
		Preload("Task").
		Where("id = ? AND team_id = ?", teamTaskID, teamID).
		First(&teamTask).Error; err != nil {
		return nil, err
	}
	return &teamTask, nil
}

// FindTeamTaskOfTask finds a team task by ID among the copies of taskID
func (r *GormTeamRepository) FindTeamTaskOfTask(ctx context.Context, taskID, teamTaskID uint64) (*models.TeamTask, error) {
	var teamTask models.TeamTask
	if err := r.db.WithContext(ctx).
		Where("id = ? AND task_id = ?", teamTaskID, taskID).
		First(&teamTask).Error; err != nil {
		return nil, err
	}
	return &teamTask, nil
}

// ListTeamTasks lists a team's tasks with the task preloaded
func (r *GormTeamRepository) ListTeamTasks(ctx context.Context, teamID uint64) ([]models.TeamTask, error) {
	var teamTasks []models.TeamTask
	if err := r.db.WithContext(ctx).
		Preload("Task").
		Where("team_id = ?", teamID).
		Order("id ASC").
		Find(&teamTasks).Error; err != nil {
		return nil, err
	}
	return teamTasks, nil
}
