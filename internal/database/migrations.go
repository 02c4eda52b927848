package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yukikurage/learning-platform-api/internal/models"
)

// AddIndexes adds the composite indexes that struct tags do not express.
func AddIndexes(db *gorm.DB, log logrus.FieldLogger) error {
	indexes := []struct {
		model   interface{}
		table   string
		name    string
		columns string
	}{
		// Module and task listings are ordered within their parent
		{&models.Module{}, "modules", "idx_modules_course_order", "course_id, order_index"},
		{&models.Task{}, "tasks", "idx_tasks_module_order", "module_id, order_index"},
		{&models.Task{}, "tasks", "idx_tasks_module_status", "module_id, status"},

		// Membership lookups by user
		{&models.WorkspaceMember{}, "workspace_members", "idx_workspace_members_user_id", "user_id"},
		{&models.CourseMember{}, "course_members", "idx_course_members_user_id", "user_id"},
		{&models.TeamMember{}, "team_members", "idx_team_members_user_id", "user_id"},

		// Threads are read per tab, newest last
		{&models.Comment{}, "comments", "idx_comments_tab_created", "task_id, team_task_id, tab_type, created_at"},
		{&models.PromptConversation{}, "prompt_conversations", "idx_prompts_user_created", "user_id, created_at"},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.model, idx.name) {
			log.WithField("index", idx.name).Debug("Index already exists, skipping")
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.WithField("index", idx.name).Infof("Created index on %s(%s)", idx.table, idx.columns)
	}

	return nil
}
