package repository

import (
	"gorm.io/gorm"

	"github.com/yukikurage/learning-platform-api/internal/models"
)

// The helpers below remove dependent rows child-first so that foreign keys
// hold at every step. They must run inside a transaction. Those that remove
// guide attachments return their storage paths; the blobs are the caller's
// to delete once the transaction has committed.

func deleteTaskTrees(tx *gorm.DB, taskIDs []uint64) ([]string, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}

	products := tx.Model(&models.Product{}).Select("id").Where("task_id IN ?", taskIDs)
	if err := tx.Where("product_id IN (?)", products).Delete(&models.ProductVersion{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.Product{}).Error; err != nil {
		return nil, err
	}

	prompts := tx.Model(&models.PromptConversation{}).Select("id").Where("task_id IN ?", taskIDs)
	if err := tx.Where("prompt_id IN (?)", prompts).Delete(&models.PromptFeedback{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.PromptConversation{}).Error; err != nil {
		return nil, err
	}

	comments := tx.Unscoped().Model(&models.Comment{}).Select("id").Where("task_id IN ?", taskIDs)
	if err := tx.Where("comment_id IN (?)", comments).Delete(&models.CommentMention{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Unscoped().Where("task_id IN ?", taskIDs).Delete(&models.Comment{}).Error; err != nil {
		return nil, err
	}

	guides := tx.Model(&models.Guide{}).Select("id").Where("task_id IN ?", taskIDs)
	var paths []string
	if err := tx.Model(&models.Attachment{}).Where("guide_id IN (?)", guides).Pluck("storage_path", &paths).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("guide_id IN (?)", guides).Delete(&models.Attachment{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.Guide{}).Error; err != nil {
		return nil, err
	}

	if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.TeamTask{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("id IN ?", taskIDs).Delete(&models.Task{}).Error; err != nil {
		return nil, err
	}
	return paths, nil
}

// deleteTeamWork removes what a team produced on its team tasks, then the
// team tasks and memberships. The team rows themselves are left to the caller.
func deleteTeamWork(tx *gorm.DB, teamIDs []uint64) error {
	if len(teamIDs) == 0 {
		return nil
	}

	var teamTaskIDs []uint64
	if err := tx.Model(&models.TeamTask{}).Where("team_id IN ?", teamIDs).Pluck("id", &teamTaskIDs).Error; err != nil {
		return err
	}

	if len(teamTaskIDs) > 0 {
		products := tx.Model(&models.Product{}).Select("id").Where("team_task_id IN ?", teamTaskIDs)
		if err := tx.Where("product_id IN (?)", products).Delete(&models.ProductVersion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("team_task_id IN ?", teamTaskIDs).Delete(&models.Product{}).Error; err != nil {
			return err
		}

		prompts := tx.Model(&models.PromptConversation{}).Select("id").Where("team_task_id IN ?", teamTaskIDs)
		if err := tx.Where("prompt_id IN (?)", prompts).Delete(&models.PromptFeedback{}).Error; err != nil {
			return err
		}
		if err := tx.Where("team_task_id IN ?", teamTaskIDs).Delete(&models.PromptConversation{}).Error; err != nil {
			return err
		}

		comments := tx.Unscoped().Model(&models.Comment{}).Select("id").Where("team_task_id IN ?", teamTaskIDs)
		if err := tx.Where("comment_id IN (?)", comments).Delete(&models.CommentMention{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("team_task_id IN ?", teamTaskIDs).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		if err := tx.Where("id IN ?", teamTaskIDs).Delete(&models.TeamTask{}).Error; err != nil {
			return err
		}
	}

	return tx.Where("team_id IN ?", teamIDs).Delete(&models.TeamMember{}).Error
}

func deleteCourseTrees(tx *gorm.DB, courseIDs []uint64) ([]string, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}

	var teamIDs []uint64
	if err := tx.Model(&models.Team{}).Where("course_id IN ?", courseIDs).Pluck("id", &teamIDs).Error; err != nil {
		return nil, err
	}
	if err := deleteTeamWork(tx, teamIDs); err != nil {
		return nil, err
	}
	if err := tx.Where("course_id IN ?", courseIDs).Delete(&models.Team{}).Error; err != nil {
		return nil, err
	}

	var taskIDs []uint64
	if err := tx.Model(&models.Task{}).Where("course_id IN ?", courseIDs).Pluck("id", &taskIDs).Error; err != nil {
		return nil, err
	}
	paths, err := deleteTaskTrees(tx, taskIDs)
	if err != nil {
		return nil, err
	}

	if err := tx.Where("course_id IN ?", courseIDs).Delete(&models.Module{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("course_id IN ?", courseIDs).Delete(&models.CourseMember{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("scope_type = ? AND scope_id IN ?", models.InviteScopeCourse, courseIDs).
		Delete(&models.InviteToken{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("id IN ?", courseIDs).Delete(&models.Course{}).Error; err != nil {
		return nil, err
	}
	return paths, nil
}
