package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/learning-platform-api/internal/constants"
	apierrors "github.com/yukikurage/learning-platform-api/internal/errors"
	"github.com/yukikurage/learning-platform-api/internal/lifecycle"
	"github.com/yukikurage/learning-platform-api/internal/middleware"
	"github.com/yukikurage/learning-platform-api/internal/repository"
	"github.com/yukikurage/learning-platform-api/internal/services"
)

// bindJSON binds the request body into req, answering 400 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		apierrors.Respond(c, apierrors.FromBindingError(err))
		return false
	}
	return true
}

// parseQueryID reads a positive integer query parameter, answering 400 when
// it is malformed.
func parseQueryID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil || id == 0 {
		apierrors.Respond(c, apierrors.NewValidation(apierrors.ErrCodeInvalidInput, "Invalid "+name,
			apierrors.FieldError{Field: name, Message: "must be a positive integer"}))
		c.Abort()
		return 0, false
	}
	return id, true
}

func currentUserID(c *gin.Context) (uint64, bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return 0, false
	}
	return userID, true
}

func courseAccess(c *gin.Context) (*services.CourseAccess, bool) {
	access, ok := middleware.GetCourseAccess(c)
	if !ok {
		apierrors.InternalError(c, "Course access not resolved")
	}
	return access, ok
}

func teamAccess(c *gin.Context) (*services.TeamAccess, bool) {
	access, ok := middleware.GetTeamAccess(c)
	if !ok {
		apierrors.InternalError(c, "Team access not resolved")
	}
	return access, ok
}

func workspaceAccess(c *gin.Context) (*services.WorkspaceAccess, bool) {
	access, ok := middleware.GetWorkspaceAccess(c)
	if !ok {
		apierrors.InternalError(c, "Workspace access not resolved")
	}
	return access, ok
}

// readUpload reads the multipart "file" field into memory, refusing
// anything larger than the upload limit.
func readUpload(c *gin.Context) (services.Upload, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		apierrors.Respond(c, apierrors.NewValidation(apierrors.ErrCodeInvalidInput, "A file is required",
			apierrors.FieldError{Field: "file", Message: "is required"}))
		return services.Upload{}, false
	}

	f, err := header.Open()
	if err != nil {
		apierrors.Respond(c, err)
		return services.Upload{}, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, constants.MaxUploadSize+1))
	if err != nil {
		apierrors.Respond(c, err)
		return services.Upload{}, false
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return services.Upload{
		FileName:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, true
}

// WorkItems resolves the task or team task a product, prompt or comment
// route works on, and the lifecycle actor performing the request.
type WorkItems struct {
	tasks *services.TaskService
	teams *services.TeamService
}

func NewWorkItems(tasks *services.TaskService, teams *services.TeamService) *WorkItems {
	return &WorkItems{tasks: tasks, teams: teams}
}

// Individual resolves :task_id inside the course resolved by RequireCourseRole.
func (w *WorkItems) Individual() gin.HandlerFunc {
	return func(c *gin.Context) {
		access, ok := courseAccess(c)
		if !ok {
			c.Abort()
			return
		}
		taskID, ok := middleware.ParseIDParam(c, "task_id")
		if !ok {
			return
		}
		task, err := w.tasks.GetTask(c.Request.Context(), access.Course.ID, taskID)
		if err != nil {
			apierrors.Respond(c, err)
			c.Abort()
			return
		}

		role := access.Role
		c.Set(constants.ContextKeyWorkItem, repository.WorkItem{TaskID: task.ID})
		c.Set(constants.ContextKeyActor, lifecycle.Actor{UserID: c.GetUint64(constants.ContextKeyUserID), CourseRole: &role})
		c.Next()
	}
}

// Team resolves :team_task_id inside the team resolved by RequireTeamAccess.
func (w *WorkItems) Team() gin.HandlerFunc {
	return func(c *gin.Context) {
		access, ok := teamAccess(c)
		if !ok {
			c.Abort()
			return
		}
		teamTaskID, ok := middleware.ParseIDParam(c, "team_task_id")
		if !ok {
			return
		}
		teamTask, err := w.teams.GetTeamTask(c.Request.Context(), access.Team.ID, teamTaskID)
		if err != nil {
			apierrors.Respond(c, err)
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyWorkItem, repository.WorkItem{TaskID: teamTask.TaskID, TeamTaskID: teamTask.ID})
		c.Set(constants.ContextKeyActor, lifecycle.Actor{
			UserID:     c.GetUint64(constants.ContextKeyUserID),
			CourseRole: access.CourseRole,
			TeamMember: access.IsMember(),
		})
		c.Next()
	}
}

// Commented resolves the item of a comment route: :task_id, optionally
// narrowed to one of its team copies by the team_task_id query parameter.
func (w *WorkItems) Commented() gin.HandlerFunc {
	return func(c *gin.Context) {
		access, ok := courseAccess(c)
		if !ok {
			c.Abort()
			return
		}
		taskID, ok := middleware.ParseIDParam(c, "task_id")
		if !ok {
			return
		}
		task, err := w.tasks.GetTask(c.Request.Context(), access.Course.ID, taskID)
		if err != nil {
			apierrors.Respond(c, err)
			c.Abort()
			return
		}

		item := repository.WorkItem{TaskID: task.ID}
		if raw := c.Query("team_task_id"); raw != "" && raw != "0" {
			teamTaskID, ok := parseQueryID(c, "team_task_id")
			if !ok {
				return
			}
			teamTask, err := w.teams.FindTeamTaskOfTask(c.Request.Context(), task.ID, teamTaskID)
			if err != nil {
				apierrors.Respond(c, err)
				c.Abort()
				return
			}
			item.TeamTaskID = teamTask.ID
		}

		c.Set(constants.ContextKeyWorkItem, item)
		c.Next()
	}
}

func workItem(c *gin.Context) (repository.WorkItem, bool) {
	v, exists := c.Get(constants.ContextKeyWorkItem)
	item, ok := v.(repository.WorkItem)
	if !exists || !ok {
		apierrors.InternalError(c, "Work item not resolved")
		return repository.WorkItem{}, false
	}
	return item, true
}

func actor(c *gin.Context) (lifecycle.Actor, bool) {
	v, exists := c.Get(constants.ContextKeyActor)
	a, ok := v.(lifecycle.Actor)
	if !exists || !ok {
		apierrors.InternalError(c, "Actor not resolved")
		return lifecycle.Actor{}, false
	}
	return a, true
}
