package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/learning-platform-api/internal/dto"
	apierrors "github.com/yukikurage/learning-platform-api/internal/errors"
	"github.com/yukikurage/learning-platform-api/internal/middleware"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/services"
	"github.com/yukikurage/learning-platform-api/internal/utils"
)

// TaskHandler serves a course's modules and the tasks inside them.
type TaskHandler struct {
	tasks *services.TaskService
}

func NewTaskHandler(tasks *services.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

func (h *TaskHandler) CreateModule(c *gin.Context) {
	access, ok := courseAccess(c)
	if !ok {
		return
	}

	var req dto.ModuleRequest
	if !bindJSON(c, &req) {
		return
	}

	module, err := h.tasks.CreateModule(c.Request.Context(), access.Course.ID, req.Input())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToModuleDTO(*module))
}

// ListModules returns the course's modules in order, each with its tasks
func (h *TaskHandler) ListModules(c *gin.Context) {
	access, ok := courseAccess(c)
	if !ok {
		return
	}

	modules, err := h.tasks.ListModules(c.Request.Context(), access.Course.ID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"modules": dto.ToModuleDTOs(modules),
	})
}

func (h *TaskHandler) UpdateModule(c *gin.Context) {
	access, ok := courseAccess(c)
	if !ok {
		return
	}
	moduleID, ok := middleware.ParseIDParam(c, "module_id")
	if !ok {
		return
	}

	var req dto.ModuleRequest
	if !bindJSON(c, &req) {
		return
	}

	module, err := h.tasks.UpdateModule(c.Request.Context(), access.Course.ID, moduleID, req.Input())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToModuleDTO(*module))
}

func (h *TaskHandler) DeleteModule(c *gin.Context) {
	access, ok := courseAccess(c)
	if !ok {
		return
	}
	moduleID, ok := middleware.ParseIDParam(c, "module_id")
	if !ok {
		return
	}

	if err := h.tasks.DeleteModule(c.Request.Context(), access.Course.ID, moduleID); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Module deleted successfully",
	})
}

// CreateTask creates a new task in a module
func (h *TaskHandler) CreateTask(c *gin.Context) {
	access, ok := courseAccess(c)
	if !ok {
		return
	}
	moduleID, ok := middleware.ParseIDParam(c, "module_id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.TaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), access.Course.ID, moduleID, userID, req.Input())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// ListTasks returns a page of a module's tasks
// Can filter by status
func (h *TaskHandler) ListTasks(c *gin.Context) {
	access, ok := courseAccess(c)
	if !ok {
		return
	}
	moduleID, ok := middleware.ParseIDParam(c, "module_id")
	if !ok {
		return
	}

	var status *models.TaskStatus
	if raw := c.Query("status"); raw != "" {
		s := models.TaskStatus(raw)
		status = &s
	}

	params := utils.GetPaginationParams(c)
	tasks, total, err := h.tasks.ListTasks(c.Request.Context(), access.Course.ID, moduleID, status, params)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks":      dto.ToTaskDTOs(tasks),
		"pagination": utils.NewPaginationResponse(params, total),
	})
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	access, ok := courseAccess(c)
	if !ok {
		return
	}
	taskID, ok := middleware.ParseIDParam(c, "task_id")
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(c.Request.Context(), access.Course.ID, taskID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// UpdateTask updates a task
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	access, ok := courseAccess(c)
	if !ok {
		return
	}
	taskID, ok := middleware.ParseIDParam(c, "task_id")
	if !ok {
		return
	}

	var req dto.TaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), access.Course.ID, taskID, req.Input())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	access, ok := courseAccess(c)
	if !ok {
		return
	}
	taskID, ok := middleware.ParseIDParam(c, "task_id")
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(c.Request.Context(), access.Course.ID, taskID); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}
