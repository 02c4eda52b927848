package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/learning-platform-api/internal/dto"
	apierrors "github.com/yukikurage/learning-platform-api/internal/errors"
	"github.com/yukikurage/learning-platform-api/internal/services"
	"github.com/yukikurage/learning-platform-api/internal/utils"
)

type CourseHandler struct {
	courses *services.CourseService
}

func NewCourseHandler(courses *services.CourseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// CreateCourse creates a course in the workspace; the caller becomes its Manager
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	access, ok := workspaceAccess(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.CourseRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.courses.CreateCourse(c.Request.Context(), access.Workspace.ID, userID, req.Input())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToCourseDTO(*view))
}

// ListCourses returns a page of the workspace's courses
func (h *CourseHandler) ListCourses(c *gin.Context) {
	access, ok := workspaceAccess(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	views, total, err := h.courses.ListCourses(c.Request.Context(), access.Workspace.ID, userID, params)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"courses":    dto.ToCourseDTOs(views),
		"pagination": utils.NewPaginationResponse(params, total),
	})
}

func (h *CourseHandler) GetCourse(c *gin.Context) {
	access, ok := courseAccess(c)
	if !ok {
		return
	}

	view, err := h.courses.GetCourse(c.Request.Context(), access)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCourseDTO(*view))
}

func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	access, ok := courseAccess(c)
	if !ok {
		return
	}

	var req dto.CourseRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.courses.UpdateCourse(c.Request.Context(), access, req.Input())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCourseDTO(*view))
}

// DeleteCourse removes the course with its modules, tasks and teams
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	access, ok := courseAccess(c)
	if !ok {
		return
	}

	if err := h.courses.DeleteCourse(c.Request.Context(), access.Course.ID); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Course deleted successfully",
	})
}

func (h *CourseHandler) ListMembers(c *gin.Context) {
	access, ok := courseAccess(c)
	if !ok {
		return
	}

	members, err := h.courses.ListMembers(c.Request.Context(), access.Course.ID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"members": dto.ToCourseMemberDTOs(members),
	})
}
