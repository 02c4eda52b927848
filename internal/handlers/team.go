package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/learning-platform-api/internal/dto"
	apierrors "github.com/yukikurage/learning-platform-api/internal/errors"
	"github.com/yukikurage/learning-platform-api/internal/middleware"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/services"
)

type TeamHandler struct {
	teams *services.TeamService
}

func NewTeamHandler(teams *services.TeamService) *TeamHandler {
	return &TeamHandler{teams: teams}
}

// CreateTeam creates a team of course members
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	access, ok := courseAccess(c)
	if !ok {
		return
	}

	var req dto.TeamRequest
	if !bindJSON(c, &req) {
		return
	}

	team, err := h.teams.CreateTeam(c.Request.Context(), access.Course.ID, req.Input())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToTeamDTO(*team))
}

func (h *TeamHandler) ListTeams(c *gin.Context) {
	access, ok := courseAccess(c)
	if !ok {
		return
	}

	teams, err := h.teams.ListTeams(c.Request.Context(), access.Course.ID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"teams": dto.ToTeamDTOs(teams),
	})
}

// GetTeam returns the team resolved by RequireTeamAccess, with its members
func (h *TeamHandler) GetTeam(c *gin.Context) {
	access, ok := teamAccess(c)
	if !ok {
		return
	}

	team, err := h.teams.GetTeam(c.Request.Context(), access.Team.ID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTeamDTO(*team))
}

func (h *TeamHandler) UpdateTeam(c *gin.Context) {
	team, ok := h.courseTeam(c)
	if !ok {
		return
	}

	var req dto.TeamRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.teams.UpdateTeam(c.Request.Context(), team, req.Input())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTeamDTO(*updated))
}

func (h *TeamHandler) DeleteTeam(c *gin.Context) {
	team, ok := h.courseTeam(c)
	if !ok {
		return
	}

	if err := h.teams.DeleteTeam(c.Request.Context(), team.ID); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Team deleted successfully",
	})
}

// SetMember adds a member to the team or changes their role
func (h *TeamHandler) SetMember(c *gin.Context) {
	team, ok := h.courseTeam(c)
	if !ok {
		return
	}

	var req dto.TeamMemberRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.teams.SetMember(c.Request.Context(), team, req.Input())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTeamDTO(*updated))
}

func (h *TeamHandler) RemoveMember(c *gin.Context) {
	team, ok := h.courseTeam(c)
	if !ok {
		return
	}
	userID, ok := middleware.ParseIDParam(c, "user_id")
	if !ok {
		return
	}

	if err := h.teams.RemoveMember(c.Request.Context(), team.ID, userID); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Member removed successfully",
	})
}

// ExportModule copies a module's tasks to every team of the course
func (h *TeamHandler) ExportModule(c *gin.Context) {
	access, ok := courseAccess(c)
	if !ok {
		return
	}
	moduleID, ok := middleware.ParseIDParam(c, "module_id")
	if !ok {
		return
	}

	created, err := h.teams.ExportModule(c.Request.Context(), access.Course.ID, moduleID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ExportResponse{Created: created})
}

func (h *TeamHandler) ListTeamTasks(c *gin.Context) {
	access, ok := teamAccess(c)
	if !ok {
		return
	}

	tasks, err := h.teams.ListTeamTasks(c.Request.Context(), access.Team.ID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"team_tasks": dto.ToTeamTaskDTOs(tasks),
	})
}

// courseTeam loads :team_id for routes guarded by a course role only.
// A team from another course is reported as missing.
func (h *TeamHandler) courseTeam(c *gin.Context) (*models.Team, bool) {
	access, ok := courseAccess(c)
	if !ok {
		return nil, false
	}
	teamID, ok := middleware.ParseIDParam(c, "team_id")
	if !ok {
		return nil, false
	}

	team, err := h.teams.GetTeam(c.Request.Context(), teamID)
	if err != nil {
		apierrors.Respond(c, err)
		return nil, false
	}
	if team.CourseID != access.Course.ID {
		apierrors.Respond(c, services.ErrTeamNotFound)
		return nil, false
	}
	return team, true
}
