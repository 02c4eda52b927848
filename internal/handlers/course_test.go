package handlers

import (
	"fmt"
	"net/http"

	"github.com/yukikurage/learning-platform-api/internal/dto"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/services"
	"github.com/yukikurage/learning-platform-api/internal/testutil"
)

func (suite *APITestSuite) TestCreateCourseMakesCreatorManager() {
	owner := testutil.CreateUser(suite.T(), suite.db, "owner@example.com")
	ws := testutil.CreateWorkspace(suite.T(), suite.db, "School", owner)

	path := fmt.Sprintf("/api/workspaces/%d/courses", ws.ID)
	w := suite.request(http.MethodPost, path, owner.Email, map[string]string{"name": "Design", "status": "active"})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var course dto.CourseDTO
	suite.decode(w, &course)
	suite.Require().NotNil(course.MyRole)
	suite.Equal(models.CourseRoleManager, *course.MyRole)
	suite.Equal(models.CourseStatusActive, course.Status)

	w = suite.request(http.MethodPost, path, owner.Email, map[string]string{"name": "Bad", "status": "archived"})
	suite.requireError(w, http.StatusBadRequest, "INVALID_INPUT")

	w = suite.request(http.MethodGet, path, owner.Email, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var list struct {
		Courses    []dto.CourseDTO `json:"courses"`
		Pagination struct {
			TotalCount int64 `json:"total_count"`
		} `json:"pagination"`
	}
	suite.decode(w, &list)
	suite.Len(list.Courses, 1)
	suite.Equal(int64(1), list.Pagination.TotalCount)
}

func (suite *APITestSuite) TestCourseRoleGuards() {
	f := suite.newCourse()

	// Expert may author content but not delete the course.
	w := suite.request(http.MethodDelete, f.path(""), f.expert.Email, nil)
	body := suite.requireError(w, http.StatusForbidden, "COURSE_ROLE_REQUIRED")
	suite.Equal([]interface{}{"Manager"}, body.Details["required_roles"])

	w = suite.request(http.MethodPost, f.path("/modules"), f.participant.Email, map[string]string{"name": "Advanced"})
	suite.requireError(w, http.StatusForbidden, "COURSE_ROLE_REQUIRED")

	w = suite.request(http.MethodPost, f.path("/modules"), f.expert.Email, map[string]interface{}{"name": "Advanced", "order_index": 2})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var module dto.ModuleDTO
	suite.decode(w, &module)

	w = suite.request(http.MethodPost, f.path("/modules/%d/tasks", module.ID), f.expert.Email, map[string]string{"name": "Chain prompts"})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var task dto.TaskDTO
	suite.decode(w, &task)
	suite.Equal(models.TaskStatusTodo, task.Status)
	suite.Equal(f.course.ID, task.CourseID)

	w = suite.request(http.MethodGet, f.path("/modules/%d/tasks?status=Todo", module.ID), f.participant.Email, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var tasks struct {
		Tasks []dto.TaskDTO `json:"tasks"`
	}
	suite.decode(w, &tasks)
	suite.Len(tasks.Tasks, 1)

	w = suite.request(http.MethodDelete, f.path("/tasks/%d", task.ID), f.expert.Email, nil)
	suite.requireError(w, http.StatusForbidden, "COURSE_ROLE_REQUIRED")
	w = suite.request(http.MethodDelete, f.path("/tasks/%d", task.ID), f.manager.Email, nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.requireError(suite.request(http.MethodGet, f.path("/tasks/%d", task.ID), f.manager.Email, nil), http.StatusNotFound, services.CodeTaskNotFound)

	// Outsiders of the course are told they are not members.
	outsider := testutil.CreateUser(suite.T(), suite.db, "outsider@example.com")
	suite.requireError(suite.request(http.MethodGet, f.path(""), outsider.Email, nil), http.StatusForbidden, "NOT_COURSE_MEMBER")

	w = suite.request(http.MethodDelete, f.path(""), f.manager.Email, nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.requireError(suite.request(http.MethodGet, f.path(""), f.manager.Email, nil), http.StatusNotFound, services.CodeCourseNotFound)
}

func (suite *APITestSuite) TestTeamsAndExport() {
	f := suite.newCourse()
	outsider := testutil.CreateUser(suite.T(), suite.db, "outsider@example.com")

	w := suite.request(http.MethodPost, f.path("/teams"), f.expert.Email, map[string]interface{}{
		"name":    "Rockets",
		"members": []map[string]interface{}{{"user_id": outsider.ID, "role": "CEO"}},
	})
	suite.Equal(http.StatusBadRequest, w.Code, w.Body.String())

	w = suite.request(http.MethodPost, f.path("/teams"), f.expert.Email, map[string]interface{}{
		"name":    "Rockets",
		"members": []map[string]interface{}{{"user_id": f.participant.ID, "role": "CTO"}},
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var team dto.TeamDTO
	suite.decode(w, &team)
	suite.Require().Len(team.Members, 1)
	suite.Equal(models.TeamRoleCTO, team.Members[0].Role)

	for i := 0; i < 2; i++ {
		w = suite.request(http.MethodPost, f.path("/modules/%d/export", f.module.ID), f.expert.Email, nil)
		suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
		var export dto.ExportResponse
		suite.decode(w, &export)
		suite.Equal(int64(1-i), export.Created)
	}

	w = suite.request(http.MethodGet, f.path("/teams/%d/tasks", team.ID), f.participant.Email, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var teamTasks struct {
		TeamTasks []dto.TeamTaskDTO `json:"team_tasks"`
	}
	suite.decode(w, &teamTasks)
	suite.Require().Len(teamTasks.TeamTasks, 1)
	suite.Equal(f.task.ID, teamTasks.TeamTasks[0].TaskID)

	// Experts see every team; participants only their own.
	other := testutil.CreateUser(suite.T(), suite.db, "other@example.com")
	testutil.AddCourseMember(suite.T(), suite.db, f.course.ID, other.ID, models.CourseRoleParticipant)
	suite.Equal(http.StatusOK, suite.request(http.MethodGet, f.path("/teams/%d", team.ID), f.expert.Email, nil).Code)
	suite.requireError(suite.request(http.MethodGet, f.path("/teams/%d", team.ID), other.Email, nil), http.StatusForbidden, "NOT_TEAM_MEMBER")

	w = suite.request(http.MethodPut, f.path("/teams/%d/members", team.ID), f.expert.Email, map[string]interface{}{"user_id": other.ID, "role": "CFO"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.decode(w, &team)
	suite.Len(team.Members, 2)
	suite.Equal(http.StatusOK, suite.request(http.MethodGet, f.path("/teams/%d", team.ID), other.Email, nil).Code)
}
