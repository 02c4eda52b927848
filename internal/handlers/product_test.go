package handlers

import (
	"net/http"

	"github.com/yukikurage/learning-platform-api/internal/dto"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/services"
	"github.com/yukikurage/learning-platform-api/internal/testutil"
)

func (suite *APITestSuite) TestIndividualProductLifecycle() {
	f := suite.newCourse()
	product := f.path("/tasks/%d/product", f.task.ID)

	w := suite.request(http.MethodGet, product, f.participant.Email, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var p dto.ProductDTO
	suite.decode(w, &p)
	suite.Equal(models.TaskStatusTodo, p.Status)

	// The first save starts the work.
	w = suite.request(http.MethodPut, product, f.participant.Email, map[string]string{
		"product_content": "First draft",
		"version_memo":    "initial",
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.decode(w, &p)
	suite.Equal(models.TaskStatusDoing, p.Status)
	suite.Equal(1, p.CurrentVersion)

	w = suite.request(http.MethodPost, product+"/start", f.participant.Email, nil)
	suite.requireError(w, http.StatusConflict, "PRODUCT_ALREADY_STARTED")

	w = suite.request(http.MethodPost, product+"/submit", f.participant.Email, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.decode(w, &p)
	suite.Equal(models.TaskStatusReview, p.Status)
	suite.NotNil(p.SubmittedAt)

	// Locked while in review; only an Expert or Manager may review.
	w = suite.request(http.MethodPut, product, f.participant.Email, map[string]string{"product_content": "sneaky edit"})
	suite.requireError(w, http.StatusConflict, "PRODUCT_LOCKED")

	approve := map[string]interface{}{
		"review_action":    "approve",
		"score":            88,
		"rank":             2,
		"feedback_comment": "Clear and well structured",
	}
	suite.requireError(suite.request(http.MethodPost, product+"/review", f.participant.Email, approve), http.StatusForbidden, "COURSE_ROLE_REQUIRED")

	bad := map[string]interface{}{"review_action": "approve", "score": 101}
	suite.requireError(suite.request(http.MethodPost, product+"/review", f.expert.Email, bad), http.StatusBadRequest, "INVALID_INPUT")

	w = suite.request(http.MethodPost, product+"/review", f.expert.Email, approve)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.decode(w, &p)
	suite.Equal(models.TaskStatusDone, p.Status)
	suite.Require().NotNil(p.Score)
	suite.Equal(88, *p.Score)
	suite.Require().NotNil(p.ReviewerID)
	suite.Equal(f.expert.ID, *p.ReviewerID)
	suite.Equal("Clear and well structured", p.FeedbackComment)

	w = suite.request(http.MethodGet, product+"/versions", f.participant.Email, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var versions struct {
		Versions []dto.ProductVersionDTO `json:"versions"`
	}
	suite.decode(w, &versions)
	suite.Require().Len(versions.Versions, 1)
	suite.Equal("initial", versions.Versions[0].Memo)

	// The task mirrors its product.
	w = suite.request(http.MethodGet, f.path("/tasks/%d", f.task.ID), f.participant.Email, nil)
	var task dto.TaskDTO
	suite.decode(w, &task)
	suite.Equal(models.TaskStatusDone, task.Status)
}

func (suite *APITestSuite) TestProductOfUnknownTask() {
	f := suite.newCourse()
	w := suite.request(http.MethodGet, f.path("/tasks/%d/product", 9999), f.participant.Email, nil)
	suite.requireError(w, http.StatusNotFound, services.CodeTaskNotFound)

	w = suite.request(http.MethodPost, f.path("/tasks/%d/product/submit", f.task.ID), f.participant.Email, nil)
	suite.requireError(w, http.StatusConflict, "PRODUCT_NOT_IN_PROGRESS")
}

func (suite *APITestSuite) TestTeamProduct() {
	f := suite.newCourse()
	member := testutil.CreateUser(suite.T(), suite.db, "member@example.com")
	testutil.AddCourseMember(suite.T(), suite.db, f.course.ID, member.ID, models.CourseRoleParticipant)
	team := testutil.CreateTeam(suite.T(), suite.db, f.course.ID, "Falcons", models.TeamRoleCEO, member)
	teamTask := testutil.CreateTeamTask(suite.T(), suite.db, team.ID, f.task.ID)

	product := f.path("/teams/%d/tasks/%d/product", team.ID, teamTask.ID)

	// A participant outside the team cannot touch its product.
	suite.requireError(suite.request(http.MethodPost, product+"/start", f.participant.Email, nil), http.StatusForbidden, "NOT_TEAM_MEMBER")

	w := suite.request(http.MethodPost, product+"/start", member.Email, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var p dto.ProductDTO
	suite.decode(w, &p)
	suite.Equal(models.TaskStatusDoing, p.Status)
	suite.Equal(teamTask.ID, p.TeamTaskID)

	// The individual product of the same task is untouched.
	w = suite.request(http.MethodGet, f.path("/tasks/%d/product", f.task.ID), f.participant.Email, nil)
	suite.decode(w, &p)
	suite.Equal(models.TaskStatusTodo, p.Status)

	// Experts reach team work through their course role.
	w = suite.request(http.MethodGet, product, f.expert.Email, nil)
	suite.Equal(http.StatusOK, w.Code)

	// A team task of another team is not found under this team.
	otherTeam := testutil.CreateTeam(suite.T(), suite.db, f.course.ID, "Owls", models.TeamRoleCTO, f.participant)
	w = suite.request(http.MethodGet, f.path("/teams/%d/tasks/%d/product", otherTeam.ID, teamTask.ID), f.participant.Email, nil)
	suite.requireError(w, http.StatusNotFound, services.CodeTeamTaskNotFound)
}
