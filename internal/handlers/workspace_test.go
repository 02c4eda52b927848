package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/yukikurage/learning-platform-api/internal/dto"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/services"
	"github.com/yukikurage/learning-platform-api/internal/testutil"
)

func (suite *APITestSuite) TestWorkspaceLifecycle() {
	admin := testutil.CreateAdmin(suite.T(), suite.db, "admin@example.com")
	user := testutil.CreateUser(suite.T(), suite.db, "user@example.com")

	w := suite.request(http.MethodPost, "/api/workspaces", user.Email, map[string]string{"name": "Guild"})
	suite.requireError(w, http.StatusForbidden, "SYSTEM_ADMIN_REQUIRED")

	w = suite.request(http.MethodPost, "/api/workspaces", admin.Email, map[string]string{"name": "Guild", "description": "Our guild"})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var ws dto.WorkspaceDTO
	suite.decode(w, &ws)
	suite.Equal(models.WorkspaceRoleOwner, ws.MyRole)
	suite.Equal(int64(1), ws.MemberCount)

	w = suite.request(http.MethodPost, "/api/workspaces", admin.Email, map[string]string{"name": "Guild"})
	suite.requireError(w, http.StatusConflict, "WS_002")

	wsPath := fmt.Sprintf("/api/workspaces/%d", ws.ID)

	// Not found is reported before the missing membership.
	suite.requireError(suite.request(http.MethodGet, "/api/workspaces/9999", user.Email, nil), http.StatusNotFound, services.CodeWorkspaceNotFound)
	suite.requireError(suite.request(http.MethodGet, wsPath, user.Email, nil), http.StatusForbidden, "NOT_WORKSPACE_MEMBER")

	// Invite the user in.
	w = suite.request(http.MethodPost, wsPath+"/invites", admin.Email, map[string]int{"max_uses": 3})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var link dto.InviteLinkDTO
	suite.decode(w, &link)
	suite.Equal("https://app.test/invite/workspace/"+link.Token, link.InviteURL)
	suite.Equal(3, link.MaxUses)

	w = suite.request(http.MethodGet, "/api/invites/"+link.Token, "", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var preview dto.InvitePreviewDTO
	suite.decode(w, &preview)
	suite.Equal("Guild", preview.ScopeName)
	suite.Equal(3, preview.RemainingUses)

	w = suite.request(http.MethodPost, "/api/invites/"+link.Token+"/redeem", user.Email, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var redeemed dto.RedeemResponse
	suite.decode(w, &redeemed)
	suite.Require().NotNil(redeemed.Workspace)
	suite.Equal(models.WorkspaceRoleMember, redeemed.Workspace.MyRole)

	w = suite.request(http.MethodGet, wsPath, user.Email, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, wsPath+"/members", user.Email, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var members struct {
		Members []dto.WorkspaceMemberDTO `json:"members"`
	}
	suite.decode(w, &members)
	suite.Len(members.Members, 2)

	// Members cannot manage the workspace.
	w = suite.request(http.MethodPut, wsPath, user.Email, map[string]string{"name": "Mine"})
	body := suite.requireError(w, http.StatusForbidden, "WORKSPACE_ROLE_REQUIRED")
	suite.Equal([]interface{}{"Owner"}, body.Details["required_roles"])

	w = suite.request(http.MethodDelete, wsPath, admin.Email, map[string]string{"confirm_name": "guild"})
	suite.requireError(w, http.StatusBadRequest, "WS_010")

	w = suite.request(http.MethodDelete, wsPath, admin.Email, map[string]string{"confirm_name": "Guild"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.requireError(suite.request(http.MethodGet, wsPath, admin.Email, nil), http.StatusNotFound, services.CodeWorkspaceNotFound)
}

func (suite *APITestSuite) TestRemoveWorkspaceMember() {
	owner := testutil.CreateUser(suite.T(), suite.db, "owner@example.com")
	member := testutil.CreateUser(suite.T(), suite.db, "member@example.com")
	ws := testutil.CreateWorkspace(suite.T(), suite.db, "Studio", owner)
	testutil.AddWorkspaceMember(suite.T(), suite.db, ws.ID, member.ID, models.WorkspaceRoleMember)

	base := fmt.Sprintf("/api/workspaces/%d/members/", ws.ID)

	w := suite.request(http.MethodDelete, base+fmt.Sprint(owner.ID), owner.Email, nil)
	suite.Equal(http.StatusBadRequest, w.Code, w.Body.String())

	w = suite.request(http.MethodDelete, base+"abc", owner.Email, nil)
	suite.requireError(w, http.StatusBadRequest, "INVALID_INPUT")

	w = suite.request(http.MethodDelete, base+fmt.Sprint(member.ID), owner.Email, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.request(http.MethodDelete, base+fmt.Sprint(member.ID), owner.Email, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *APITestSuite) TestCourseInviteGrantsRole() {
	f := suite.newCourse()
	newcomer := testutil.CreateUser(suite.T(), suite.db, "newcomer@example.com")
	testutil.AddWorkspaceMember(suite.T(), suite.db, f.workspace.ID, newcomer.ID, models.WorkspaceRoleMember)

	w := suite.request(http.MethodPost, f.path("/invites"), f.participant.Email, map[string]string{"invite_role": "Participant"})
	suite.requireError(w, http.StatusForbidden, "COURSE_ROLE_REQUIRED")

	w = suite.request(http.MethodPost, f.path("/invites"), f.expert.Email, map[string]string{"invite_role": "Manager"})
	suite.requireError(w, http.StatusBadRequest, "INVALID_INPUT")

	w = suite.request(http.MethodPost, f.path("/invites"), f.expert.Email, map[string]string{"invite_role": "Participant"})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var link dto.InviteLinkDTO
	suite.decode(w, &link)
	suite.True(strings.HasPrefix(link.InviteURL, "https://app.test/invite/course/"))

	w = suite.request(http.MethodPost, "/api/invites/"+link.Token+"/redeem", newcomer.Email, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var redeemed dto.RedeemResponse
	suite.decode(w, &redeemed)
	suite.Require().NotNil(redeemed.Course)
	suite.Require().NotNil(redeemed.Course.MyRole)
	suite.Equal(models.CourseRoleParticipant, *redeemed.Course.MyRole)

	w = suite.request(http.MethodGet, f.path(""), newcomer.Email, nil)
	suite.Equal(http.StatusOK, w.Code)
}
