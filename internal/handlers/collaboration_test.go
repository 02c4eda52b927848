package handlers

import (
	"net/http"
	"strings"

	"github.com/yukikurage/learning-platform-api/internal/constants"
	"github.com/yukikurage/learning-platform-api/internal/dto"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/testutil"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func (suite *APITestSuite) TestPromptsAndFeedback() {
	f := suite.newCourse()
	prompts := f.path("/tasks/%d/prompts", f.task.ID)

	suite.requireError(suite.request(http.MethodPost, prompts, f.participant.Email, map[string]string{}), http.StatusBadRequest, "INVALID_INPUT")

	w := suite.request(http.MethodPost, prompts, f.participant.Email, map[string]string{"prompt_text": "Summarize this article"})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var prompt dto.PromptDTO
	suite.decode(w, &prompt)
	suite.Equal("Here is an answer.", prompt.AIResponse)
	suite.Equal(f.participant.ID, prompt.UserID)
	suite.Equal(12, prompt.TokensUsed)

	// The stub reply is not an evaluation, so fallback scores are stored.
	w = suite.request(http.MethodPost, prompts+"/"+itoa(prompt.ID)+"/feedback", f.participant.Email, nil)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var feedback dto.FeedbackDTO
	suite.decode(w, &feedback)
	suite.Equal(60, feedback.PIQScore)
	suite.Equal([]string{"evaluation failed"}, feedback.Improvements)

	w = suite.request(http.MethodGet, prompts, f.participant.Email, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var list struct {
		Prompts []dto.PromptDTO `json:"prompts"`
	}
	suite.decode(w, &list)
	suite.Require().Len(list.Prompts, 1)
	suite.Require().NotNil(list.Prompts[0].Feedback)

	// Prompt history is private to its author.
	w = suite.request(http.MethodGet, prompts, f.expert.Email, nil)
	suite.decode(w, &list)
	suite.Empty(list.Prompts)
}

func (suite *APITestSuite) TestComments() {
	f := suite.newCourse()
	outsider := testutil.CreateUser(suite.T(), suite.db, "outsider@example.com")
	comments := f.path("/tasks/%d/comments", f.task.ID)

	w := suite.request(http.MethodPost, comments, f.participant.Email, map[string]interface{}{
		"tab_type":         "guide",
		"comment_text":     "Who can help?",
		"mention_user_ids": []uint64{outsider.ID},
	})
	suite.requireError(w, http.StatusBadRequest, "MENTION_NOT_IN_COURSE")

	w = suite.request(http.MethodPost, comments, f.participant.Email, map[string]interface{}{
		"tab_type":         "guide",
		"comment_text":     "  Is step two required?  ",
		"mention_user_ids": []uint64{f.expert.ID, f.expert.ID},
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var comment dto.CommentDTO
	suite.decode(w, &comment)
	suite.Equal("Is step two required?", comment.Text)
	suite.Equal([]uint64{f.expert.ID}, comment.MentionUserIDs)
	suite.False(comment.IsEdited)

	commentPath := comments + "/" + itoa(comment.ID)
	suite.requireError(suite.request(http.MethodPut, commentPath, f.expert.Email, map[string]string{"comment_text": "edited"}), http.StatusForbidden, "COMMENT_AUTHOR_REQUIRED")

	w = suite.request(http.MethodPut, commentPath, f.participant.Email, map[string]string{"comment_text": "Is step two optional?"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.decode(w, &comment)
	suite.True(comment.IsEdited)

	var list struct {
		Comments []dto.CommentDTO `json:"comments"`
	}
	w = suite.request(http.MethodGet, comments+"?tab_type=guide", f.expert.Email, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &list)
	suite.Require().Len(list.Comments, 1)
	suite.Equal("Is step two optional?", list.Comments[0].Text)

	w = suite.request(http.MethodGet, comments+"?tab_type=product", f.expert.Email, nil)
	suite.decode(w, &list)
	suite.Empty(list.Comments)

	suite.requireError(suite.request(http.MethodGet, comments, outsider.Email, nil), http.StatusForbidden, "NOT_COURSE_MEMBER")

	w = suite.request(http.MethodDelete, commentPath, f.participant.Email, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	w = suite.request(http.MethodGet, comments, f.participant.Email, nil)
	suite.decode(w, &list)
	suite.Empty(list.Comments)
}

func (suite *APITestSuite) TestGuideAndAttachments() {
	f := suite.newCourse()
	guide := f.path("/tasks/%d/guide", f.task.ID)

	suite.requireError(suite.request(http.MethodPut, guide, f.participant.Email, map[string]string{"content": "nope"}), http.StatusForbidden, "COURSE_ROLE_REQUIRED")

	w := suite.request(http.MethodPut, guide, f.expert.Email, map[string]string{"content": "Read chapter one first."})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var g dto.GuideDTO
	suite.decode(w, &g)
	suite.Equal("Read chapter one first.", g.Content)
	suite.Require().NotNil(g.LastEditorID)
	suite.Equal(f.expert.ID, *g.LastEditorID)

	w = suite.upload(guide+"/attachments", f.expert.Email, "notes.txt", []byte("some notes"))
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var attachment dto.AttachmentDTO
	suite.decode(w, &attachment)
	suite.Equal("notes.txt", attachment.FileName)
	suite.Equal(int64(len("some notes")), attachment.FileSize)
	objectPath := strings.TrimPrefix(attachment.FileURL, "https://blobs.test/"+constants.UploadsBucket+"/")
	suite.True(suite.blobs.Has(constants.UploadsBucket, objectPath))

	w = suite.request(http.MethodGet, guide, f.participant.Email, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &g)
	suite.Require().Len(g.Attachments, 1)

	w = suite.request(http.MethodDelete, guide+"/attachments/"+itoa(attachment.ID), f.expert.Email, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.False(suite.blobs.Has(constants.UploadsBucket, objectPath))
}

func (suite *APITestSuite) TestProfileImageUpload() {
	user := testutil.CreateUser(suite.T(), suite.db, "alice@example.com")

	w := suite.upload("/api/users/me/profile-image", user.Email, "avatar.txt", []byte("plain text"))
	suite.requireError(w, http.StatusBadRequest, "INVALID_INPUT")

	w = suite.upload("/api/users/me/profile-image", user.Email, "avatar.png", pngHeader)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var first dto.UserDTO
	suite.decode(w, &first)
	suite.True(strings.HasPrefix(first.ProfileImage, "https://blobs.test/uploads/profiles/"), first.ProfileImage)

	w = suite.upload("/api/users/me/profile-image", user.Email, "avatar2.png", pngHeader)
	suite.Require().Equal(http.StatusOK, w.Code)
	var second dto.UserDTO
	suite.decode(w, &second)
	suite.NotEqual(first.ProfileImage, second.ProfileImage)

	// The replaced image is removed from the blob store.
	oldPath := strings.TrimPrefix(first.ProfileImage, "https://blobs.test/uploads/")
	suite.False(suite.blobs.Has(constants.UploadsBucket, oldPath))

	var stored models.User
	suite.Require().NoError(suite.db.First(&stored, user.ID).Error)
	suite.Equal(second.ProfileImage, stored.ProfileImage)
}
