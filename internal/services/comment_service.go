package services

import (
	"context"
	"strings"
	"unicode/utf8"

	apierrors "github.com/yukikurage/learning-platform-api/internal/errors"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/repository"
)

const (
	CodeCommentNotFound       = "COMMENT_NOT_FOUND"
	CodeCommentAuthorRequired = "COMMENT_AUTHOR_REQUIRED"
	CodeMentionNotInCourse    = "MENTION_NOT_IN_COURSE"

	MaxCommentLength = 2000
)

var (
	ErrCommentNotFound       = apierrors.NewNotFound(CodeCommentNotFound, "Comment not found")
	ErrCommentAuthorRequired = apierrors.NewForbidden(CodeCommentAuthorRequired, "Only the author can change a comment")
)

// CommentInput is a new comment on one tab of a work item.
type CommentInput struct {
	TabType      models.TabType
	PromptUserID *uint64
	Text         string
	ParentID     *uint64
	MentionIDs   []uint64
}

// CommentService manages discussion threads on a task's tabs.
type CommentService struct {
	comments repository.CommentRepository
	courses  repository.CourseRepository
}

// NewCommentService creates a new CommentService.
func NewCommentService(comments repository.CommentRepository, courses repository.CourseRepository) *CommentService {
	return &CommentService{
		comments: comments,
		courses:  courses,
	}
}

// ListComments returns the comments of a work item in posting order.
func (s *CommentService) ListComments(ctx context.Context, item repository.WorkItem, tabType *models.TabType, promptUserID *uint64) ([]models.Comment, error) {
	if tabType != nil && !tabType.Valid() {
		return nil, invalidField("tab_type", "must be one of [guide prompt product]")
	}
	comments, err := s.comments.List(ctx, repository.CommentFilter{
		Item:         item,
		TabType:      tabType,
		PromptUserID: promptUserID,
	})
	if err != nil {
		return nil, wrap(err, "list comments")
	}
	return comments, nil
}

// CreateComment posts a comment. A reply must stay on its parent's work
// item and tab, and every mentioned user must belong to the course.
func (s *CommentService) CreateComment(ctx context.Context, courseID uint64, item repository.WorkItem, authorID uint64, input CommentInput) (*models.Comment, error) {
	if !input.TabType.Valid() {
		return nil, invalidField("tab_type", "must be one of [guide prompt product]")
	}
	text, err := validCommentText(input.Text)
	if err != nil {
		return nil, err
	}
	if input.PromptUserID != nil && input.TabType != models.TabTypePrompt {
		return nil, invalidField("prompt_user_id", "is only allowed on the prompt tab")
	}

	if input.ParentID != nil {
		parent, err := s.comments.FindByID(ctx, *input.ParentID)
		if err != nil {
			if isNotFound(err) {
				return nil, invalidField("parent_comment_id", "does not exist")
			}
			return nil, wrap(err, "find parent comment")
		}
		if parent.TaskID != item.TaskID || parent.TeamTaskID != item.TeamTaskID || parent.TabType != input.TabType {
			return nil, invalidField("parent_comment_id", "belongs to another thread")
		}
	}

	mentions := uniqueIDs(input.MentionIDs)
	if len(mentions) > 0 {
		count, err := s.courses.CountMembersAmong(ctx, courseID, mentions)
		if err != nil {
			return nil, wrap(err, "check mentioned users")
		}
		if count != int64(len(mentions)) {
			return nil, apierrors.NewValidation(CodeMentionNotInCourse, "Mentioned users must be course members",
				apierrors.FieldError{Field: "mention_user_ids", Message: "contains users outside the course"})
		}
	}

	comment := &models.Comment{
		TaskID:       item.TaskID,
		TeamTaskID:   item.TeamTaskID,
		TabType:      input.TabType,
		PromptUserID: input.PromptUserID,
		AuthorID:     authorID,
		Text:         text,
		ParentID:     input.ParentID,
	}
	if err := s.comments.Create(ctx, comment, mentions); err != nil {
		return nil, wrap(err, "create comment")
	}
	return s.findComment(ctx, item, comment.ID)
}

// UpdateComment replaces the text of the caller's comment.
func (s *CommentService) UpdateComment(ctx context.Context, item repository.WorkItem, userID, commentID uint64, text string) (*models.Comment, error) {
	comment, err := s.findComment(ctx, item, commentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != userID {
		return nil, ErrCommentAuthorRequired
	}
	text, err = validCommentText(text)
	if err != nil {
		return nil, err
	}

	if err := s.comments.UpdateText(ctx, comment.ID, text); err != nil {
		return nil, wrap(err, "update comment")
	}
	return s.findComment(ctx, item, comment.ID)
}

// DeleteComment removes the caller's comment.
func (s *CommentService) DeleteComment(ctx context.Context, item repository.WorkItem, userID, commentID uint64) error {
	comment, err := s.findComment(ctx, item, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != userID {
		return ErrCommentAuthorRequired
	}
	if err := s.comments.Delete(ctx, comment.ID); err != nil {
		return wrap(err, "delete comment")
	}
	return nil
}

func (s *CommentService) findComment(ctx context.Context, item repository.WorkItem, id uint64) (*models.Comment, error) {
	comment, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrCommentNotFound, "find comment")
	}
	if comment.TaskID != item.TaskID || comment.TeamTaskID != item.TeamTaskID {
		return nil, ErrCommentNotFound
	}
	return comment, nil
}

func validCommentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", invalidField("comment_text", "is required")
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return "", invalidField("comment_text", "must be at most 2000 characters")
	}
	return text, nil
}

func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
