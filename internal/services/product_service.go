package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	apierrors "github.com/yukikurage/learning-platform-api/internal/errors"
	"github.com/yukikurage/learning-platform-api/internal/lifecycle"
	"github.com/yukikurage/learning-platform-api/internal/metrics"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/repository"
	"github.com/yukikurage/learning-platform-api/internal/utils"
)

const (
	CodeProductEmpty        = "PRODUCT_EMPTY"
	CodeProductStateChanged = "PRODUCT_STATE_CHANGED"
	CodeProductNotFound     = "PRODUCT_NOT_FOUND"

	MaxReviewScore = 100
	MinReviewRank  = 1
	MaxReviewRank  = 5
)

var (
	ErrProductEmpty    = apierrors.NewValidation(CodeProductEmpty, "Product content is empty")
	ErrProductNotFound = apierrors.NewNotFound(CodeProductNotFound, "No product has been started yet")
)

// ProductService drives a work item's product through its lifecycle.
type ProductService struct {
	products repository.ProductRepository
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewProductService creates a new ProductService.
func NewProductService(products repository.ProductRepository, m *metrics.Metrics, log logrus.FieldLogger) *ProductService {
	return &ProductService{
		products: products,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// GetProduct returns the product of a work item. A work item nobody has
// started yet yields an empty product in Todo.
func (s *ProductService) GetProduct(ctx context.Context, item repository.WorkItem) (*models.Product, error) {
	product, err := s.products.Find(ctx, item)
	if err == nil {
		return product, nil
	}
	if !isNotFound(err) {
		return nil, wrap(err, "find product")
	}
	return &models.Product{
		TaskID:     item.TaskID,
		TeamTaskID: item.TeamTaskID,
		Status:     models.TaskStatusTodo,
	}, nil
}

// Start moves the product from Todo to Doing without writing content.
func (s *ProductService) Start(ctx context.Context, actor lifecycle.Actor, item repository.WorkItem) (*models.Product, error) {
	return s.transition(ctx, lifecycle.ActionStart, actor, item, func(_ *models.Product, from models.TaskStatus) (repository.ProductChange, error) {
		return repository.ProductChange{
			Updates: map[string]interface{}{
				"current_version": 1,
				"last_editor_id":  actor.UserID,
			},
		}, nil
	})
}

// SaveInput is one content save.
type SaveInput struct {
	Content string
	Memo    string
}

// Save stores new content and a version snapshot. The first save of a
// product in Todo also starts it.
func (s *ProductService) Save(ctx context.Context, actor lifecycle.Actor, item repository.WorkItem, input SaveInput) (*models.Product, error) {
	return s.transition(ctx, lifecycle.ActionSave, actor, item, func(_ *models.Product, from models.TaskStatus) (repository.ProductChange, error) {
		change := repository.ProductChange{
			Updates: map[string]interface{}{
				"content":        input.Content,
				"last_editor_id": actor.UserID,
			},
			Snapshot: &models.ProductVersion{
				Content:  input.Content,
				Memo:     input.Memo,
				EditorID: actor.UserID,
			},
		}
		if from == models.TaskStatusTodo {
			change.Updates["current_version"] = 1
		} else {
			change.BumpVersion = true
		}
		return change, nil
	})
}

// Submit hands the product in for review.
func (s *ProductService) Submit(ctx context.Context, actor lifecycle.Actor, item repository.WorkItem) (*models.Product, error) {
	return s.transition(ctx, lifecycle.ActionSubmit, actor, item, func(current *models.Product, _ models.TaskStatus) (repository.ProductChange, error) {
		if current == nil || strings.TrimSpace(current.Content) == "" {
			return repository.ProductChange{}, ErrProductEmpty
		}
		return repository.ProductChange{
			Updates: map[string]interface{}{
				"submitted_at":    s.now(),
				"review_action":   "",
				"review_score":    nil,
				"review_rank":     nil,
				"review_feedback": "",
				"reviewer_id":     nil,
				"reviewed_at":     nil,
			},
		}, nil
	})
}

// ReviewInput is a reviewer's verdict.
type ReviewInput struct {
	Action   models.ReviewAction
	Score    *int
	Rank     *int
	Feedback string
}

// Review records a verdict on a submitted product and moves it on.
func (s *ProductService) Review(ctx context.Context, actor lifecycle.Actor, item repository.WorkItem, input ReviewInput) (*models.Product, error) {
	action, ok := lifecycle.ForReview(input.Action)
	if !ok {
		return nil, invalidField("review_action", "must be one of [approve reject request_revision]")
	}
	if input.Score != nil && (*input.Score < 0 || *input.Score > MaxReviewScore) {
		return nil, invalidField("score", "must be between 0 and 100")
	}
	if input.Rank != nil && (*input.Rank < MinReviewRank || *input.Rank > MaxReviewRank) {
		return nil, invalidField("rank", "must be between 1 and 5")
	}

	return s.transition(ctx, action, actor, item, func(_ *models.Product, _ models.TaskStatus) (repository.ProductChange, error) {
		return repository.ProductChange{
			Updates: map[string]interface{}{
				"review_action":   input.Action,
				"review_score":    input.Score,
				"review_rank":     input.Rank,
				"review_feedback": input.Feedback,
				"reviewer_id":     actor.UserID,
				"reviewed_at":     s.now(),
			},
		}, nil
	})
}

// ListVersions returns a page of saved versions, newest first.
func (s *ProductService) ListVersions(ctx context.Context, item repository.WorkItem, page utils.PaginationParams) ([]models.ProductVersion, int64, error) {
	product, err := s.products.Find(ctx, item)
	if err != nil {
		if isNotFound(err) {
			return []models.ProductVersion{}, 0, nil
		}
		return nil, 0, wrap(err, "find product")
	}

	versions, total, err := s.products.ListVersions(ctx, product.ID, page)
	if err != nil {
		return nil, 0, wrap(err, "list product versions")
	}
	return versions, total, nil
}

type changeBuilder func(current *models.Product, from models.TaskStatus) (repository.ProductChange, error)

// transition authorizes the actor, checks the edge against the current
// status and applies it conditionally on that status.
func (s *ProductService) transition(ctx context.Context, action lifecycle.Action, actor lifecycle.Actor, item repository.WorkItem, build changeBuilder) (*models.Product, error) {
	if err := lifecycle.Authorize(action, actor).Err(); err != nil {
		return nil, err
	}

	current, err := s.products.Find(ctx, item)
	if err != nil {
		if !isNotFound(err) {
			return nil, wrap(err, "find product")
		}
		current = nil
	}

	from := models.TaskStatusTodo
	if current != nil {
		from = current.Status
	}

	to, err := lifecycle.Next(from, action)
	if err != nil {
		return nil, err
	}

	change, err := build(current, from)
	if err != nil {
		return nil, err
	}
	change.Item = item
	change.From = from
	change.To = to

	product, err := s.products.Apply(ctx, change)
	if err != nil {
		if errors.Is(err, repository.ErrStaleProduct) {
			return nil, s.staleError(ctx, action, item)
		}
		return nil, wrap(err, "apply product change")
	}

	s.metrics.TaskTransitionsTotal.WithLabelValues(string(action), string(to)).Inc()
	s.log.WithFields(logrus.Fields{
		"task_id":      item.TaskID,
		"team_task_id": item.TeamTaskID,
		"action":       action,
		"from":         from,
		"to":           to,
		"user_id":      actor.UserID,
	}).Debug("Product transition applied")
	return product, nil
}

// staleError explains a lost race in terms of the status the product is in now.
func (s *ProductService) staleError(ctx context.Context, action lifecycle.Action, item repository.WorkItem) error {
	if latest, err := s.products.Find(ctx, item); err == nil {
		if _, err := lifecycle.Next(latest.Status, action); err != nil {
			return err
		}
	}
	return apierrors.NewInvalidState(CodeProductStateChanged, "The product was changed by another request")
}
