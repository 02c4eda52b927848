package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/learning-platform-api/internal/dto"
	apierrors "github.com/yukikurage/learning-platform-api/internal/errors"
	"github.com/yukikurage/learning-platform-api/internal/lifecycle"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/repository"
	"github.com/yukikurage/learning-platform-api/internal/services"
	"github.com/yukikurage/learning-platform-api/internal/utils"
)

// ProductHandler drives a work item's product through its lifecycle. The
// same handlers serve individual and team items.
type ProductHandler struct {
	products *services.ProductService
}

func NewProductHandler(products *services.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	item, ok := workItem(c)
	if !ok {
		return
	}

	product, err := h.products.GetProduct(c.Request.Context(), item)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToProductDTO(*product))
}

func (h *ProductHandler) Start(c *gin.Context) {
	h.fire(c, h.products.Start)
}

// Save stores new content and records a version snapshot
func (h *ProductHandler) Save(c *gin.Context) {
	var req dto.SaveProductRequest
	if !bindJSON(c, &req) {
		return
	}
	h.fire(c, func(ctx context.Context, a lifecycle.Actor, item repository.WorkItem) (*models.Product, error) {
		return h.products.Save(ctx, a, item, req.Input())
	})
}

func (h *ProductHandler) Submit(c *gin.Context) {
	h.fire(c, h.products.Submit)
}

// Review approves, rejects or sends back a submitted product
func (h *ProductHandler) Review(c *gin.Context) {
	var req dto.ReviewProductRequest
	if !bindJSON(c, &req) {
		return
	}
	h.fire(c, func(ctx context.Context, a lifecycle.Actor, item repository.WorkItem) (*models.Product, error) {
		return h.products.Review(ctx, a, item, req.Input())
	})
}

func (h *ProductHandler) ListVersions(c *gin.Context) {
	item, ok := workItem(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	versions, total, err := h.products.ListVersions(c.Request.Context(), item, params)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"versions":   dto.ToProductVersionDTOs(versions),
		"pagination": utils.NewPaginationResponse(params, total),
	})
}

type transitionFunc func(ctx context.Context, a lifecycle.Actor, item repository.WorkItem) (*models.Product, error)

// fire runs a lifecycle transition for the resolved actor and work item and
// writes the resulting product.
func (h *ProductHandler) fire(c *gin.Context, transition transitionFunc) {
	item, ok := workItem(c)
	if !ok {
		return
	}
	a, ok := actor(c)
	if !ok {
		return
	}

	product, err := transition(c.Request.Context(), a, item)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToProductDTO(*product))
}
