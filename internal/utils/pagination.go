package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/learning-platform-api/internal/constants"
)

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PaginationResponse represents the pagination metadata in API responses
type PaginationResponse struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	TotalPages  int   `json:"total_pages"`
	TotalCount  int64 `json:"total_count"`
}

// GetPaginationParams extracts and validates pagination parameters from the request.
// Both "limit" and "per_page" are accepted for the page size.
func GetPaginationParams(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size := c.Query("per_page")
	if size == "" {
		size = c.DefaultQuery("limit", strconv.Itoa(constants.DefaultPageSize))
	}
	limit, _ := strconv.Atoi(size)

	return NewPaginationParams(page, limit)
}

// NewPaginationParams clamps page and limit into the allowed range.
func NewPaginationParams(page, limit int) PaginationParams {
	if page < 1 {
		page = 1
	}
	if limit < constants.MinPageSize || limit > constants.MaxPageSize {
		limit = constants.DefaultPageSize
	}

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// NewPaginationResponse builds the metadata block for a page of total items.
func NewPaginationResponse(params PaginationParams, total int64) PaginationResponse {
	pages := int((total + int64(params.Limit) - 1) / int64(params.Limit))
	return PaginationResponse{
		CurrentPage: params.Page,
		PerPage:     params.Limit,
		TotalPages:  pages,
		TotalCount:  total,
	}
}
