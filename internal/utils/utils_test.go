package utils

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query string
		want  PaginationParams
	}{
		{"", PaginationParams{Page: 1, Limit: 20, Offset: 0}},
		{"?page=3&limit=10", PaginationParams{Page: 3, Limit: 10, Offset: 20}},
		{"?page=2&per_page=5", PaginationParams{Page: 2, Limit: 5, Offset: 5}},
		{"?page=-1&limit=1000", PaginationParams{Page: 1, Limit: 20, Offset: 0}},
		{"?page=abc", PaginationParams{Page: 1, Limit: 20, Offset: 0}},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/items"+tt.query, nil)

		assert.Equal(t, tt.want, GetPaginationParams(c), tt.query)
	}
}

func TestNewPaginationResponse(t *testing.T) {
	resp := NewPaginationResponse(NewPaginationParams(2, 10), 21)
	assert.Equal(t, 3, resp.TotalPages)
	assert.Equal(t, int64(21), resp.TotalCount)

	empty := NewPaginationResponse(NewPaginationParams(1, 10), 0)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestGenerateInviteToken(t *testing.T) {
	a := GenerateInviteToken()
	b := GenerateInviteToken()
	assert.NotEqual(t, a, b)

	_, err := uuid.Parse(a)
	require.NoError(t, err)
}

func TestObjectPath(t *testing.T) {
	p := ObjectPath("profiles", "../../my photo.png")
	assert.True(t, strings.HasPrefix(p, "profiles/"))
	assert.True(t, strings.HasSuffix(p, "-my_photo.png"))
	assert.NotContains(t, p, "..")
}
