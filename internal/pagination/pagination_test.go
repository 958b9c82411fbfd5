package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequestDefaults(t *testing.T) {
	t.Run("zero values get defaults", func(t *testing.T) {
		p := PageRequest{}
		p.Defaults()
		assert.Equal(t, 1, p.Page)
		assert.Equal(t, DefaultPageSize, p.PageSize)
		assert.Equal(t, 0, p.Offset())
	})

	t.Run("oversized page is clamped", func(t *testing.T) {
		p := PageRequest{Page: 3, PageSize: 1000}
		p.Defaults()
		assert.Equal(t, MaxPageSize, p.PageSize)
		assert.Equal(t, 2*MaxPageSize, p.Offset())
	})
}

func TestNewPageResponse(t *testing.T) {
	t.Run("computes total pages", func(t *testing.T) {
		resp := NewPageResponse([]int{1, 2}, 1, 2, 5)
		assert.Equal(t, 3, resp.TotalPages)
		assert.Equal(t, int64(5), resp.TotalItems)
	})

	t.Run("nil items become empty slice", func(t *testing.T) {
		resp := NewPageResponse[int](nil, 1, 10, 0)
		assert.NotNil(t, resp.Items)
		assert.Empty(t, resp.Items)
		assert.Equal(t, 0, resp.TotalPages)
	})
}
