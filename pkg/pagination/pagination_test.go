// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pagination_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nzela/nzela-api/pkg/pagination"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		page   int
		limit  int
		offset int
	}{
		{"defaults", "/users", 1, 20, 0},
		{"explicit", "/users?page=3&limit=10", 3, 10, 20},
		{"negative_page", "/users?page=-2", 1, 20, 0},
		{"limit_too_large", "/users?limit=500", 1, 20, 0},
		{"garbage", "/users?page=abc&limit=x", 1, 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := pagination.FromRequest(httptest.NewRequest("GET", tt.url, nil))
			assert.Equal(t, tt.page, params.Page)
			assert.Equal(t, tt.limit, params.Limit)
			assert.Equal(t, tt.offset, params.Offset())
		})
	}
}

func TestMeta(t *testing.T) {
	meta := pagination.Params{Page: 2, Limit: 20}.Meta(41)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, 41, meta.Total)
	assert.Equal(t, 0, pagination.NewMeta(1, 0, 10).TotalPages)
}
