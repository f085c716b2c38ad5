// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nzela/nzela-api/internal/platform/migration"
)

func TestToPgx5DSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@db:5432/nzela", "pgx5://u:p@db:5432/nzela"},
		{"postgresql://u:p@db/nzela?sslmode=disable", "pgx5://u:p@db/nzela?sslmode=disable"},
		{"pgx5://u:p@db/nzela", "pgx5://u:p@db/nzela"},
		{"host=db user=u", "host=db user=u"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, migration.ToPgx5DSN(tt.in))
	}
}
