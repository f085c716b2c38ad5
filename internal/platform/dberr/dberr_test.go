// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dberr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nzela/nzela-api/internal/platform/apperr"
	"github.com/nzela/nzela-api/internal/platform/dberr"
)

func TestWrap(t *testing.T) {
	unique := &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "account_email_key"}

	// 1. nil stays nil
	assert.NoError(t, dberr.Wrap(nil, "op"))

	// 2. Unique violations become conflicts, matched by constraint
	err := dberr.Wrap(fmt.Errorf("insert: %w", unique), "postgres_insert_failed")
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "CONFLICT", ae.Code)
	assert.True(t, dberr.IsUniqueViolation(unique, "account_email_key"))
	assert.False(t, dberr.IsUniqueViolation(unique, "session_tokenhash_key"))

	// 3. Other errors keep their chain
	boom := errors.New("connection reset")
	wrapped := dberr.Wrap(boom, "postgres_find_failed")
	assert.ErrorIs(t, wrapped, boom)
	assert.Nil(t, apperr.As(wrapped))

	// 4. No rows
	assert.True(t, dberr.IsNoRows(fmt.Errorf("scan: %w", pgx.ErrNoRows)))

	// 5. Missing tables
	missing := &pgconn.PgError{Code: pgerrcode.UndefinedTable}
	assert.True(t, dberr.IsUndefinedTable(fmt.Errorf("count: %w", missing)))
	assert.False(t, dberr.IsUndefinedTable(unique))
}
