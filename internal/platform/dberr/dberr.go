// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr classifies PostgreSQL errors into [apperr.AppError] values
// without leaking SQL details to clients.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nzela/nzela-api/internal/platform/apperr"
)

// IsNoRows reports whether err means the query matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsUniqueViolation reports whether err is a unique-constraint violation. When
// constraint is non-empty, only that constraint matches.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// IsUndefinedTable reports whether err means a referenced table does not exist,
// as when an optional module's schema was never migrated.
func IsUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable
}

// Wrap annotates a database error with the failed operation. Unique violations
// become a client-safe Conflict; everything else stays an internal error chain.
func Wrap(err error, op string) error {
	if err == nil {
		return nil
	}

	if IsUniqueViolation(err, "") {
		return apperr.Conflict("Resource already exists").WithCause(err)
	}

	return fmt.Errorf("%s: %w", op, err)
}
