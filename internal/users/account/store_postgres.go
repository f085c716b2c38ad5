// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account (Postgres) implements the reports-facing storage hook.

# Schema Table Mapping
  - signalements: Owned by the reports module. Only the owner, reporter name
    and phone columns are written here.
  - users.account: Soft-deleted through the auth store, in the same transaction.

A deployment without the reports schema has no reports to anonymize: a missing
table reads as zero owned reports.
*/
package account

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nzela/nzela-api/internal/platform/database/schema"
	"github.com/nzela/nzela-api/internal/platform/dberr"
	"github.com/nzela/nzela-api/internal/platform/postgres"
	"github.com/nzela/nzela-api/internal/users/auth"
)

// PostgresAccountEraser implements [AccountEraser] using pgx.
type PostgresAccountEraser struct {
	pool *pgxpool.Pool
}

// NewAccountEraser creates a new Postgres implementation of [AccountEraser].
func NewAccountEraser(pool *pgxpool.Pool) *PostgresAccountEraser {
	return &PostgresAccountEraser{pool: pool}
}

/*
CountOwnedReports counts the user's reports, excluding withdrawn ones.

Returns:
  - int64: Owned report count, 0 when the reports table does not exist
  - error: Database failures
*/
func (repository *PostgresAccountEraser) CountOwnedReports(context context.Context, userID string) (int64, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM %s
		WHERE %s = $1 AND %s IS DISTINCT FROM $2`,
		schema.Signalement.Table, schema.Signalement.UserID, schema.Signalement.Status,
	)

	var count int64
	err := repository.pool.QueryRow(context, query, userID, schema.Signalement.StatusDeleted).Scan(&count)
	if err != nil {
		if dberr.IsUndefinedTable(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("postgres_account_eraser_count_failed: %w", err)
	}
	return count, nil
}

/*
EraseAccount anonymizes the user's reports and soft-deletes the account in one
transaction.

Returns:
  - int64: Reports updated
  - error: auth.ErrUserNotFound, database failures
*/
func (repository *PostgresAccountEraser) EraseAccount(context context.Context, userID string, at time.Time) (int64, error) {
	var anonymized int64

	err := postgres.WithTx(context, repository.pool, func(tx pgx.Tx) error {
		count, err := anonymizeReports(context, tx, userID)
		if err != nil {
			return err
		}
		anonymized = count

		return auth.SoftDeleteUserTx(context, tx, userID, at)
	})
	if err != nil {
		return 0, err
	}
	return anonymized, nil
}

// anonymizeReports runs under a savepoint so a missing reports table does not
// abort the enclosing transaction.
func anonymizeReports(context context.Context, tx pgx.Tx, userID string) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = NULL, %s = $2, %s = NULL
		WHERE %s = $1`,
		schema.Signalement.Table,
		schema.Signalement.UserID, schema.Signalement.ReporterName, schema.Signalement.Phone,
		schema.Signalement.UserID,
	)

	savepoint, err := tx.Begin(context)
	if err != nil {
		return 0, fmt.Errorf("postgres_account_eraser_savepoint_failed: %w", err)
	}

	tag, err := savepoint.Exec(context, query, userID, schema.Signalement.AnonymousReporter)
	if err != nil {
		if rbErr := savepoint.Rollback(context); rbErr != nil {
			return 0, fmt.Errorf("postgres_account_eraser_rollback_failed: %w", rbErr)
		}
		if dberr.IsUndefinedTable(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("postgres_account_eraser_update_failed: %w", err)
	}

	if err := savepoint.Commit(context); err != nil {
		return 0, fmt.Errorf("postgres_account_eraser_release_failed: %w", err)
	}
	return tag.RowsAffected(), nil
}
