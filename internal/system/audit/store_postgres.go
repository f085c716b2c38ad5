// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nzela/nzela-api/internal/platform/database/schema"
)

// PostgresSink implements [Sink] on system.auditlog.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink creates a new PostgreSQL audit sink.
func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

/*
Insert writes the entry to system.auditlog. Before and After are stored as JSONB,
NULL when absent.
*/
func (sink *PostgresSink) Insert(context context.Context, entry *Entry) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		schema.SystemAuditLog.Table, schema.List("", schema.SystemAuditLog.Columns()...),
	)

	before, err := snapshot(entry.Before)
	if err != nil {
		return fmt.Errorf("postgres_audit_sink_encode_before_failed: %w", err)
	}
	after, err := snapshot(entry.After)
	if err != nil {
		return fmt.Errorf("postgres_audit_sink_encode_after_failed: %w", err)
	}

	var entityID *string
	if entry.TargetID != "" {
		entityID = &entry.TargetID
	}

	_, err = sink.pool.Exec(context, query,
		entry.ID,
		entry.ActorID,
		string(entry.ActorRole),
		string(entry.Action),
		entry.TargetType,
		entityID,
		before,
		after,
		entry.IPAddress,
		entry.UserAgent,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_audit_sink_insert_failed: %w", err)
	}

	return nil
}

// snapshot encodes v for a JSONB column; nil stays SQL NULL.
func snapshot(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
