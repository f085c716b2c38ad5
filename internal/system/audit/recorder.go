// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/nzela/nzela-api/internal/platform/constants"
	"github.com/nzela/nzela-api/internal/platform/metrics"
	"github.com/nzela/nzela-api/pkg/ids"
)

// Recorder stamps and persists audit entries.
type Recorder struct {
	sink   Sink
	logger *slog.Logger
	now    func() time.Time
}

// NewRecorder constructs a [Recorder] writing to sink.
func NewRecorder(sink Sink, logger *slog.Logger) *Recorder {
	return &Recorder{
		sink:   sink,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source. Used by tests.
func (recorder *Recorder) WithClock(now func() time.Time) *Recorder {
	recorder.now = now
	return recorder
}

/*
Record persists entry and never returns an error.

Entries without an actor are dropped. The write outlives a cancelled request
context but is bounded by [constants.BackgroundWriteTimeout].
*/
func (recorder *Recorder) Record(ctx context.Context, entry Entry) {
	if entry.ActorID == "" {
		recorder.logger.WarnContext(ctx, "audit_entry_unattributed",
			slog.String("action", string(entry.Action)),
			slog.String("target_type", entry.TargetType),
		)
		return
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = recorder.now()
	}
	if entry.ID == "" {
		entry.ID = ids.At(entry.CreatedAt)
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.BackgroundWriteTimeout)
	defer cancel()

	if err := recorder.sink.Insert(writeCtx, &entry); err != nil {
		metrics.BackgroundFailures.WithLabelValues("audit").Inc()
		recorder.logger.ErrorContext(ctx, "audit_write_failed",
			slog.String("action", string(entry.Action)),
			slog.String("actor_id", entry.ActorID),
			slog.String("target_id", entry.TargetID),
			slog.Any("error", err),
		)
	}
}
