// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package audittest provides an in-memory [audit.Sink] for tests.
package audittest

import (
	"context"
	"sync"

	"github.com/nzela/nzela-api/internal/system/audit"
)

// Sink keeps every inserted entry in order.
type Sink struct {
	mu      sync.Mutex
	entries []audit.Entry

	// Err, when set, is returned by Insert.
	Err error
}

// Insert implements [audit.Sink].
func (sink *Sink) Insert(_ context.Context, entry *audit.Entry) error {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.Err != nil {
		return sink.Err
	}
	sink.entries = append(sink.entries, *entry)
	return nil
}

// Entries returns a copy of the recorded entries.
func (sink *Sink) Entries() []audit.Entry {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	return append([]audit.Entry(nil), sink.entries...)
}

// Actions returns the recorded actions in order.
func (sink *Sink) Actions() []audit.Action {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	out := make([]audit.Action, 0, len(sink.entries))
	for _, entry := range sink.entries {
		out = append(out, entry.Action)
	}
	return out
}

// Last returns the most recent entry, or false when there is none.
func (sink *Sink) Last() (audit.Entry, bool) {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.entries) == 0 {
		return audit.Entry{}, false
	}
	return sink.entries[len(sink.entries)-1], true
}
