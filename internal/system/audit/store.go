// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit

import "context"

// Sink persists audit entries. Implementations only ever append.
type Sink interface {

	/*
		Insert appends one entry.

		Parameters:
		  - context: context.Context
		  - entry: *Entry (ID and CreatedAt already set)

		Returns:
		  - error: Persistence failures
	*/
	Insert(context context.Context, entry *Entry) error
}
