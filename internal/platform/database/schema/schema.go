// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package schema names the tables and columns used by the PostgreSQL stores.

Queries are assembled from these descriptors so that a column rename in a
migration is a one-line change here.
*/
package schema

import "strings"

// List joins column names for a SELECT or RETURNING clause, optionally
// qualified with a table alias.
func List(alias string, columns ...string) string {
	if alias == "" {
		return strings.Join(columns, ", ")
	}
	qualified := make([]string, len(columns))
	for i, column := range columns {
		qualified[i] = alias + "." + column
	}
	return strings.Join(qualified, ", ")
}
