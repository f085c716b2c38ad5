// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package normalize canonicalizes user-supplied identifiers before they are
// compared or stored.
//
// # Email Identity
//
// Emails are unique case-insensitively. Rather than relying on collation in the
// database, every address is folded once at the boundary so that "A@B.com",
// "a@b.com" and their NFD-composed variants map to the same stored key.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Email returns the canonical form of an email address: trimmed, NFC-composed
// and Unicode case-folded.
func Email(raw string) string {
	composed := norm.NFC.String(strings.TrimSpace(raw))
	return cases.Fold().String(composed)
}

// SearchTerm collapses inner whitespace and folds case for ILIKE filters.
func SearchTerm(raw string) string {
	fields := strings.Fields(norm.NFC.String(raw))
	return cases.Fold().String(strings.Join(fields, " "))
}
