// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey defines typed context keys used by middleware and handlers.
//
// # Safety
//
// An unexported key type prevents collisions with third-party packages that
// also store values in the context.
package ctxkey

type key string

const (
	// KeyRequestID is the context key for the X-Request-ID correlation value.
	KeyRequestID key = "request_id"

	// KeyIdentity is the context key for the resolved caller ([sec.Identity]).
	KeyIdentity key = "identity"

	// KeySessionToken is the context key for the raw credential the identity was resolved from.
	KeySessionToken key = "session_token"

	// KeyAuthError is the context key for the rejection recorded when a presented
	// credential failed to resolve.
	KeyAuthError key = "auth_error"

	// KeyLogger is the context key for the per-request [*log/slog.Logger].
	KeyLogger key = "logger"
)
