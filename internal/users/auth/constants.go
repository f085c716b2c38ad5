// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "errors"

// # Credential Constraints

const (
	// MinPasswordLength applies to registration, provisioning and password changes.
	MinPasswordLength = 8

	// MaxNameLength bounds first and last names.
	MaxNameLength = 100

	// MaxEmailLength bounds stored addresses.
	MaxEmailLength = 254

	// TokenType is the scheme clients put in front of the session token.
	TokenType = "Bearer"
)

// # Session Rejection Causes
//
// Internal only: every cause reaches clients as the same 401, except expiry when
// the deployment opts into exposing it. The messages double as metric labels.

var (
	ErrSessionNotFound   = errors.New("session_not_found")
	ErrSessionRevoked    = errors.New("session_revoked")
	ErrSessionExpired    = errors.New("session_expired")
	ErrSessionSuperseded = errors.New("session_superseded")
	ErrAccountDisabled   = errors.New("account_disabled")
)

// ErrUserNotFound is returned by [CredentialStore] lookups that match no live account.
var ErrUserNotFound = errors.New("user_not_found")
