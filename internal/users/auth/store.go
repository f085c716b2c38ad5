// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"

	"github.com/nzela/nzela-api/internal/platform/sec"
)

// # User Data Access

// CredentialStore defines the data access contract for user accounts.
type CredentialStore interface {

	/*
		FindUserByEmail returns the account with the given case-folded email,
		active or not. Soft-deleted accounts never match.

		Returns:
		  - *User: Hydrated entity
		  - error: ErrUserNotFound or database failures
	*/
	FindUserByEmail(context context.Context, email string) (*User, error)

	/*
		FindUserByID returns the live account with the given ID.

		Returns:
		  - *User: Hydrated entity
		  - error: ErrUserNotFound or database failures
	*/
	FindUserByID(context context.Context, id string) (*User, error)

	/*
		InsertUser persists a brand-new account.

		Returns:
		  - error: apperr.Conflict on a duplicate email, or persistence failures
	*/
	InsertUser(context context.Context, user *User) error

	/*
		UpdateUser applies a partial update and returns the stored result.

		Returns:
		  - *User: Updated entity
		  - error: ErrUserNotFound, apperr.Conflict on a duplicate email, or persistence failures
	*/
	UpdateUser(context context.Context, id string, update UserUpdate) (*User, error)

	// TouchLastLogin stamps the last successful login.
	TouchLastLogin(context context.Context, id string, at time.Time) error

	// TouchLastActivity stamps the last authenticated request.
	TouchLastActivity(context context.Context, id string, at time.Time) error

	/*
		SoftDeleteUser deactivates the account, renames its email to free the
		address, and stamps deletedat.

		Returns:
		  - error: ErrUserNotFound or persistence failures
	*/
	SoftDeleteUser(context context.Context, id string, at time.Time) error

	/*
		ListUsers returns one page of live accounts matching the filter.

		Returns:
		  - []*User: Page of entities, never nil
		  - int: Total number of matches across all pages
		  - error: Database failures
	*/
	ListUsers(context context.Context, filter UserFilter) ([]*User, int, error)

	// CountUsers returns the number of live accounts per role.
	CountUsers(context context.Context) (map[sec.Role]int, error)
}

// # Session Data Access

// SessionRepository defines the data access contract for login sessions.
type SessionRepository interface {

	/*
		CreateExclusive deactivates every active session of the user and inserts
		the new one, atomically. Concurrent calls for the same user serialize.

		Returns:
		  - error: ErrUserNotFound when the user row is gone, or persistence failures
	*/
	CreateExclusive(context context.Context, session *Session) error

	// Create inserts a session without touching the user's other sessions.
	Create(context context.Context, session *Session) error

	/*
		FindByTokenHash returns the session with the given token hash, live or not,
		with Superseded computed.

		Returns:
		  - *Session: Hydrated entity
		  - error: ErrSessionNotFound or database failures
	*/
	FindByTokenHash(context context.Context, tokenHash string) (*Session, error)

	// Deactivate marks one session inactive. Already inactive is not an error.
	Deactivate(context context.Context, id string, at time.Time) error

	// DeactivateByTokenHash marks the session with the given hash inactive. No match is not an error.
	DeactivateByTokenHash(context context.Context, tokenHash string, at time.Time) error

	/*
		RotateToken swaps the token hash of a live session, only if it still
		carries oldHash.

		Returns:
		  - bool: false when the row changed underneath (lost race or logout)
		  - error: Persistence failures
	*/
	RotateToken(context context.Context, id, oldHash, newHash string) (bool, error)

	// Extend moves the expiry of an active session.
	Extend(context context.Context, id string, expiresAt time.Time) error

	// TouchLastSeen stamps the last request served by the session.
	TouchLastSeen(context context.Context, id string, at time.Time) error

	// RevokeAll deactivates every active session of the user.
	RevokeAll(context context.Context, userID string, at time.Time) (int64, error)

	// RevokeOthers deactivates every active session of the user except keepID.
	RevokeOthers(context context.Context, userID, keepID string, at time.Time) (int64, error)

	/*
		RevokeOwned deactivates one live session, only if it belongs to userID.

		Returns:
		  - bool: false when no such live session exists for the user
		  - error: Persistence failures
	*/
	RevokeOwned(context context.Context, userID, id string, at time.Time) (bool, error)

	// ListActive returns the user's active, unexpired sessions, newest first.
	ListActive(context context.Context, userID string, now time.Time) ([]*Session, error)

	/*
		DeleteExpired removes sessions whose expiry is at or before now, and
		inactive sessions created before inactiveBefore.

		Returns:
		  - int64: Rows removed
		  - error: Database failures
	*/
	DeleteExpired(context context.Context, now, inactiveBefore time.Time) (int64, error)
}

// # Volatile Data Access

// LoginThrottle counts failed logins per key inside a sliding window.
type LoginThrottle interface {

	// Blocked reports whether key reached the failure limit, and for how long it stays blocked.
	Blocked(context context.Context, key string) (bool, time.Duration, error)

	// RecordFailure counts one failed attempt for key.
	RecordFailure(context context.Context, key string) error

	// Reset clears the counter after a successful login.
	Reset(context context.Context, key string) error
}

// ActivityThrottle debounces last-activity writes per user.
type ActivityThrottle interface {

	// Allow reports whether a write for userID should happen now, claiming the slot if so.
	Allow(context context.Context, userID string) (bool, error)
}
