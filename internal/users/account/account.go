// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account handles self-service management of the caller's own account.

It lets an authenticated user read and update their profile, change their
password, review and revoke their device sessions, and delete their account.

# Architecture

  - Entities: SessionInfo (DTO). The User entity belongs to the auth package.
  - Reports: Account deletion reaches into the reports module only through
    [AccountEraser].
  - Security: Password changes rotate the current session and end every other.
*/
package account

import (
	"context"
	"time"

	"github.com/nzela/nzela-api/internal/users/auth"
)

// # Field Identifiers

const (
	FieldKeepReports = "keep_reports"
	FieldSessionID   = "session_id"
)

// # Domain Entities

// SessionInfo is the client view of a device session. It omits the token hash.
type SessionInfo struct {
	ID         string     `json:"id"`
	IPAddress  string     `json:"ip_address"`
	UserAgent  string     `json:"user_agent"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
	IsCurrent  bool       `json:"is_current"`
}

func sessionInfo(session *auth.Session, currentID string) SessionInfo {
	return SessionInfo{
		ID:         session.ID,
		IPAddress:  session.IPAddress,
		UserAgent:  session.UserAgent,
		CreatedAt:  session.CreatedAt,
		ExpiresAt:  session.ExpiresAt,
		LastSeenAt: session.LastSeenAt,
		IsCurrent:  session.ID == currentID,
	}
}

// UpdateProfileInput is the mutable subset of the caller's profile. Nil fields
// are left unchanged.
type UpdateProfileInput struct {
	Email     *string
	FirstName *string
	LastName  *string
	Phone     *string
	Province  *string
}

// DeleteInput confirms an account deletion.
type DeleteInput struct {
	Password string
	// KeepReports must be set when the account owns reports; they are then
	// anonymized instead of blocking the deletion.
	KeepReports bool
}

// DeleteResult describes a completed deletion.
type DeleteResult struct {
	DeletedAt         time.Time `json:"deleted_at"`
	ReportsAnonymized int64     `json:"reports_anonymized"`
}

// # Collaborator Contracts

// AccountEraser removes an account together with the identity on its reports.
type AccountEraser interface {

	// CountOwnedReports returns the number of live reports filed by the user.
	CountOwnedReports(context context.Context, userID string) (int64, error)

	/*
		EraseAccount clears the owner and the reporter contact fields of every
		report filed by the user, then soft-deletes the account. Both writes
		commit together or not at all.

		Returns:
		  - int64: Reports anonymized
		  - error: auth.ErrUserNotFound when the account is already gone,
		    database failures otherwise
	*/
	EraseAccount(context context.Context, userID string, at time.Time) (int64, error)
}
