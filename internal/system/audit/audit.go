// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package audit provides the append-only trail of privileged actions.

Every state-changing action taken by an authenticated actor (login, logout, user
management, self-service account changes) is recorded with the actor, the target
and an optional before/after snapshot.

Writes are best-effort: [Recorder.Record] never fails the business operation it
documents. A failed write is logged and counted instead.
*/
package audit

import (
	"net/http"
	"time"

	requestutil "github.com/nzela/nzela-api/internal/platform/request"
	"github.com/nzela/nzela-api/internal/platform/sec"
)

// Action names a recorded operation.
type Action string

const (
	ActionLogin          Action = "login"
	ActionLogout         Action = "logout"
	ActionListUsers      Action = "list_users"
	ActionCreateUser     Action = "create_user"
	ActionUpdateUser     Action = "update_user"
	ActionDeleteUser     Action = "delete_user"
	ActionUpdateProfile  Action = "update_profile"
	ActionChangePassword Action = "change_password"
	ActionDeleteAccount  Action = "delete_account"
)

// Target types.
const (
	TargetUser    = "user"
	TargetSession = "session"
)

// Entry is a single audit record.
type Entry struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actor_id"`
	ActorRole  sec.Role  `json:"actor_role"`
	Action     Action    `json:"action"`
	TargetType string    `json:"target_type"`
	TargetID   string    `json:"target_id,omitempty"`
	Before     any       `json:"before,omitempty"`
	After      any       `json:"after,omitempty"`
	IPAddress  string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
	CreatedAt  time.Time `json:"created_at"`
}

// FromIdentity pre-fills the actor and client fields of an entry.
func FromIdentity(identity *sec.Identity, request *http.Request) Entry {
	entry := Entry{
		IPAddress: requestutil.ClientIP(request),
		UserAgent: request.UserAgent(),
	}
	if identity != nil {
		entry.ActorID = identity.UserID
		entry.ActorRole = identity.Role
	}
	return entry
}

// On returns a copy of the entry describing action on the given target.
func (entry Entry) On(action Action, targetType, targetID string) Entry {
	entry.Action = action
	entry.TargetType = targetType
	entry.TargetID = targetID
	return entry
}
