// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "time"

// Identity is the snapshot of an authenticated caller, resolved once per request
// from a live session.
type Identity struct {
	UserID      string        `json:"id"`
	Email       string        `json:"email"`
	Name        string        `json:"name"`
	Role        Role          `json:"role"`
	Permissions PermissionSet `json:"permissions"`
	SessionID   string        `json:"-"`
	ExpiresAt   time.Time     `json:"session_expires"`
}

// Can reports whether the identity holds p. Superadmin holds every permission.
func (identity *Identity) Can(p Permission) bool {
	if identity == nil {
		return false
	}
	if identity.Role == RoleSuperadmin {
		return true
	}
	return identity.Permissions.Has(p)
}
