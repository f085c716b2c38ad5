// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package admin implements back-office user management.

Admins manage citizen accounts; superadmins manage everyone. Every decision about
who may act on whom is delegated to [authz.CanActOnUser], and every change is
recorded in the audit trail with a before and after snapshot.

# Endpoints

The package is mounted under /api/v1/admin and requires the admin role:

  - GET    /me          : The caller's own back-office profile.
  - GET    /users       : Filtered, paginated listing with account statistics.
  - POST   /users       : Provision an account of any role the caller may create.
  - GET    /users/{id}  : One account.
  - PUT    /users/{id}  : Partial update.
  - DELETE /users/{id}  : Soft delete.
*/
package admin

import (
	"time"

	"github.com/nzela/nzela-api/internal/platform/sec"
	"github.com/nzela/nzela-api/internal/users/auth"
)

// RecentWindow bounds "recent registrations" in [Stats].
const RecentWindow = 30 * 24 * time.Hour

// Stats summarizes the account base for the dashboard header.
type Stats struct {
	TotalCitizens       int `json:"total_citizens"`
	TotalAdmins         int `json:"total_admins"`
	ActiveUsers         int `json:"active_users"`
	RecentRegistrations int `json:"recent_registrations"`
}

// ListResult is one page of accounts plus global statistics.
type ListResult struct {
	Users []*auth.User `json:"users"`
	Total int          `json:"-"`
	Stats Stats        `json:"stats"`
}

// CreateInput provisions an account. Nil Permissions means the role defaults.
type CreateInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Phone       string
	Province    string
	Role        sec.Role
	Permissions *sec.PermissionSet
	IsActive    *bool
}

// UpdateInput is a partial account update. Nil fields are left unchanged.
type UpdateInput struct {
	Email       *string
	FirstName   *string
	LastName    *string
	Phone       *string
	Province    *string
	Role        *sec.Role
	Permissions *sec.PermissionSet
	IsActive    *bool
	NewPassword *string
}

// Snapshot is the audited view of an account. It never carries the password hash.
type Snapshot struct {
	Email       string            `json:"email"`
	FirstName   string            `json:"first_name"`
	LastName    string            `json:"last_name"`
	Phone       string            `json:"phone,omitempty"`
	Province    string            `json:"province,omitempty"`
	Role        sec.Role          `json:"role"`
	Permissions sec.PermissionSet `json:"permissions"`
	IsActive    bool              `json:"is_active"`
}

func snapshotOf(user *auth.User) Snapshot {
	return Snapshot{
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Phone:       user.Phone,
		Province:    user.Province,
		Role:        user.Role,
		Permissions: user.Permissions,
		IsActive:    user.IsActive,
	}
}
