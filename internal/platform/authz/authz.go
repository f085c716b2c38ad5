// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package authz decides whether a resolved [sec.Identity] may perform an operation.

Every check is a pure function of its arguments: no globals, no store access.
Handlers and middleware call these after the session has been resolved once for
the request.

Rules:

  - Roles form a strict order citizen < admin < superadmin.
  - Superadmin holds every permission; other roles hold only stored grants.
  - User management: superadmin acts on anyone, admin acts on citizens only,
    nobody deletes their own account here, and only superadmin assigns the
    admin or superadmin role.
*/
package authz

import (
	"github.com/nzela/nzela-api/internal/platform/apperr"
	"github.com/nzela/nzela-api/internal/platform/sec"
)

// Action is an operation performed on another user account.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Target describes the account an action applies to.
type Target struct {
	// ID is empty when the account does not exist yet (create).
	ID string
	// Role is the target's current role, or the role being created.
	Role sec.Role
	// RequestedRole is the role the action would assign; empty when unchanged.
	RequestedRole sec.Role
}

// ErrSelfDelete rejects deleting one's own account through user management.
var ErrSelfDelete = apperr.BadRequest("SELF_ACTION", "You cannot delete your own account from user management")

// RequireRole allows the identity iff its role ranks at least minRole.
func RequireRole(identity *sec.Identity, minRole sec.Role) error {
	if identity == nil {
		return apperr.Unauthenticated("Authentication required")
	}
	if !identity.Role.AtLeast(minRole) {
		return apperr.InsufficientPrivilege("This action requires the " + minRole.String() + " role")
	}
	return nil
}

// RequirePermission allows the identity iff it holds permission. Unknown
// permissions are denied.
func RequirePermission(identity *sec.Identity, permission sec.Permission) error {
	if identity == nil {
		return apperr.Unauthenticated("Authentication required")
	}
	if !identity.Can(permission) {
		return apperr.InsufficientPrivilege("Missing permission: " + string(permission))
	}
	return nil
}

// CanActOnUser applies the cross-role management rules.
func CanActOnUser(actor *sec.Identity, target Target, action Action) error {
	if actor == nil {
		return apperr.Unauthenticated("Authentication required")
	}

	// Only the back-office manages accounts.
	if !actor.Role.AtLeast(sec.RoleAdmin) {
		return apperr.InsufficientPrivilege("User management requires the admin role")
	}

	if action == ActionDelete && target.ID != "" && target.ID == actor.UserID {
		return ErrSelfDelete
	}

	if actor.Role == sec.RoleSuperadmin {
		return nil
	}

	// From here the actor is an admin.
	if target.RequestedRole != "" && target.RequestedRole.AtLeast(sec.RoleAdmin) {
		return apperr.InsufficientPrivilege("Only a superadmin can grant the " + target.RequestedRole.String() + " role")
	}

	if target.Role != sec.RoleCitizen {
		return apperr.InsufficientPrivilege("Admins can only manage citizen accounts")
	}

	return nil
}

// CanGrant allows the actor to assign permissions only when it holds every one
// of them itself.
func CanGrant(actor *sec.Identity, permissions sec.PermissionSet) error {
	if actor == nil {
		return apperr.Unauthenticated("Authentication required")
	}
	for _, name := range permissions.Names() {
		if !actor.Can(sec.Permission(name)) {
			return apperr.InsufficientPrivilege("Cannot grant a permission you do not hold: " + name)
		}
	}
	return nil
}
