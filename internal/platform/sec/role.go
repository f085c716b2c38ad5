// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "fmt"

// # User Roles

// Role represents the authorization level granted to an account.
type Role string

const (
	// Unrestricted system access, including other superadmins.
	RoleSuperadmin Role = "superadmin"

	// Triages reports and manages citizen accounts.
	RoleAdmin Role = "admin"

	// Default role for self-registered users.
	RoleCitizen Role = "citizen"
)

// ParseRole validates a raw role name from a request or a database row.
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	if !role.Valid() {
		return "", fmt.Errorf("sec: unknown role %q", raw)
	}
	return role, nil
}

// # Role Hierarchy

// Rank returns the position of the role in the strict order citizen(1) < admin(2) < superadmin(3).
// Unknown roles rank 0.
func (r Role) Rank() int {
	switch r {
	case RoleSuperadmin:
		return 3
	case RoleAdmin:
		return 2
	case RoleCitizen:
		return 1
	default:
		return 0
	}
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	return r.Rank() > 0
}

// AtLeast checks if the current role meets or exceeds the required target role.
// An unknown role on either side never satisfies the check.
func (r Role) AtLeast(target Role) bool {
	if !r.Valid() || !target.Valid() {
		return false
	}
	return r.Rank() >= target.Rank()
}

// Privileged reports whether the role belongs to the back-office (admin or above).
func (r Role) Privileged() bool {
	return r.AtLeast(RoleAdmin)
}

func (r Role) String() string { return string(r) }
