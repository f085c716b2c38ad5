// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"sort"
)

// Permission names a granular back-office grant.
type Permission string

const (
	PermViewSignalements   Permission = "view_signalements"
	PermManageSignalements Permission = "manage_signalements"
	PermViewStats          Permission = "view_stats"
	PermManageTypes        Permission = "manage_types"
	PermManageUsers        Permission = "manage_users"
	PermManageAdmins       Permission = "manage_admins"
)

// permissionBits assigns each known permission one bit of a [PermissionSet].
var permissionBits = map[Permission]PermissionSet{
	PermViewSignalements:   1 << 0,
	PermManageSignalements: 1 << 1,
	PermViewStats:          1 << 2,
	PermManageTypes:        1 << 3,
	PermManageUsers:        1 << 4,
	PermManageAdmins:       1 << 5,
}

// AllPermissions lists every known permission in declaration order.
var AllPermissions = []Permission{
	PermViewSignalements,
	PermManageSignalements,
	PermViewStats,
	PermManageTypes,
	PermManageUsers,
	PermManageAdmins,
}

// Known reports whether p is a permission this service understands.
func (p Permission) Known() bool {
	_, ok := permissionBits[p]
	return ok
}

// PermissionSet is a bitmask of known permissions. The zero value grants nothing.
type PermissionSet uint32

// NewPermissionSet builds a set from known permissions.
func NewPermissionSet(perms ...Permission) PermissionSet {
	var set PermissionSet
	for _, p := range perms {
		set |= permissionBits[p]
	}
	return set
}

// ParsePermissions validates raw permission names at the boundary.
// Unknown names are rejected so typos never silently grant or drop access.
func ParsePermissions(names []string) (PermissionSet, error) {
	var set PermissionSet
	for _, name := range names {
		bit, ok := permissionBits[Permission(name)]
		if !ok {
			return 0, fmt.Errorf("sec: unknown permission %q", name)
		}
		set |= bit
	}
	return set, nil
}

// Has reports whether p is granted. Unknown permissions are never granted.
func (s PermissionSet) Has(p Permission) bool {
	bit, ok := permissionBits[p]
	return ok && s&bit != 0
}

// With returns a copy of s extended with perms.
func (s PermissionSet) With(perms ...Permission) PermissionSet {
	return s | NewPermissionSet(perms...)
}

// Len returns the number of granted permissions.
func (s PermissionSet) Len() int {
	return bits.OnesCount32(uint32(s))
}

// Names returns the granted permission names sorted alphabetically.
func (s PermissionSet) Names() []string {
	names := make([]string, 0, s.Len())
	for p, bit := range permissionBits {
		if s&bit != 0 {
			names = append(names, string(p))
		}
	}
	sort.Strings(names)
	return names
}

// MarshalJSON encodes the set as a sorted array of names.
func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

// UnmarshalJSON accepts either an array of names or the legacy object form
// {"name": true}. Entries mapped to false are not granted.
func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err == nil {
		set, err := ParsePermissions(names)
		if err != nil {
			return err
		}
		*s = set
		return nil
	}

	var flags map[string]bool
	if err := json.Unmarshal(data, &flags); err != nil {
		return fmt.Errorf("sec: permissions must be an array or an object: %w", err)
	}

	granted := make([]string, 0, len(flags))
	for name, on := range flags {
		if on {
			granted = append(granted, name)
		}
	}

	set, err := ParsePermissions(granted)
	if err != nil {
		return err
	}
	*s = set
	return nil
}

// DefaultPermissions returns the grants provisioned with a new account of the given role.
func DefaultPermissions(role Role) PermissionSet {
	switch role {
	case RoleSuperadmin:
		return NewPermissionSet(AllPermissions...)
	case RoleAdmin:
		return NewPermissionSet(PermViewSignalements, PermManageSignalements, PermViewStats)
	default:
		return 0
	}
}
