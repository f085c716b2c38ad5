// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nzela/nzela-api/internal/platform/sec"
	"github.com/nzela/nzela-api/internal/system/audit"
	"github.com/nzela/nzela-api/internal/users/admin"
	"github.com/nzela/nzela-api/internal/users/auth"
	"github.com/nzela/nzela-api/pkg/pointer"
)

func createInput(email string, role sec.Role) admin.CreateInput {
	return admin.CreateInput{
		Email:     email,
		Password:  testPassword,
		FirstName: "Marie",
		LastName:  "Kabila",
		Role:      role,
	}
}

/*
TestService_Create checks account provisioning across every (actor, role) pair
and the grants each account receives.
*/
func TestService_Create(t *testing.T) {
	tests := []struct {
		name       string
		actorRole  sec.Role
		role       sec.Role
		grant      *sec.PermissionSet
		wantStatus int
		wantPerms  sec.PermissionSet
	}{
		{"admin_creates_citizen", sec.RoleAdmin, sec.RoleCitizen, nil, 0, 0},
		{"admin_default_role", sec.RoleAdmin, "", nil, 0, 0},
		{"admin_creates_admin", sec.RoleAdmin, sec.RoleAdmin, nil, http.StatusForbidden, 0},
		{"admin_creates_superadmin", sec.RoleAdmin, sec.RoleSuperadmin, nil, http.StatusForbidden, 0},
		{"citizen_creates_citizen", sec.RoleCitizen, sec.RoleCitizen, nil, http.StatusForbidden, 0},
		{"superadmin_creates_admin", sec.RoleSuperadmin, sec.RoleAdmin, nil, 0, sec.DefaultPermissions(sec.RoleAdmin)},
		{"superadmin_creates_superadmin", sec.RoleSuperadmin, sec.RoleSuperadmin, nil, 0, sec.DefaultPermissions(sec.RoleSuperadmin)},
		{
			"superadmin_custom_grants", sec.RoleSuperadmin, sec.RoleAdmin,
			pointer.To(sec.NewPermissionSet(sec.PermManageUsers)), 0, sec.NewPermissionSet(sec.PermManageUsers),
		},
		{
			"admin_grants_beyond_own", sec.RoleAdmin, sec.RoleCitizen,
			pointer.To(sec.NewPermissionSet(sec.PermManageAdmins)), http.StatusForbidden, 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			actor := f.identity(f.addUser(t, "actor@nzela.cd", tt.actorRole, time.Hour))

			input := createInput("Nouveau@NZELA.cd", tt.role)
			input.Permissions = tt.grant

			user, err := f.service.Create(context.Background(), actor, input, entryFor(actor))

			if tt.wantStatus != 0 {
				requireStatus(t, err, tt.wantStatus)
				assert.Empty(t, f.sink.Actions())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "nouveau@nzela.cd", user.Email)
			assert.Equal(t, tt.wantPerms, user.Permissions)
			assert.True(t, user.IsActive)
			require.NotNil(t, user.CreatedBy)
			assert.Equal(t, actor.UserID, *user.CreatedBy)
			assert.True(t, hasher.Verify(testPassword, user.PasswordHash))

			entry, ok := f.sink.Last()
			require.True(t, ok)
			assert.Equal(t, audit.ActionCreateUser, entry.Action)
			assert.Equal(t, user.ID, entry.TargetID)
			assert.Nil(t, entry.Before)
			assert.NotNil(t, entry.After)
		})
	}
}

/*
TestService_CreateDuplicate verifies that a taken address is a conflict,
regardless of case.
*/
func TestService_CreateDuplicate(t *testing.T) {
	f := newFixture(t)
	actor := f.identity(f.addUser(t, "root@nzela.cd", sec.RoleSuperadmin, time.Hour))
	f.addUser(t, "taken@nzela.cd", sec.RoleCitizen, time.Hour)

	_, err := f.service.Create(context.Background(), actor, createInput("TAKEN@nzela.cd", sec.RoleCitizen), entryFor(actor))
	requireStatus(t, err, http.StatusConflict)
}

/*
TestService_Update checks the management matrix for updates.
*/
func TestService_Update(t *testing.T) {
	tests := []struct {
		name       string
		actorRole  sec.Role
		targetRole sec.Role
		input      admin.UpdateInput
		wantStatus int
	}{
		{"admin_renames_citizen", sec.RoleAdmin, sec.RoleCitizen, admin.UpdateInput{FirstName: pointer.To("Jeanne")}, 0},
		{"admin_changes_citizen_email", sec.RoleAdmin, sec.RoleCitizen, admin.UpdateInput{Email: pointer.To("new@nzela.cd")}, 0},
		{"admin_promotes_citizen", sec.RoleAdmin, sec.RoleCitizen, admin.UpdateInput{Role: pointer.To(sec.RoleAdmin)}, http.StatusForbidden},
		{"admin_renames_admin", sec.RoleAdmin, sec.RoleAdmin, admin.UpdateInput{FirstName: pointer.To("X")}, http.StatusForbidden},
		{"admin_renames_superadmin", sec.RoleAdmin, sec.RoleSuperadmin, admin.UpdateInput{FirstName: pointer.To("X")}, http.StatusForbidden},
		{"superadmin_promotes_citizen", sec.RoleSuperadmin, sec.RoleCitizen, admin.UpdateInput{Role: pointer.To(sec.RoleAdmin)}, 0},
		{"superadmin_demotes_admin", sec.RoleSuperadmin, sec.RoleAdmin, admin.UpdateInput{Role: pointer.To(sec.RoleCitizen)}, 0},
		{"empty_update", sec.RoleSuperadmin, sec.RoleCitizen, admin.UpdateInput{}, http.StatusBadRequest},
		{"same_role_is_empty", sec.RoleSuperadmin, sec.RoleCitizen, admin.UpdateInput{Role: pointer.To(sec.RoleCitizen)}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			actor := f.identity(f.addUser(t, "actor@nzela.cd", tt.actorRole, time.Hour))
			target := f.addUser(t, "target@nzela.cd", tt.targetRole, time.Hour)

			updated, err := f.service.Update(context.Background(), actor, target.ID, tt.input, entryFor(actor))

			if tt.wantStatus != 0 {
				requireStatus(t, err, tt.wantStatus)
				assert.Equal(t, target.Role, f.users.Get(target.ID).Role)
				assert.Empty(t, f.sink.Actions())
				return
			}

			require.NoError(t, err)
			entry, ok := f.sink.Last()
			require.True(t, ok)
			assert.Equal(t, audit.ActionUpdateUser, entry.Action)
			assert.Equal(t, target.ID, entry.TargetID)
			assert.Equal(t, target.Role, entry.Before.(admin.Snapshot).Role)
			assert.Equal(t, updated.Role, entry.After.(admin.Snapshot).Role)
		})
	}
}

/*
TestService_UpdateRoleChange verifies that a promotion resets grants to the new
role's defaults and ends the target's sessions.
*/
func TestService_UpdateRoleChange(t *testing.T) {
	f := newFixture(t)
	actor := f.identity(f.addUser(t, "root@nzela.cd", sec.RoleSuperadmin, time.Hour))
	target := f.addUser(t, "citizen@nzela.cd", sec.RoleCitizen, time.Hour)
	handle := f.login(t, target)

	updated, err := f.service.Update(context.Background(), actor, target.ID, admin.UpdateInput{Role: pointer.To(sec.RoleAdmin)}, entryFor(actor))
	require.NoError(t, err)

	assert.Equal(t, sec.RoleAdmin, updated.Role)
	assert.Equal(t, sec.DefaultPermissions(sec.RoleAdmin), updated.Permissions)
	assert.Equal(t, 0, f.sessions.Active(target.ID))

	_, err = f.manager.ResolveSession(context.Background(), handle.Token)
	assert.Error(t, err)
}

/*
TestService_UpdateDeactivation verifies that disabling an account revokes its
sessions while a rename does not.
*/
func TestService_UpdateDeactivation(t *testing.T) {
	f := newFixture(t)
	actor := f.identity(f.addUser(t, "admin@nzela.cd", sec.RoleAdmin, time.Hour))
	target := f.addUser(t, "citizen@nzela.cd", sec.RoleCitizen, time.Hour)
	f.login(t, target)

	// 1. A rename keeps the session
	_, err := f.service.Update(context.Background(), actor, target.ID, admin.UpdateInput{LastName: pointer.To("Tshisekedi")}, entryFor(actor))
	require.NoError(t, err)
	assert.Equal(t, 1, f.sessions.Active(target.ID))

	// 2. Deactivation ends it
	updated, err := f.service.Update(context.Background(), actor, target.ID, admin.UpdateInput{IsActive: pointer.To(false)}, entryFor(actor))
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, 0, f.sessions.Active(target.ID))
}

/*
TestService_UpdatePasswordReset verifies that an admin-set password replaces the
hash and ends the target's sessions.
*/
func TestService_UpdatePasswordReset(t *testing.T) {
	f := newFixture(t)
	actor := f.identity(f.addUser(t, "admin@nzela.cd", sec.RoleAdmin, time.Hour))
	target := f.addUser(t, "citizen@nzela.cd", sec.RoleCitizen, time.Hour)
	f.login(t, target)

	_, err := f.service.Update(context.Background(), actor, target.ID, admin.UpdateInput{NewPassword: pointer.To("brand-new-secret")}, entryFor(actor))
	require.NoError(t, err)

	stored := f.users.Get(target.ID)
	assert.True(t, hasher.Verify("brand-new-secret", stored.PasswordHash))
	assert.False(t, hasher.Verify(testPassword, stored.PasswordHash))
	assert.Equal(t, 0, f.sessions.Active(target.ID))
}

/*
TestService_UpdateSelf verifies that nobody changes their own role or status.
*/
func TestService_UpdateSelf(t *testing.T) {
	f := newFixture(t)
	root := f.addUser(t, "root@nzela.cd", sec.RoleSuperadmin, time.Hour)
	actor := f.identity(root)

	for _, input := range []admin.UpdateInput{
		{Role: pointer.To(sec.RoleCitizen)},
		{IsActive: pointer.To(false)},
	} {
		_, err := f.service.Update(context.Background(), actor, root.ID, input, entryFor(actor))
		appErr := requireStatus(t, err, http.StatusBadRequest)
		assert.Equal(t, "SELF_ACTION", appErr.Code)
	}

	// Own names are fine.
	_, err := f.service.Update(context.Background(), actor, root.ID, admin.UpdateInput{FirstName: pointer.To("Root")}, entryFor(actor))
	assert.NoError(t, err)
}

/*
TestService_UpdateUnknown verifies that an unknown id is a 404.
*/
func TestService_UpdateUnknown(t *testing.T) {
	f := newFixture(t)
	actor := f.identity(f.addUser(t, "root@nzela.cd", sec.RoleSuperadmin, time.Hour))

	_, err := f.service.Update(context.Background(), actor, "0190a0b2-0000-7000-8000-000000000000", admin.UpdateInput{FirstName: pointer.To("X")}, entryFor(actor))
	requireStatus(t, err, http.StatusNotFound)
}

/*
TestService_Delete checks the management matrix for deletion, including the
self-delete rule.
*/
func TestService_Delete(t *testing.T) {
	tests := []struct {
		name       string
		actorRole  sec.Role
		targetRole sec.Role
		self       bool
		wantStatus int
		wantCode   string
	}{
		{"admin_deletes_citizen", sec.RoleAdmin, sec.RoleCitizen, false, 0, ""},
		{"admin_deletes_admin", sec.RoleAdmin, sec.RoleAdmin, false, http.StatusForbidden, ""},
		{"admin_deletes_superadmin", sec.RoleAdmin, sec.RoleSuperadmin, false, http.StatusForbidden, ""},
		{"superadmin_deletes_admin", sec.RoleSuperadmin, sec.RoleAdmin, false, 0, ""},
		{"superadmin_deletes_self", sec.RoleSuperadmin, sec.RoleSuperadmin, true, http.StatusBadRequest, "SELF_ACTION"},
		{"admin_deletes_self", sec.RoleAdmin, sec.RoleAdmin, true, http.StatusBadRequest, "SELF_ACTION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			actorUser := f.addUser(t, "actor@nzela.cd", tt.actorRole, time.Hour)
			actor := f.identity(actorUser)

			target := actorUser
			if !tt.self {
				target = f.addUser(t, "target@nzela.cd", tt.targetRole, time.Hour)
			}
			f.login(t, target)

			err := f.service.Delete(context.Background(), actor, target.ID, entryFor(actor))

			if tt.wantStatus != 0 {
				appErr := requireStatus(t, err, tt.wantStatus)
				if tt.wantCode != "" {
					assert.Equal(t, tt.wantCode, appErr.Code)
				}
				assert.Nil(t, f.users.Get(target.ID).DeletedAt)
				assert.Equal(t, 1, f.sessions.Active(target.ID))
				return
			}

			require.NoError(t, err)

			stored := f.users.Get(target.ID)
			require.NotNil(t, stored.DeletedAt)
			assert.False(t, stored.IsActive)
			assert.Equal(t, "deleted_"+target.ID+"_target@nzela.cd", stored.Email)
			assert.Equal(t, 0, f.sessions.Active(target.ID))

			entry, ok := f.sink.Last()
			require.True(t, ok)
			assert.Equal(t, audit.ActionDeleteUser, entry.Action)
			assert.Equal(t, "target@nzela.cd", entry.Before.(admin.Snapshot).Email)

			// The address is free again.
			_, err = f.users.FindUserByEmail(context.Background(), "target@nzela.cd")
			assert.ErrorIs(t, err, auth.ErrUserNotFound)
		})
	}
}

/*
TestService_List verifies filters, statistics and the audit entry of a listing.
*/
func TestService_List(t *testing.T) {
	f := newFixture(t)
	actorUser := f.addUser(t, "admin@nzela.cd", sec.RoleAdmin, 90*24*time.Hour)
	actor := f.identity(actorUser)

	f.addUser(t, "root@nzela.cd", sec.RoleSuperadmin, 90*24*time.Hour)
	f.addUser(t, "old@nzela.cd", sec.RoleCitizen, 60*24*time.Hour)
	f.addUser(t, "recent@nzela.cd", sec.RoleCitizen, 2*24*time.Hour)
	disabled := f.addUser(t, "disabled@nzela.cd", sec.RoleCitizen, time.Hour)
	_, err := f.users.UpdateUser(context.Background(), disabled.ID, auth.UserUpdate{IsActive: pointer.To(false)})
	require.NoError(t, err)

	// 1. Citizens only
	result, err := f.service.List(context.Background(), actor, auth.UserFilter{
		Roles: []sec.Role{sec.RoleCitizen},
		Limit: 2,
	}, entryFor(actor))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	require.Len(t, result.Users, 2)
	assert.Equal(t, "disabled@nzela.cd", result.Users[0].Email, "newest first")

	assert.Equal(t, admin.Stats{
		TotalCitizens:       3,
		TotalAdmins:         2,
		ActiveUsers:         4,
		RecentRegistrations: 2,
	}, result.Stats)

	// 2. Search across names and email
	result, err = f.service.List(context.Background(), actor, auth.UserFilter{Search: "recent", Limit: 20}, entryFor(actor))
	require.NoError(t, err)
	require.Len(t, result.Users, 1)
	assert.Equal(t, "recent@nzela.cd", result.Users[0].Email)

	// 3. Both listings are audited
	assert.Equal(t, []audit.Action{audit.ActionListUsers, audit.ActionListUsers}, f.sink.Actions())
}

/*
TestService_ListRequiresAdmin verifies that citizens cannot list accounts.
*/
func TestService_ListRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	actor := f.identity(f.addUser(t, "citizen@nzela.cd", sec.RoleCitizen, time.Hour))

	_, err := f.service.List(context.Background(), actor, auth.UserFilter{Limit: 20}, entryFor(actor))
	requireStatus(t, err, http.StatusForbidden)

	_, err = f.service.List(context.Background(), nil, auth.UserFilter{Limit: 20}, entryFor(nil))
	requireStatus(t, err, http.StatusUnauthorized)
}

/*
TestService_Get verifies per-target visibility.
*/
func TestService_Get(t *testing.T) {
	f := newFixture(t)
	actor := f.identity(f.addUser(t, "admin@nzela.cd", sec.RoleAdmin, time.Hour))
	citizen := f.addUser(t, "citizen@nzela.cd", sec.RoleCitizen, time.Hour)
	peer := f.addUser(t, "peer@nzela.cd", sec.RoleAdmin, time.Hour)

	user, err := f.service.Get(context.Background(), actor, citizen.ID)
	require.NoError(t, err)
	assert.Equal(t, citizen.ID, user.ID)

	_, err = f.service.Get(context.Background(), actor, peer.ID)
	requireStatus(t, err, http.StatusForbidden)
}
