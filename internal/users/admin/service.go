// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nzela/nzela-api/internal/platform/apperr"
	"github.com/nzela/nzela-api/internal/platform/authz"
	"github.com/nzela/nzela-api/internal/platform/metrics"
	"github.com/nzela/nzela-api/internal/platform/sec"
	"github.com/nzela/nzela-api/internal/system/audit"
	"github.com/nzela/nzela-api/internal/users/auth"
	"github.com/nzela/nzela-api/pkg/normalize"
	"github.com/nzela/nzela-api/pkg/uuid"
)

// ErrSelfChange rejects changing one's own role or status, which could lock the
// back-office out.
var ErrSelfChange = apperr.BadRequest("SELF_ACTION", "You cannot change your own role or status")

// ErrNoChanges rejects an update carrying no field.
var ErrNoChanges = apperr.BadRequest("NO_CHANGES", "No fields to update")

// Service implements the user management use cases.
type Service struct {
	users    auth.CredentialStore
	sessions *auth.SessionManager
	hasher   *sec.PasswordHasher
	recorder *audit.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a new [Service].
func NewService(
	users auth.CredentialStore,
	sessions *auth.SessionManager,
	hasher *sec.PasswordHasher,
	recorder *audit.Recorder,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		recorder: recorder,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source. Used by tests.
func (service *Service) WithClock(now func() time.Time) *Service {
	service.now = now
	return service
}

// # Reads

// Me returns the caller's own account.
func (service *Service) Me(ctx context.Context, actor *sec.Identity) (*auth.User, error) {
	if err := authz.RequireRole(actor, sec.RoleAdmin); err != nil {
		return nil, err
	}
	return service.load(ctx, actor.UserID)
}

/*
List returns one page of accounts matching filter, with global statistics.

Description: Any admin may list every account; acting on one is checked per
target. The listing itself is audited with the filter that produced it.
*/
func (service *Service) List(ctx context.Context, actor *sec.Identity, filter auth.UserFilter, entry audit.Entry) (*ListResult, error) {
	if err := authz.RequireRole(actor, sec.RoleAdmin); err != nil {
		return nil, err
	}

	users, total, err := service.users.ListUsers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("admin_service_list_failed: %w", err)
	}

	stats, err := service.Stats(ctx)
	if err != nil {
		return nil, err
	}

	entry = entry.On(audit.ActionListUsers, audit.TargetUser, "")
	entry.After = map[string]any{
		"roles":  filter.Roles,
		"active": filter.Active,
		"search": filter.Search,
		"total":  total,
	}
	service.recorder.Record(ctx, entry)

	return &ListResult{Users: users, Total: total, Stats: stats}, nil
}

// Stats summarizes the account base: accounts per role, active accounts and
// registrations within [RecentWindow].
func (service *Service) Stats(ctx context.Context) (Stats, error) {
	counts, err := service.users.CountUsers(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("admin_service_count_failed: %w", err)
	}

	active := true
	_, activeUsers, err := service.users.ListUsers(ctx, auth.UserFilter{Active: &active, Limit: 1})
	if err != nil {
		return Stats{}, fmt.Errorf("admin_service_count_active_failed: %w", err)
	}

	since := service.now().Add(-RecentWindow)
	_, recent, err := service.users.ListUsers(ctx, auth.UserFilter{CreatedSince: &since, Limit: 1})
	if err != nil {
		return Stats{}, fmt.Errorf("admin_service_count_recent_failed: %w", err)
	}

	return Stats{
		TotalCitizens:       counts[sec.RoleCitizen],
		TotalAdmins:         counts[sec.RoleAdmin] + counts[sec.RoleSuperadmin],
		ActiveUsers:         activeUsers,
		RecentRegistrations: recent,
	}, nil
}

// Get returns one account the actor is allowed to see.
func (service *Service) Get(ctx context.Context, actor *sec.Identity, id string) (*auth.User, error) {
	user, err := service.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanActOnUser(actor, authz.Target{ID: user.ID, Role: user.Role}, authz.ActionView); err != nil {
		return nil, err
	}
	return user, nil
}

func (service *Service) load(ctx context.Context, id string) (*auth.User, error) {
	user, err := service.users.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("admin_service_load_failed: %w", err)
	}
	return user, nil
}

// # Writes

/*
Create provisions an account.

Description: The role defaults to citizen and the grants to the role defaults.
Only a superadmin provisions admins and superadmins, and nobody grants a
permission they do not hold.

Returns:
  - *auth.User: The created account
  - error: 403 on a forbidden role or grant, 409 on a taken email
*/
func (service *Service) Create(ctx context.Context, actor *sec.Identity, input CreateInput, entry audit.Entry) (*auth.User, error) {
	role := input.Role
	if role == "" {
		role = sec.RoleCitizen
	}

	if err := authz.CanActOnUser(actor, authz.Target{Role: role, RequestedRole: role}, authz.ActionCreate); err != nil {
		return nil, err
	}

	permissions := sec.DefaultPermissions(role)
	if input.Permissions != nil {
		permissions = *input.Permissions
	}
	if err := authz.CanGrant(actor, permissions); err != nil {
		return nil, err
	}

	hashedPassword, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("admin_service_hash_failed: %w", err)
	}

	createdBy := actor.UserID
	user := &auth.User{
		ID:           uuid.New(),
		Email:        normalize.Email(input.Email),
		PasswordHash: hashedPassword,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		Province:     input.Province,
		Role:         role,
		Permissions:  permissions,
		IsActive:     input.IsActive == nil || *input.IsActive,
		CreatedBy:    &createdBy,
		CreatedAt:    service.now(),
	}

	if err := service.users.InsertUser(ctx, user); err != nil {
		return nil, err
	}

	entry = entry.On(audit.ActionCreateUser, audit.TargetUser, user.ID)
	entry.After = snapshotOf(user)
	service.recorder.Record(ctx, entry)

	service.logger.InfoContext(ctx, "user_created",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
		slog.String("created_by", actor.UserID),
	)
	return user, nil
}

/*
Update applies a partial change to an account.

Description: A role change without explicit permissions resets the grants to the
new role's defaults. A role change, a deactivation or a password reset revokes
every session of the target, so the change applies at once.

Returns:
  - *auth.User: The account after the update
  - error: 400 on an empty update or a self role/status change, 403, 404, 409
*/
func (service *Service) Update(ctx context.Context, actor *sec.Identity, id string, input UpdateInput, entry audit.Entry) (*auth.User, error) {
	existing, err := service.load(ctx, id)
	if err != nil {
		return nil, err
	}

	target := authz.Target{ID: existing.ID, Role: existing.Role}
	roleChanged := input.Role != nil && *input.Role != existing.Role
	if roleChanged {
		target.RequestedRole = *input.Role
	}
	if err := authz.CanActOnUser(actor, target, authz.ActionUpdate); err != nil {
		return nil, err
	}

	update, err := service.buildUpdate(actor, existing, input, roleChanged)
	if err != nil {
		return nil, err
	}
	if update.Empty() {
		return nil, ErrNoChanges
	}

	updated, err := service.users.UpdateUser(ctx, id, update)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, apperr.NotFound("User")
		}
		return nil, err
	}

	deactivated := existing.IsActive && !updated.IsActive
	if roleChanged || deactivated || update.PasswordHash != nil {
		service.revoke(ctx, updated.ID)
	}

	entry = entry.On(audit.ActionUpdateUser, audit.TargetUser, updated.ID)
	entry.Before = snapshotOf(existing)
	entry.After = snapshotOf(updated)
	service.recorder.Record(ctx, entry)

	service.logger.InfoContext(ctx, "user_updated",
		slog.String("user_id", updated.ID),
		slog.String("updated_by", actor.UserID),
	)
	return updated, nil
}

func (service *Service) buildUpdate(actor *sec.Identity, existing *auth.User, input UpdateInput, roleChanged bool) (auth.UserUpdate, error) {
	update := auth.UserUpdate{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Phone:     input.Phone,
		Province:  input.Province,
	}

	if input.Email != nil {
		email := normalize.Email(*input.Email)
		if email != existing.Email {
			update.Email = &email
		}
	}

	self := actor.UserID == existing.ID
	if roleChanged {
		if self {
			return update, ErrSelfChange
		}
		update.Role = input.Role
		defaults := sec.DefaultPermissions(*input.Role)
		update.Permissions = &defaults
	}

	if input.IsActive != nil && *input.IsActive != existing.IsActive {
		if self {
			return update, ErrSelfChange
		}
		update.IsActive = input.IsActive
	}

	if input.Permissions != nil {
		if err := authz.CanGrant(actor, *input.Permissions); err != nil {
			return update, err
		}
		update.Permissions = input.Permissions
	}

	if input.NewPassword != nil {
		hashedPassword, err := service.hasher.Hash(*input.NewPassword)
		if err != nil {
			return update, fmt.Errorf("admin_service_hash_failed: %w", err)
		}
		update.PasswordHash = &hashedPassword
	}

	return update, nil
}

/*
Delete soft-deletes an account and revokes its sessions.

Returns:
  - error: 400 SELF_ACTION for the actor's own account, 403, 404
*/
func (service *Service) Delete(ctx context.Context, actor *sec.Identity, id string, entry audit.Entry) error {
	existing, err := service.load(ctx, id)
	if err != nil {
		return err
	}

	if err := authz.CanActOnUser(actor, authz.Target{ID: existing.ID, Role: existing.Role}, authz.ActionDelete); err != nil {
		return err
	}

	if err := service.users.SoftDeleteUser(ctx, existing.ID, service.now()); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return apperr.NotFound("User")
		}
		return fmt.Errorf("admin_service_delete_failed: %w", err)
	}

	service.revoke(ctx, existing.ID)

	entry = entry.On(audit.ActionDeleteUser, audit.TargetUser, existing.ID)
	entry.Before = snapshotOf(existing)
	service.recorder.Record(ctx, entry)

	service.logger.InfoContext(ctx, "user_deleted",
		slog.String("user_id", existing.ID),
		slog.String("deleted_by", actor.UserID),
	)
	return nil
}

// revoke ends every session of the user. Resolution re-reads the account on each
// request, so a failure here is logged rather than returned.
func (service *Service) revoke(ctx context.Context, userID string) {
	if err := service.sessions.RevokeUserSessions(ctx, userID); err != nil {
		metrics.BackgroundFailures.WithLabelValues("session_revoke").Inc()
		service.logger.ErrorContext(ctx, "session_revoke_failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}
}
