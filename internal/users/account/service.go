// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nzela/nzela-api/internal/platform/apperr"
	"github.com/nzela/nzela-api/internal/platform/metrics"
	"github.com/nzela/nzela-api/internal/platform/sec"
	"github.com/nzela/nzela-api/internal/system/audit"
	"github.com/nzela/nzela-api/internal/users/auth"
	"github.com/nzela/nzela-api/pkg/normalize"
	"github.com/nzela/nzela-api/pkg/slice"
)

// ErrWrongPassword rejects a self-service operation confirmed with a wrong
// password. The caller is already authenticated, so this is not a 401.
var ErrWrongPassword = apperr.BadRequest("INVALID_PASSWORD", "Current password is incorrect")

// ErrNoChanges rejects a profile update carrying no field.
var ErrNoChanges = apperr.BadRequest("NO_CHANGES", "No fields to update")

// # Service Layer

// Service orchestrates the caller's own account: profile, password, sessions
// and deletion.
type Service struct {
	users    auth.CredentialStore
	sessions *auth.SessionManager
	hasher   *sec.PasswordHasher
	eraser   AccountEraser
	recorder *audit.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a new [Service] with its dependencies.
func NewService(
	users auth.CredentialStore,
	sessions *auth.SessionManager,
	hasher *sec.PasswordHasher,
	eraser AccountEraser,
	recorder *audit.Recorder,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		eraser:   eraser,
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

// # Profile Management

/*
Profile retrieves the full private profile of the caller.

Returns:
  - *auth.User: The hydrated user profile
  - error: 404 when the account vanished since the session was resolved
*/
func (service *Service) Profile(context context.Context, userID string) (*auth.User, error) {
	user, err := service.users.FindUserByID(context, userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("account_service_get_profile_failed: %w", err)
	}
	return user, nil
}

/*
UpdateProfile applies a partial set of changes to the caller's profile.

Description: Role, grants and status are not reachable from here. A changed
email is normalized and must stay unique.

Returns:
  - *auth.User: The updated user profile
  - error: 400 on an empty update, 409 on a taken email
*/
func (service *Service) UpdateProfile(context context.Context, userID string, input UpdateProfileInput, entry audit.Entry) (*auth.User, error) {
	existing, err := service.Profile(context, userID)
	if err != nil {
		return nil, err
	}

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
	if update.Empty() {
		return nil, ErrNoChanges
	}

	updated, err := service.users.UpdateUser(context, userID, update)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, apperr.NotFound("User")
		}
		return nil, err
	}

	entry = entry.On(audit.ActionUpdateProfile, audit.TargetUser, userID)
	entry.Before = profileOf(existing)
	entry.After = profileOf(updated)
	service.recorder.Record(context, entry)

	service.logger.InfoContext(context, "user_profile_updated", slog.String("user_id", userID))
	return updated, nil
}

func profileOf(user *auth.User) map[string]any {
	return map[string]any{
		auth.FieldEmail:     user.Email,
		auth.FieldFirstName: user.FirstName,
		auth.FieldLastName:  user.LastName,
		auth.FieldPhone:     user.Phone,
		auth.FieldProvince:  user.Province,
	}
}

// # Credentials

/*
ChangePassword replaces the caller's password.

Description: Once the new hash is stored every other session of the user is
ended, even when the current one can no longer be rotated, so a leaked password
or token stops working at once. The current session then gets a fresh token.

Returns:
  - *auth.SessionHandle: The rotated current session
  - error: 400 INVALID_PASSWORD on a wrong current password, 401 when the
    session is no longer live (the password is changed regardless)
*/
func (service *Service) ChangePassword(context context.Context, identity *sec.Identity, token, currentPassword, newPassword string, entry audit.Entry) (*auth.SessionHandle, error) {
	user, err := service.Profile(context, identity.UserID)
	if err != nil {
		return nil, err
	}
	if !service.hasher.Verify(currentPassword, user.PasswordHash) {
		return nil, ErrWrongPassword
	}

	hashedPassword, err := service.hasher.Hash(newPassword)
	if err != nil {
		return nil, fmt.Errorf("account_service_hash_failed: %w", err)
	}
	if _, err := service.users.UpdateUser(context, user.ID, auth.UserUpdate{PasswordHash: &hashedPassword}); err != nil {
		return nil, fmt.Errorf("account_service_password_update_failed: %w", err)
	}

	if err := service.sessions.RevokeOtherSessions(context, user.ID, identity.SessionID); err != nil {
		metrics.BackgroundFailures.WithLabelValues("session_revoke").Inc()
		service.logger.ErrorContext(context, "session_revoke_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	service.recorder.Record(context, entry.On(audit.ActionChangePassword, audit.TargetUser, user.ID))
	service.logger.InfoContext(context, "user_password_changed", slog.String("user_id", user.ID))

	handle, err := service.sessions.RegenerateSessionID(context, token)
	if err != nil {
		return nil, err
	}
	return handle, nil
}

// # Account Removal

/*
DeleteAccount soft-deletes the caller's account.

Description: Requires the password. An account that filed reports must also set
KeepReports; the reports then stay on record without any link to the person.
Anonymization and the soft delete commit together. Every session of the user
ends.

Returns:
  - *DeleteResult: Deletion time and the number of anonymized reports
  - error: 400 INVALID_PASSWORD, 400 REPORTS_OWNED with the report count
*/
func (service *Service) DeleteAccount(context context.Context, identity *sec.Identity, input DeleteInput, entry audit.Entry) (*DeleteResult, error) {
	user, err := service.Profile(context, identity.UserID)
	if err != nil {
		return nil, err
	}
	if !service.hasher.Verify(input.Password, user.PasswordHash) {
		return nil, ErrWrongPassword
	}

	owned, err := service.eraser.CountOwnedReports(context, user.ID)
	if err != nil {
		return nil, fmt.Errorf("account_service_count_reports_failed: %w", err)
	}
	if owned > 0 && !input.KeepReports {
		return nil, reportsOwned(owned)
	}

	deletedAt := service.now()
	anonymized, err := service.eraser.EraseAccount(context, user.ID, deletedAt)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("account_service_delete_failed: %w", err)
	}

	if err := service.sessions.RevokeUserSessions(context, user.ID); err != nil {
		metrics.BackgroundFailures.WithLabelValues("session_revoke").Inc()
		service.logger.ErrorContext(context, "session_revoke_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	entry = entry.On(audit.ActionDeleteAccount, audit.TargetUser, user.ID)
	entry.Before = profileOf(user)
	entry.After = map[string]any{"reports_anonymized": anonymized}
	service.recorder.Record(context, entry)

	service.logger.WarnContext(context, "user_account_deleted",
		slog.String("user_id", user.ID),
		slog.Int64("reports_anonymized", anonymized),
	)
	return &DeleteResult{DeletedAt: deletedAt, ReportsAnonymized: anonymized}, nil
}

func reportsOwned(count int64) *apperr.AppError {
	err := apperr.BadRequest("REPORTS_OWNED",
		fmt.Sprintf("This account filed %d report(s); confirm keep_reports to anonymize them", count))
	err.Details = []apperr.FieldError{{
		Field:   FieldKeepReports,
		Message: fmt.Sprintf("%d report(s) owned", count),
	}}
	return err
}

// # Device Sessions

// Sessions lists the caller's live sessions and flags the one making the request.
func (service *Service) Sessions(context context.Context, identity *sec.Identity) ([]SessionInfo, error) {
	sessions, err := service.sessions.ListSessions(context, identity.UserID)
	if err != nil {
		return nil, err
	}

	return slice.Map(sessions, func(session *auth.Session) SessionInfo {
		return sessionInfo(session, identity.SessionID)
	}), nil
}

// RevokeSession ends one of the caller's sessions. Ending the current one is
// a logout.
func (service *Service) RevokeSession(context context.Context, identity *sec.Identity, sessionID string) error {
	return service.sessions.RevokeSession(context, identity.UserID, sessionID)
}

// RevokeOtherSessions signs the caller out everywhere except here.
func (service *Service) RevokeOtherSessions(context context.Context, identity *sec.Identity) error {
	return service.sessions.RevokeOtherSessions(context, identity.UserID, identity.SessionID)
}
