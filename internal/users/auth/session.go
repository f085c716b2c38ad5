// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nzela/nzela-api/internal/platform/apperr"
	"github.com/nzela/nzela-api/internal/platform/constants"
	"github.com/nzela/nzela-api/internal/platform/metrics"
	"github.com/nzela/nzela-api/internal/platform/sec"
	"github.com/nzela/nzela-api/pkg/uuid"
)

// SessionPolicy configures the session lifecycle.
type SessionPolicy struct {
	// TTL is the lifetime of a session from creation or explicit renewal.
	TTL time.Duration
	// Single keeps at most one active session per user.
	Single bool
	// ExposeExpiry reports lapsed sessions with reason "session_expired".
	ExposeExpiry bool
}

// SessionHandle is a session together with the raw token the client holds.
type SessionHandle struct {
	Token   string
	Session *Session
	// IssuedAt is when the handle was produced; ExpiresIn is measured from it.
	IssuedAt time.Time
}

// ExpiresIn is the remaining lifetime at issue time.
func (handle *SessionHandle) ExpiresIn() time.Duration {
	return handle.Session.ExpiresAt.Sub(handle.IssuedAt)
}

// SessionManager owns the session lifecycle: creation, resolution, rotation,
// renewal, revocation and the expiry sweep.
type SessionManager struct {
	sessions SessionRepository
	users    CredentialStore
	activity ActivityThrottle
	policy   SessionPolicy
	logger   *slog.Logger
	now      func() time.Time

	background sync.WaitGroup
}

// NewSessionManager constructs a [SessionManager]. activity may be nil, in which
// case every resolution writes last-activity.
func NewSessionManager(
	sessions SessionRepository,
	users CredentialStore,
	activity ActivityThrottle,
	policy SessionPolicy,
	logger *slog.Logger,
) *SessionManager {
	return &SessionManager{
		sessions: sessions,
		users:    users,
		activity: activity,
		policy:   policy,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source. Used by tests.
func (manager *SessionManager) WithClock(now func() time.Time) *SessionManager {
	manager.now = now
	return manager
}

// TTL returns the configured session lifetime.
func (manager *SessionManager) TTL() time.Duration {
	return manager.policy.TTL
}

// # Creation

/*
CreateSession issues a new session for an authenticated user.

Description: Generates 256 bits of token entropy and persists only its hash.
Under the single-session policy every other active session of the user is
deactivated in the same transaction.

Returns:
  - *SessionHandle: The raw token and the stored session
  - error: Storage failures
*/
func (manager *SessionManager) CreateSession(ctx context.Context, user *User, clientIP, userAgent string) (*SessionHandle, error) {
	token, err := sec.GenerateSecureToken(constants.SessionTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("session_manager_token_failed: %w", err)
	}

	now := manager.now()
	session := &Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: sec.HashToken(token),
		IPAddress: clientIP,
		UserAgent: userAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(manager.policy.TTL),
	}

	if manager.policy.Single {
		err = manager.sessions.CreateExclusive(ctx, session)
	} else {
		err = manager.sessions.Create(ctx, session)
	}
	if err != nil {
		return nil, fmt.Errorf("session_manager_create_failed: %w", err)
	}

	metrics.SessionsCreated.Inc()
	manager.logger.InfoContext(ctx, "session_created",
		slog.String("user_id", user.ID),
		slog.String("session_id", session.ID),
		slog.Time("expires_at", session.ExpiresAt),
	)

	return &SessionHandle{Token: token, Session: session, IssuedAt: now}, nil
}

// # Resolution

/*
ResolveSession turns a presented token into the caller's identity.

Description: Each rejection cause is logged and counted separately, but all of
them reach the client as the same 401 unless expiry exposure is enabled. Expired
and superseded sessions are deactivated on the way out.

Returns:
  - *sec.Identity: Snapshot of the caller
  - error: apperr.Unauthenticated, apperr.SessionExpired or apperr.Internal
*/
func (manager *SessionManager) ResolveSession(ctx context.Context, token string) (*sec.Identity, error) {
	session, err := manager.liveSession(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := manager.users.FindUserByID(ctx, session.UserID)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, apperr.Internal(fmt.Errorf("session_manager_load_user_failed: %w", err))
	}
	if user == nil || !user.IsActive {
		manager.deactivate(ctx, session)
		return nil, manager.reject(ctx, ErrAccountDisabled, session)
	}

	manager.touch(ctx, user.ID, session.ID)

	return &sec.Identity{
		UserID:      user.ID,
		Email:       user.Email,
		Name:        user.FullName(),
		Role:        user.Role,
		Permissions: user.Permissions,
		SessionID:   session.ID,
		ExpiresAt:   session.ExpiresAt,
	}, nil
}

// liveSession loads the session behind token and rejects it unless it is usable now.
func (manager *SessionManager) liveSession(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, manager.reject(ctx, ErrSessionNotFound, nil)
	}

	session, err := manager.sessions.FindByTokenHash(ctx, sec.HashToken(token))
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, manager.reject(ctx, ErrSessionNotFound, nil)
		}
		return nil, apperr.Internal(fmt.Errorf("session_manager_lookup_failed: %w", err))
	}

	now := manager.now()

	switch {
	case !session.IsActive:
		return nil, manager.reject(ctx, ErrSessionRevoked, session)

	case !now.Before(session.ExpiresAt):
		manager.deactivate(ctx, session)
		return nil, manager.reject(ctx, ErrSessionExpired, session)

	case manager.policy.Single && session.Superseded:
		manager.deactivate(ctx, session)
		return nil, manager.reject(ctx, ErrSessionSuperseded, session)
	}

	return session, nil
}

// reject logs the internal cause and returns the client-facing error.
func (manager *SessionManager) reject(ctx context.Context, cause error, session *Session) error {
	metrics.SessionRejections.WithLabelValues(cause.Error()).Inc()

	attrs := []any{slog.String("reason", cause.Error())}
	if session != nil {
		attrs = append(attrs,
			slog.String("session_id", session.ID),
			slog.String("user_id", session.UserID),
		)
	}
	manager.logger.InfoContext(ctx, "session_rejected", attrs...)

	if manager.policy.ExposeExpiry && errors.Is(cause, ErrSessionExpired) {
		return apperr.SessionExpired().WithCause(cause)
	}
	return apperr.Unauthenticated("Invalid or expired session").WithCause(cause)
}

// deactivate is best-effort: a failure leaves the row for the sweep.
func (manager *SessionManager) deactivate(ctx context.Context, session *Session) {
	if err := manager.sessions.Deactivate(ctx, session.ID, manager.now()); err != nil {
		manager.logger.WarnContext(ctx, "session_deactivate_failed",
			slog.String("session_id", session.ID),
			slog.Any("error", err),
		)
	}
}

// touch records activity in the background, detached from the request.
func (manager *SessionManager) touch(ctx context.Context, userID, sessionID string) {
	now := manager.now()
	manager.background.Add(1)

	go func() {
		defer manager.background.Done()

		touchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.BackgroundWriteTimeout)
		defer cancel()

		if manager.activity != nil {
			allowed, err := manager.activity.Allow(touchCtx, userID)
			if err != nil {
				manager.logger.WarnContext(touchCtx, "activity_throttle_failed", slog.Any("error", err))
			} else if !allowed {
				return
			}
		}

		if err := manager.users.TouchLastActivity(touchCtx, userID, now); err != nil {
			metrics.BackgroundFailures.WithLabelValues("last_activity").Inc()
			manager.logger.WarnContext(touchCtx, "last_activity_touch_failed",
				slog.String("user_id", userID),
				slog.Any("error", err),
			)
		}
		if err := manager.sessions.TouchLastSeen(touchCtx, sessionID, now); err != nil {
			metrics.BackgroundFailures.WithLabelValues("last_seen").Inc()
			manager.logger.WarnContext(touchCtx, "session_touch_failed",
				slog.String("session_id", sessionID),
				slog.Any("error", err),
			)
		}
	}()
}

// Drain waits for background activity writes. Called at shutdown.
func (manager *SessionManager) Drain() {
	manager.background.Wait()
}

// # Termination & Rotation

// DestroySession deactivates the session behind token. Unknown or already
// inactive tokens are not an error.
func (manager *SessionManager) DestroySession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := manager.sessions.DeactivateByTokenHash(ctx, sec.HashToken(token), manager.now()); err != nil {
		return fmt.Errorf("session_manager_destroy_failed: %w", err)
	}
	return nil
}

/*
RegenerateSessionID issues a new token for the same live session.

Description: The old token stops resolving as soon as the swap commits. Two
concurrent regenerations of one token cannot both succeed.

Returns:
  - *SessionHandle: The new token and the session
  - error: apperr.Unauthenticated when the session is not live, or storage failures
*/
func (manager *SessionManager) RegenerateSessionID(ctx context.Context, token string) (*SessionHandle, error) {
	session, err := manager.liveSession(ctx, token)
	if err != nil {
		return nil, err
	}

	fresh, err := sec.GenerateSecureToken(constants.SessionTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("session_manager_token_failed: %w", err)
	}
	freshHash := sec.HashToken(fresh)

	swapped, err := manager.sessions.RotateToken(ctx, session.ID, session.TokenHash, freshHash)
	if err != nil {
		return nil, fmt.Errorf("session_manager_rotate_failed: %w", err)
	}
	if !swapped {
		return nil, manager.reject(ctx, ErrSessionRevoked, session)
	}

	session.TokenHash = freshHash
	manager.logger.InfoContext(ctx, "session_regenerated",
		slog.String("session_id", session.ID),
		slog.String("user_id", session.UserID),
	)

	return &SessionHandle{Token: fresh, Session: session, IssuedAt: manager.now()}, nil
}

/*
Renew pushes the expiry of a live session to now + TTL. Resolution never does
this on its own.
*/
func (manager *SessionManager) Renew(ctx context.Context, token string) (*SessionHandle, error) {
	session, err := manager.liveSession(ctx, token)
	if err != nil {
		return nil, err
	}

	now := manager.now()
	expiresAt := now.Add(manager.policy.TTL)
	if err := manager.sessions.Extend(ctx, session.ID, expiresAt); err != nil {
		if errors.Is(err, ErrSessionRevoked) {
			return nil, manager.reject(ctx, ErrSessionRevoked, session)
		}
		return nil, fmt.Errorf("session_manager_renew_failed: %w", err)
	}

	session.ExpiresAt = expiresAt
	return &SessionHandle{Token: token, Session: session, IssuedAt: now}, nil
}

// RevokeUserSessions deactivates every active session of the user.
func (manager *SessionManager) RevokeUserSessions(ctx context.Context, userID string) error {
	revoked, err := manager.sessions.RevokeAll(ctx, userID, manager.now())
	if err != nil {
		return fmt.Errorf("session_manager_revoke_all_failed: %w", err)
	}
	manager.logger.InfoContext(ctx, "sessions_revoked",
		slog.String("user_id", userID),
		slog.Int64("count", revoked),
	)
	return nil
}

// RevokeOtherSessions deactivates every active session of the user except keepSessionID.
func (manager *SessionManager) RevokeOtherSessions(ctx context.Context, userID, keepSessionID string) error {
	if _, err := manager.sessions.RevokeOthers(ctx, userID, keepSessionID, manager.now()); err != nil {
		return fmt.Errorf("session_manager_revoke_others_failed: %w", err)
	}
	return nil
}

// # Device Sessions

// ListSessions returns the user's live sessions, newest first.
func (manager *SessionManager) ListSessions(ctx context.Context, userID string) ([]*Session, error) {
	sessions, err := manager.sessions.ListActive(ctx, userID, manager.now())
	if err != nil {
		return nil, fmt.Errorf("session_manager_list_failed: %w", err)
	}
	return sessions, nil
}

/*
RevokeSession ends one of the user's own sessions.

Returns:
  - error: apperr.NotFound when the session is not a live session of the user
*/
func (manager *SessionManager) RevokeSession(ctx context.Context, userID, sessionID string) error {
	revoked, err := manager.sessions.RevokeOwned(ctx, userID, sessionID, manager.now())
	if err != nil {
		return fmt.Errorf("session_manager_revoke_failed: %w", err)
	}
	if !revoked {
		return apperr.NotFound("Session")
	}

	manager.logger.InfoContext(ctx, "session_revoked",
		slog.String("user_id", userID),
		slog.String("session_id", sessionID),
	)
	return nil
}

// # Cleanup

// SweepExpired deletes expired sessions and inactive ones older than the TTL.
func (manager *SessionManager) SweepExpired(ctx context.Context) (int64, error) {
	now := manager.now()

	removed, err := manager.sessions.DeleteExpired(ctx, now, now.Add(-manager.policy.TTL))
	if err != nil {
		return 0, fmt.Errorf("session_manager_sweep_failed: %w", err)
	}

	metrics.SessionsSwept.Add(float64(removed))
	manager.logger.DebugContext(ctx, "sweep_completed", slog.Int64("removed", removed))
	return removed, nil
}
