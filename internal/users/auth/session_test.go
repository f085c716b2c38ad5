// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nzela/nzela-api/internal/platform/apperr"
	"github.com/nzela/nzela-api/internal/platform/metrics"
	"github.com/nzela/nzela-api/internal/platform/sec"
	"github.com/nzela/nzela-api/internal/users/auth"
)

func requireReason(t *testing.T, err error, reason string) {
	t.Helper()
	appErr := apperr.As(err)
	require.NotNil(t, appErr, "expected an AppError, got %v", err)
	assert.Equal(t, 401, appErr.HTTPStatus)
	assert.Equal(t, reason, appErr.Reason)
}

/*
TestSessionManager_CreateSession verifies the stored row: only the token hash is
persisted and the expiry is creation time plus the TTL.
*/
func TestSessionManager_CreateSession(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	user := f.addUser(t, "citizen@nzela.cd", sec.RoleCitizen, true)

	handle := f.login(t, user)

	require.Len(t, handle.Token, 43)
	assert.Equal(t, sec.HashToken(handle.Token), handle.Session.TokenHash)
	assert.NotEqual(t, handle.Token, handle.Session.TokenHash)
	assert.Equal(t, f.now.Add(2*time.Hour), handle.Session.ExpiresAt)
	assert.Equal(t, "203.0.113.9", handle.Session.IPAddress)
	assert.Equal(t, 1, f.sessions.Active(user.ID))
}

/*
TestSessionManager_ResolveWithinTTL verifies that a session created at T still
resolves at T+1h59m and that resolution records activity.
*/
func TestSessionManager_ResolveWithinTTL(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	user := f.addUser(t, "admin@nzela.cd", sec.RoleAdmin, true)
	handle := f.login(t, user)

	f.advance(time.Hour + 59*time.Minute)

	identity, err := f.manager.ResolveSession(context.Background(), handle.Token)
	require.NoError(t, err)

	assert.Equal(t, user.ID, identity.UserID)
	assert.Equal(t, sec.RoleAdmin, identity.Role)
	assert.Equal(t, handle.Session.ID, identity.SessionID)
	assert.True(t, identity.Permissions.Has(sec.PermViewStats))

	// Resolution never extends the session on its own.
	assert.Equal(t, handle.Session.ExpiresAt, identity.ExpiresAt)

	f.manager.Drain()
	stored := f.users.Get(user.ID)
	require.NotNil(t, stored.LastActivity)
	assert.Equal(t, f.now, *stored.LastActivity)
}

/*
TestSessionManager_Expiry verifies the TTL boundary and the two ways an expired
session is reported to clients.
*/
func TestSessionManager_Expiry(t *testing.T) {
	tests := []struct {
		name         string
		elapsed      time.Duration
		exposeExpiry bool
		wantReason   string
	}{
		{"exactly_at_ttl", 2 * time.Hour, false, apperr.ReasonUnauthenticated},
		{"one_second_past", 2*time.Hour + time.Second, false, apperr.ReasonUnauthenticated},
		{"exposed", 2*time.Hour + time.Second, true, apperr.ReasonSessionExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := defaultPolicy()
			policy.ExposeExpiry = tt.exposeExpiry
			f := newFixture(t, policy)
			user := f.addUser(t, "citizen@nzela.cd", sec.RoleCitizen, true)
			handle := f.login(t, user)

			f.advance(tt.elapsed)

			_, err := f.manager.ResolveSession(context.Background(), handle.Token)
			requireReason(t, err, tt.wantReason)
			assert.True(t, errors.Is(err, auth.ErrSessionExpired))

			// Expired sessions are deactivated on the way out.
			assert.Equal(t, 0, f.sessions.Active(user.ID))
		})
	}
}

/*
TestSessionManager_SingleSession verifies that a second login invalidates the first.
*/
func TestSessionManager_SingleSession(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	user := f.addUser(t, "admin@nzela.cd", sec.RoleAdmin, true)

	first := f.login(t, user)
	f.advance(time.Minute)
	second := f.login(t, user)

	_, err := f.manager.ResolveSession(context.Background(), first.Token)
	requireReason(t, err, apperr.ReasonUnauthenticated)

	identity, err := f.manager.ResolveSession(context.Background(), second.Token)
	require.NoError(t, err)
	assert.Equal(t, second.Session.ID, identity.SessionID)
	assert.Equal(t, 1, f.sessions.Active(user.ID))
}

/*
TestSessionManager_MultiSession verifies that with the single-session policy off,
each login keeps its own session.
*/
func TestSessionManager_MultiSession(t *testing.T) {
	policy := defaultPolicy()
	policy.Single = false
	f := newFixture(t, policy)
	user := f.addUser(t, "citizen@nzela.cd", sec.RoleCitizen, true)

	first := f.login(t, user)
	second := f.login(t, user)

	for _, handle := range []*auth.SessionHandle{first, second} {
		_, err := f.manager.ResolveSession(context.Background(), handle.Token)
		assert.NoError(t, err)
	}
	assert.Equal(t, 2, f.sessions.Active(user.ID))

	// Password change keeps the current session only.
	require.NoError(t, f.manager.RevokeOtherSessions(context.Background(), user.ID, second.Session.ID))
	assert.Equal(t, 1, f.sessions.Active(user.ID))

	require.NoError(t, f.manager.RevokeUserSessions(context.Background(), user.ID))
	assert.Equal(t, 0, f.sessions.Active(user.ID))
}

/*
TestSessionManager_UnknownTokens verifies rejection of absent and unknown tokens
and that each cause is counted.
*/
func TestSessionManager_UnknownTokens(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	counter := metrics.SessionRejections.WithLabelValues(auth.ErrSessionNotFound.Error())
	before := testutil.ToFloat64(counter)

	for _, token := range []string{"", "not-a-session-token"} {
		_, err := f.manager.ResolveSession(context.Background(), token)
		requireReason(t, err, apperr.ReasonUnauthenticated)
	}

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

/*
TestSessionManager_DisabledAccount verifies that deactivating an account kills
its live sessions at the next request.
*/
func TestSessionManager_DisabledAccount(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	user := f.addUser(t, "citizen@nzela.cd", sec.RoleCitizen, true)
	handle := f.login(t, user)

	inactive := false
	_, err := f.users.UpdateUser(context.Background(), user.ID, auth.UserUpdate{IsActive: &inactive})
	require.NoError(t, err)

	_, err = f.manager.ResolveSession(context.Background(), handle.Token)
	requireReason(t, err, apperr.ReasonUnauthenticated)
	assert.True(t, errors.Is(err, auth.ErrAccountDisabled))
	assert.Equal(t, 0, f.sessions.Active(user.ID))
}

/*
TestSessionManager_StoreFailure verifies that an unreachable user store is a 500,
not a 401.
*/
func TestSessionManager_StoreFailure(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	user := f.addUser(t, "citizen@nzela.cd", sec.RoleCitizen, true)
	handle := f.login(t, user)

	f.users.Err = errors.New("connection refused")

	_, err := f.manager.ResolveSession(context.Background(), handle.Token)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, 500, appErr.HTTPStatus)
}

/*
TestSessionManager_Destroy verifies that logout is idempotent.
*/
func TestSessionManager_Destroy(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	user := f.addUser(t, "citizen@nzela.cd", sec.RoleCitizen, true)
	handle := f.login(t, user)

	require.NoError(t, f.manager.DestroySession(context.Background(), handle.Token))
	require.NoError(t, f.manager.DestroySession(context.Background(), handle.Token))
	require.NoError(t, f.manager.DestroySession(context.Background(), ""))
	require.NoError(t, f.manager.DestroySession(context.Background(), "unknown"))

	_, err := f.manager.ResolveSession(context.Background(), handle.Token)
	requireReason(t, err, apperr.ReasonUnauthenticated)
	assert.True(t, errors.Is(err, auth.ErrSessionRevoked))
}

/*
TestSessionManager_Regenerate verifies that rotation keeps the session but
retires the old token.
*/
func TestSessionManager_Regenerate(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	user := f.addUser(t, "admin@nzela.cd", sec.RoleAdmin, true)
	handle := f.login(t, user)

	rotated, err := f.manager.RegenerateSessionID(context.Background(), handle.Token)
	require.NoError(t, err)

	assert.NotEqual(t, handle.Token, rotated.Token)
	assert.Equal(t, handle.Session.ID, rotated.Session.ID)
	assert.Equal(t, handle.Session.ExpiresAt, rotated.Session.ExpiresAt)

	_, err = f.manager.ResolveSession(context.Background(), handle.Token)
	requireReason(t, err, apperr.ReasonUnauthenticated)

	identity, err := f.manager.ResolveSession(context.Background(), rotated.Token)
	require.NoError(t, err)
	assert.Equal(t, handle.Session.ID, identity.SessionID)

	// The retired token cannot be rotated again.
	_, err = f.manager.RegenerateSessionID(context.Background(), handle.Token)
	requireReason(t, err, apperr.ReasonUnauthenticated)
}

/*
TestSessionManager_Renew verifies that renewal restarts the TTL from now.
*/
func TestSessionManager_Renew(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	user := f.addUser(t, "citizen@nzela.cd", sec.RoleCitizen, true)
	handle := f.login(t, user)

	f.advance(90 * time.Minute)
	renewed, err := f.manager.Renew(context.Background(), handle.Token)
	require.NoError(t, err)
	assert.Equal(t, f.now.Add(2*time.Hour), renewed.Session.ExpiresAt)
	assert.Equal(t, handle.Token, renewed.Token)

	// 2h30 after login, still inside the renewed window.
	f.advance(time.Hour)
	_, err = f.manager.ResolveSession(context.Background(), handle.Token)
	assert.NoError(t, err)

	// An expired session cannot be renewed back to life.
	f.advance(2 * time.Hour)
	_, err = f.manager.Renew(context.Background(), handle.Token)
	requireReason(t, err, apperr.ReasonUnauthenticated)
}

/*
TestSessionManager_SweepExpired verifies that expired rows and old inactive rows
are deleted while live sessions survive.
*/
func TestSessionManager_SweepExpired(t *testing.T) {
	policy := defaultPolicy()
	policy.Single = false
	f := newFixture(t, policy)
	user := f.addUser(t, "citizen@nzela.cd", sec.RoleCitizen, true)

	stale := f.login(t, user)
	loggedOut := f.login(t, user)
	require.NoError(t, f.manager.DestroySession(context.Background(), loggedOut.Token))

	f.advance(2*time.Hour + time.Minute)
	live := f.login(t, user)

	removed, err := f.manager.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.Equal(t, 1, f.sessions.Len())

	_, err = f.manager.ResolveSession(context.Background(), stale.Token)
	assert.Error(t, err)
	_, err = f.manager.ResolveSession(context.Background(), live.Token)
	assert.NoError(t, err)
}

/*
TestSessionManager_DeviceSessions verifies listing and owner-scoped revocation.
*/
func TestSessionManager_DeviceSessions(t *testing.T) {
	policy := defaultPolicy()
	policy.Single = false
	f := newFixture(t, policy)
	user := f.addUser(t, "citizen@nzela.cd", sec.RoleCitizen, true)
	other := f.addUser(t, "other@nzela.cd", sec.RoleCitizen, true)
	ctx := context.Background()

	older := f.login(t, user)
	f.advance(time.Minute)
	newer := f.login(t, user)
	foreign := f.login(t, other)

	// 1. Newest first, own sessions only
	sessions, err := f.manager.ListSessions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, newer.Session.ID, sessions[0].ID)
	assert.Equal(t, older.Session.ID, sessions[1].ID)

	// 2. Another user's session is invisible
	err = f.manager.RevokeSession(ctx, user.ID, foreign.Session.ID)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, 404, appErr.HTTPStatus)
	assert.Equal(t, 1, f.sessions.Active(other.ID))

	// 3. Own session is revoked
	require.NoError(t, f.manager.RevokeSession(ctx, user.ID, older.Session.ID))
	_, err = f.manager.ResolveSession(ctx, older.Token)
	requireReason(t, err, apperr.ReasonUnauthenticated)

	// 4. Expired sessions drop out of the listing
	f.advance(3 * time.Hour)
	sessions, err = f.manager.ListSessions(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

/*
TestSessionManager_LostLoginRace verifies that when two logins both leave an
active row behind, the older one is rejected and deactivated on its next
resolution while the newer one keeps working.
*/
func TestSessionManager_LostLoginRace(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	user := f.addUser(t, "admin@nzela.cd", sec.RoleAdmin, true)
	ctx := context.Background()

	// 1. Two logins that did not see each other
	racing := auth.NewSessionManager(f.sessions, f.users, nil, auth.SessionPolicy{TTL: 2 * time.Hour}, discardLogger()).
		WithClock(func() time.Time { return f.now })
	t.Cleanup(racing.Drain)

	loser, err := racing.CreateSession(ctx, user, "203.0.113.9", "phone")
	require.NoError(t, err)
	f.advance(time.Second)
	winner, err := racing.CreateSession(ctx, user, "203.0.113.9", "laptop")
	require.NoError(t, err)
	require.Equal(t, 2, f.sessions.Active(user.ID))

	// 2. The older session loses under the single-session policy
	_, err = f.manager.ResolveSession(ctx, loser.Token)
	requireReason(t, err, apperr.ReasonUnauthenticated)
	assert.ErrorIs(t, err, auth.ErrSessionSuperseded)
	assert.Equal(t, 1, f.sessions.Active(user.ID))

	// 3. Once deactivated it stays revoked
	_, err = f.manager.ResolveSession(ctx, loser.Token)
	assert.ErrorIs(t, err, auth.ErrSessionRevoked)

	identity, err := f.manager.ResolveSession(ctx, winner.Token)
	require.NoError(t, err)
	assert.Equal(t, winner.Session.ID, identity.SessionID)
}

/*
TestSessionManager_ActivityTouchFailure verifies that a failing last-activity
write never reaches the caller.
*/
func TestSessionManager_ActivityTouchFailure(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	user := f.addUser(t, "citizen@nzela.cd", sec.RoleCitizen, true)
	handle := f.login(t, user)
	f.users.ActivityErr = errors.New("connection reset")

	before := testutil.ToFloat64(metrics.BackgroundFailures.WithLabelValues("last_activity"))

	identity, err := f.manager.ResolveSession(context.Background(), handle.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)

	f.manager.Drain()

	assert.Nil(t, f.users.Get(user.ID).LastActivity)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.BackgroundFailures.WithLabelValues("last_activity")))

	// The session row is still stamped.
	sessions := f.sessions.All(user.ID)
	require.Len(t, sessions, 1)
	require.NotNil(t, sessions[0].LastSeenAt)
	assert.Equal(t, f.now, *sessions[0].LastSeenAt)
}

/*
TestSessionManager_RevokeExpiredSession verifies that a lapsed session the sweep
has not removed yet is not revocable.
*/
func TestSessionManager_RevokeExpiredSession(t *testing.T) {
	policy := defaultPolicy()
	policy.Single = false
	f := newFixture(t, policy)
	user := f.addUser(t, "citizen@nzela.cd", sec.RoleCitizen, true)
	handle := f.login(t, user)

	f.advance(2*time.Hour + time.Second)

	err := f.manager.RevokeSession(context.Background(), user.ID, handle.Session.ID)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, 404, appErr.HTTPStatus)
}
