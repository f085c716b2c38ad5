// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nzela/nzela-api/internal/platform/sec"
	"github.com/nzela/nzela-api/internal/system/audit"
	"github.com/nzela/nzela-api/internal/system/audit/audittest"
	"github.com/nzela/nzela-api/internal/users/auth"
	"github.com/nzela/nzela-api/internal/users/auth/authtest"
	"github.com/nzela/nzela-api/pkg/uuid"
)

const testPassword = "correct-horse-battery"

// hasher is shared: bcrypt at minimum cost is still the slowest part of these tests.
var hasher = sec.NewPasswordHasher(4)

type fixture struct {
	users    *authtest.Users
	sessions *authtest.Sessions
	throttle *authtest.Throttle
	sink     *audittest.Sink
	manager  *auth.SessionManager
	service  *auth.Service
	now      time.Time
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defaultPolicy() auth.SessionPolicy {
	return auth.SessionPolicy{TTL: 2 * time.Hour, Single: true}
}

func newFixture(t *testing.T, policy auth.SessionPolicy) *fixture {
	t.Helper()

	f := &fixture{
		users:    authtest.NewUsers(),
		throttle: authtest.NewThrottle(3, 15*time.Minute),
		sink:     &audittest.Sink{},
		now:      time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC),
	}
	f.sessions = authtest.NewSessions(f.users)

	logger := discardLogger()
	f.manager = auth.NewSessionManager(f.sessions, f.users, nil, policy, logger).
		WithClock(func() time.Time { return f.now })
	f.service = auth.NewService(f.users, f.manager, hasher, f.throttle, audit.NewRecorder(f.sink, logger), logger)

	t.Cleanup(f.manager.Drain)
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) addUser(t *testing.T, email string, role sec.Role, active bool) *auth.User {
	t.Helper()

	hash, err := hasher.Hash(testPassword)
	require.NoError(t, err)

	return f.users.Add(&auth.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     string(role),
		Role:         role,
		Permissions:  sec.DefaultPermissions(role),
		IsActive:     active,
		CreatedAt:    f.now,
	})
}

func (f *fixture) login(t *testing.T, user *auth.User) *auth.SessionHandle {
	t.Helper()

	handle, err := f.manager.CreateSession(context.Background(), user, "203.0.113.9", "test-agent")
	require.NoError(t, err)
	return handle
}
