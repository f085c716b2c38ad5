// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nzela/nzela-api/internal/platform/apperr"
	"github.com/nzela/nzela-api/internal/platform/sec"
	"github.com/nzela/nzela-api/internal/system/audit"
	"github.com/nzela/nzela-api/internal/system/audit/audittest"
	"github.com/nzela/nzela-api/internal/users/admin"
	"github.com/nzela/nzela-api/internal/users/auth"
	"github.com/nzela/nzela-api/internal/users/auth/authtest"
	"github.com/nzela/nzela-api/pkg/uuid"
)

const testPassword = "correct-horse-battery"

var hasher = sec.NewPasswordHasher(4)

type fixture struct {
	users    *authtest.Users
	sessions *authtest.Sessions
	sink     *audittest.Sink
	manager  *auth.SessionManager
	service  *admin.Service
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		users: authtest.NewUsers(),
		sink:  &audittest.Sink{},
		now:   time.Date(2026, 6, 15, 9, 30, 0, 0, time.UTC),
	}
	f.sessions = authtest.NewSessions(f.users)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := func() time.Time { return f.now }

	f.manager = auth.NewSessionManager(f.sessions, f.users, nil, auth.SessionPolicy{TTL: 2 * time.Hour, Single: true}, logger).
		WithClock(clock)
	f.service = admin.NewService(f.users, f.manager, hasher, audit.NewRecorder(f.sink, logger), logger).
		WithClock(clock)

	t.Cleanup(f.manager.Drain)
	return f
}

// addUser stores an account created `age` before the fixture clock.
func (f *fixture) addUser(t *testing.T, email string, role sec.Role, age time.Duration) *auth.User {
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
		IsActive:     true,
		CreatedAt:    f.now.Add(-age),
	})
}

// identity returns the resolved caller for a stored account.
func (f *fixture) identity(user *auth.User) *sec.Identity {
	return &sec.Identity{
		UserID:      user.ID,
		Email:       user.Email,
		Name:        user.FullName(),
		Role:        user.Role,
		Permissions: user.Permissions,
	}
}

func (f *fixture) login(t *testing.T, user *auth.User) *auth.SessionHandle {
	t.Helper()

	handle, err := f.manager.CreateSession(context.Background(), user, "203.0.113.20", "test-agent")
	require.NoError(t, err)
	return handle
}

func entryFor(identity *sec.Identity) audit.Entry {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	return audit.FromIdentity(identity, request)
}

func requireStatus(t *testing.T, err error, status int) *apperr.AppError {
	t.Helper()
	appErr := apperr.As(err)
	require.NotNil(t, appErr, "expected an AppError, got %v", err)
	require.Equal(t, status, appErr.HTTPStatus, appErr.Message)
	return appErr
}
