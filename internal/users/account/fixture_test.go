// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nzela/nzela-api/internal/platform/apperr"
	"github.com/nzela/nzela-api/internal/platform/sec"
	"github.com/nzela/nzela-api/internal/system/audit"
	"github.com/nzela/nzela-api/internal/system/audit/audittest"
	"github.com/nzela/nzela-api/internal/users/account"
	"github.com/nzela/nzela-api/internal/users/auth"
	"github.com/nzela/nzela-api/internal/users/auth/authtest"
	"github.com/nzela/nzela-api/pkg/uuid"
)

const testPassword = "correct-horse-battery"

var hasher = sec.NewPasswordHasher(4)

// eraserStub is an in-memory [account.AccountEraser]. Reports are only
// anonymized once the soft delete succeeded, the way the transaction commits.
type eraserStub struct {
	mu         sync.Mutex
	users      *authtest.Users
	owned      map[string]int64
	anonymized []string
	err        error
}

func (stub *eraserStub) CountOwnedReports(_ context.Context, userID string) (int64, error) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	if stub.err != nil {
		return 0, stub.err
	}
	return stub.owned[userID], nil
}

func (stub *eraserStub) EraseAccount(ctx context.Context, userID string, at time.Time) (int64, error) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	if stub.err != nil {
		return 0, stub.err
	}
	if err := stub.users.SoftDeleteUser(ctx, userID, at); err != nil {
		return 0, err
	}
	count := stub.owned[userID]
	delete(stub.owned, userID)
	if count > 0 {
		stub.anonymized = append(stub.anonymized, userID)
	}
	return count, nil
}

type fixture struct {
	users    *authtest.Users
	sessions *authtest.Sessions
	reports  *eraserStub
	sink     *audittest.Sink
	manager  *auth.SessionManager
	service  *account.Service
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		users:   authtest.NewUsers(),
		sink:    &audittest.Sink{},
		now:     time.Date(2026, 6, 15, 9, 30, 0, 0, time.UTC),
	}
	f.sessions = authtest.NewSessions(f.users)
	f.reports = &eraserStub{users: f.users, owned: map[string]int64{}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := func() time.Time { return f.now }

	// Several devices per user, so session listing has something to show.
	f.manager = auth.NewSessionManager(f.sessions, f.users, nil, auth.SessionPolicy{TTL: 2 * time.Hour}, logger).
		WithClock(clock)
	f.service = account.NewService(f.users, f.manager, hasher, f.reports, audit.NewRecorder(f.sink, logger), logger).
		WithClock(clock)

	t.Cleanup(f.manager.Drain)
	return f
}

func (f *fixture) addCitizen(t *testing.T, email string) *auth.User {
	t.Helper()

	hash, err := hasher.Hash(testPassword)
	require.NoError(t, err)

	return f.users.Add(&auth.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Amani",
		LastName:     "Kabila",
		Phone:        "+243810000000",
		Province:     "Kinshasa",
		Role:         sec.RoleCitizen,
		Permissions:  sec.DefaultPermissions(sec.RoleCitizen),
		IsActive:     true,
		CreatedAt:    f.now.Add(-24 * time.Hour),
	})
}

// login opens a session and resolves it the way the middleware does.
func (f *fixture) login(t *testing.T, user *auth.User) (*auth.SessionHandle, *sec.Identity) {
	t.Helper()

	handle, err := f.manager.CreateSession(context.Background(), user, "203.0.113.30", "test-agent")
	require.NoError(t, err)

	identity, err := f.manager.ResolveSession(context.Background(), handle.Token)
	require.NoError(t, err)
	return handle, identity
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
