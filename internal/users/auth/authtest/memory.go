// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package authtest provides in-memory implementations of the auth storage
// contracts for package tests that cannot reach Postgres or Redis.
package authtest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nzela/nzela-api/internal/platform/apperr"
	"github.com/nzela/nzela-api/internal/platform/sec"
	"github.com/nzela/nzela-api/internal/users/auth"
)

// # Users

// Users is an in-memory [auth.CredentialStore].
type Users struct {
	mu    sync.Mutex
	users map[string]*auth.User

	// Err, when set, is returned by every method.
	Err error

	// ActivityErr, when set, is returned by TouchLastActivity only.
	ActivityErr error

	// DeleteErr, when set, is returned by SoftDeleteUser only.
	DeleteErr error
}

// NewUsers constructs an empty store.
func NewUsers() *Users {
	return &Users{users: make(map[string]*auth.User)}
}

func clone(user *auth.User) *auth.User {
	copied := *user
	return &copied
}

// Add stores user as-is, bypassing uniqueness checks.
func (store *Users) Add(user *auth.User) *auth.User {
	store.mu.Lock()
	defer store.mu.Unlock()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	store.users[user.ID] = clone(user)
	return user
}

// Get returns a copy of the stored row, including soft-deleted ones.
func (store *Users) Get(id string) *auth.User {
	store.mu.Lock()
	defer store.mu.Unlock()
	user, ok := store.users[id]
	if !ok {
		return nil
	}
	return clone(user)
}

func (store *Users) FindUserByEmail(_ context.Context, email string) (*auth.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.Err != nil {
		return nil, store.Err
	}
	for _, user := range store.users {
		if user.Email == email && user.DeletedAt == nil {
			return clone(user), nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (store *Users) FindUserByID(_ context.Context, id string) (*auth.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.Err != nil {
		return nil, store.Err
	}
	user, ok := store.users[id]
	if !ok || user.DeletedAt != nil {
		return nil, auth.ErrUserNotFound
	}
	return clone(user), nil
}

func (store *Users) emailTaken(email, exceptID string) bool {
	for _, user := range store.users {
		if user.Email == email && user.ID != exceptID {
			return true
		}
	}
	return false
}

func (store *Users) InsertUser(_ context.Context, user *auth.User) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.Err != nil {
		return store.Err
	}
	if store.emailTaken(user.Email, "") {
		return apperr.Conflict("Email is already registered")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.UpdatedAt = user.CreatedAt
	store.users[user.ID] = clone(user)
	return nil
}

func (store *Users) UpdateUser(_ context.Context, id string, update auth.UserUpdate) (*auth.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.Err != nil {
		return nil, store.Err
	}
	user, ok := store.users[id]
	if !ok || user.DeletedAt != nil {
		return nil, auth.ErrUserNotFound
	}
	if update.Email != nil && store.emailTaken(*update.Email, id) {
		return nil, apperr.Conflict("Email is already in use")
	}
	update.Apply(user)
	user.UpdatedAt = time.Now().UTC()
	return clone(user), nil
}

func (store *Users) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	return store.stamp(id, func(user *auth.User) { user.LastLogin = &at })
}

func (store *Users) TouchLastActivity(_ context.Context, id string, at time.Time) error {
	store.mu.Lock()
	failure := store.ActivityErr
	store.mu.Unlock()
	if failure != nil {
		return failure
	}
	return store.stamp(id, func(user *auth.User) { user.LastActivity = &at })
}

func (store *Users) stamp(id string, apply func(*auth.User)) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.Err != nil {
		return store.Err
	}
	if user, ok := store.users[id]; ok {
		apply(user)
	}
	return nil
}

func (store *Users) SoftDeleteUser(_ context.Context, id string, at time.Time) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.Err != nil {
		return store.Err
	}
	if store.DeleteErr != nil {
		return store.DeleteErr
	}
	user, ok := store.users[id]
	if !ok || user.DeletedAt != nil {
		return auth.ErrUserNotFound
	}
	user.Email = "deleted_" + user.ID + "_" + user.Email
	user.IsActive = false
	user.DeletedAt = &at
	user.UpdatedAt = at
	return nil
}

func (store *Users) ListUsers(_ context.Context, filter auth.UserFilter) ([]*auth.User, int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.Err != nil {
		return nil, 0, store.Err
	}

	search := strings.ToLower(filter.Search)
	matches := []*auth.User{}
	for _, user := range store.users {
		if user.DeletedAt != nil {
			continue
		}
		if len(filter.Roles) > 0 && !hasRole(filter.Roles, user.Role) {
			continue
		}
		if filter.Active != nil && user.IsActive != *filter.Active {
			continue
		}
		if filter.CreatedSince != nil && user.CreatedAt.Before(*filter.CreatedSince) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(user.Email), search) &&
			!strings.Contains(strings.ToLower(user.FirstName), search) &&
			!strings.Contains(strings.ToLower(user.LastName), search) {
			continue
		}
		matches = append(matches, clone(user))
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	total := len(matches)
	start := min(filter.Offset, total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}
	return matches[start:end], total, nil
}

func hasRole(roles []sec.Role, role sec.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func (store *Users) CountUsers(_ context.Context) (map[sec.Role]int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.Err != nil {
		return nil, store.Err
	}
	counts := map[sec.Role]int{sec.RoleCitizen: 0, sec.RoleAdmin: 0, sec.RoleSuperadmin: 0}
	for _, user := range store.users {
		if user.DeletedAt == nil {
			counts[user.Role]++
		}
	}
	return counts, nil
}

// # Sessions

// Sessions is an in-memory [auth.SessionRepository].
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*auth.Session

	// Users, when set, makes CreateExclusive fail for unknown users like the
	// row lock in Postgres does.
	Users *Users
}

// NewSessions constructs an empty repository.
func NewSessions(users *Users) *Sessions {
	return &Sessions{sessions: make(map[string]*auth.Session), Users: users}
}

// All returns copies of every stored session of the user.
func (repo *Sessions) All(userID string) []*auth.Session {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	out := []*auth.Session{}
	for _, session := range repo.sessions {
		if session.UserID == userID {
			copied := *session
			out = append(out, &copied)
		}
	}
	return out
}

// Active counts the active sessions of the user.
func (repo *Sessions) Active(userID string) int {
	count := 0
	for _, session := range repo.All(userID) {
		if session.IsActive {
			count++
		}
	}
	return count
}

// Len returns the number of stored rows.
func (repo *Sessions) Len() int {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return len(repo.sessions)
}

func (repo *Sessions) insert(session *auth.Session) {
	session.IsActive = true
	copied := *session
	repo.sessions[session.ID] = &copied
}

func (repo *Sessions) CreateExclusive(_ context.Context, session *auth.Session) error {
	if repo.Users != nil && repo.Users.Get(session.UserID) == nil {
		return auth.ErrUserNotFound
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, existing := range repo.sessions {
		if existing.UserID == session.UserID && existing.IsActive {
			existing.IsActive = false
		}
	}
	repo.insert(session)
	return nil
}

func (repo *Sessions) Create(_ context.Context, session *auth.Session) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.insert(session)
	return nil
}

func (repo *Sessions) FindByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, session := range repo.sessions {
		if session.TokenHash != tokenHash {
			continue
		}
		copied := *session
		copied.Superseded = repo.newerActive(session)
		return &copied, nil
	}
	return nil, auth.ErrSessionNotFound
}

func (repo *Sessions) newerActive(session *auth.Session) bool {
	for _, other := range repo.sessions {
		if other.UserID != session.UserID || other.ID == session.ID || !other.IsActive {
			continue
		}
		if other.CreatedAt.After(session.CreatedAt) ||
			(other.CreatedAt.Equal(session.CreatedAt) && other.ID > session.ID) {
			return true
		}
	}
	return false
}

func (repo *Sessions) revoke(match func(*auth.Session) bool) int64 {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	var count int64
	for _, session := range repo.sessions {
		if session.IsActive && match(session) {
			session.IsActive = false
			count++
		}
	}
	return count
}

func (repo *Sessions) Deactivate(_ context.Context, id string, _ time.Time) error {
	repo.revoke(func(s *auth.Session) bool { return s.ID == id })
	return nil
}

func (repo *Sessions) DeactivateByTokenHash(_ context.Context, tokenHash string, _ time.Time) error {
	repo.revoke(func(s *auth.Session) bool { return s.TokenHash == tokenHash })
	return nil
}

func (repo *Sessions) RevokeAll(_ context.Context, userID string, _ time.Time) (int64, error) {
	return repo.revoke(func(s *auth.Session) bool { return s.UserID == userID }), nil
}

func (repo *Sessions) RevokeOthers(_ context.Context, userID, keepID string, _ time.Time) (int64, error) {
	return repo.revoke(func(s *auth.Session) bool { return s.UserID == userID && s.ID != keepID }), nil
}

func (repo *Sessions) RevokeOwned(_ context.Context, userID, id string, at time.Time) (bool, error) {
	return repo.revoke(func(s *auth.Session) bool {
		return s.UserID == userID && s.ID == id && s.ExpiresAt.After(at)
	}) == 1, nil
}

func (repo *Sessions) ListActive(_ context.Context, userID string, now time.Time) ([]*auth.Session, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	out := []*auth.Session{}
	for _, session := range repo.sessions {
		if session.UserID == userID && session.IsActive && session.ExpiresAt.After(now) {
			copied := *session
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (repo *Sessions) RotateToken(_ context.Context, id, oldHash, newHash string) (bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	session, ok := repo.sessions[id]
	if !ok || !session.IsActive || session.TokenHash != oldHash {
		return false, nil
	}
	session.TokenHash = newHash
	return true, nil
}

func (repo *Sessions) Extend(_ context.Context, id string, expiresAt time.Time) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	session, ok := repo.sessions[id]
	if !ok || !session.IsActive {
		return auth.ErrSessionRevoked
	}
	session.ExpiresAt = expiresAt
	return nil
}

func (repo *Sessions) TouchLastSeen(_ context.Context, id string, at time.Time) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if session, ok := repo.sessions[id]; ok {
		session.LastSeenAt = &at
	}
	return nil
}

func (repo *Sessions) DeleteExpired(_ context.Context, now, inactiveBefore time.Time) (int64, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	var removed int64
	for id, session := range repo.sessions {
		if !session.ExpiresAt.After(now) || (!session.IsActive && session.CreatedAt.Before(inactiveBefore)) {
			delete(repo.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// # Throttles

// Throttle is an in-memory [auth.LoginThrottle] without expiry.
type Throttle struct {
	mu       sync.Mutex
	failures map[string]int
	max      int
	window   time.Duration
}

// NewThrottle blocks a key after max failures.
func NewThrottle(max int, window time.Duration) *Throttle {
	return &Throttle{failures: make(map[string]int), max: max, window: window}
}

func (throttle *Throttle) Blocked(_ context.Context, key string) (bool, time.Duration, error) {
	throttle.mu.Lock()
	defer throttle.mu.Unlock()
	if throttle.failures[key] >= throttle.max {
		return true, throttle.window, nil
	}
	return false, 0, nil
}

func (throttle *Throttle) RecordFailure(_ context.Context, key string) error {
	throttle.mu.Lock()
	defer throttle.mu.Unlock()
	throttle.failures[key]++
	return nil
}

func (throttle *Throttle) Reset(_ context.Context, key string) error {
	throttle.mu.Lock()
	defer throttle.mu.Unlock()
	delete(throttle.failures, key)
	return nil
}

// Failures returns the current count for key.
func (throttle *Throttle) Failures(key string) int {
	throttle.mu.Lock()
	defer throttle.mu.Unlock()
	return throttle.failures[key]
}
