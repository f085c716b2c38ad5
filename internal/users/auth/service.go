// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/nzela/nzela-api/internal/platform/apperr"
	"github.com/nzela/nzela-api/internal/platform/metrics"
	"github.com/nzela/nzela-api/internal/platform/sec"
	"github.com/nzela/nzela-api/internal/system/audit"
	"github.com/nzela/nzela-api/pkg/normalize"
	"github.com/nzela/nzela-api/pkg/uuid"
)

// Service implements the authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or login logic must be reviewed by the security team.
type Service struct {
	users         CredentialStore
	sessions      *SessionManager
	authenticator *Authenticator
	hasher        *sec.PasswordHasher
	throttle      LoginThrottle
	recorder      *audit.Recorder
	logger        *slog.Logger
}

// NewService constructs a new [Service]. throttle may be nil to disable login throttling.
func NewService(
	users CredentialStore,
	sessions *SessionManager,
	hasher *sec.PasswordHasher,
	throttle LoginThrottle,
	recorder *audit.Recorder,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:         users,
		sessions:      sessions,
		authenticator: NewAuthenticator(users, hasher),
		hasher:        hasher,
		throttle:      throttle,
		recorder:      recorder,
		logger:        logger,
	}
}

// Sessions exposes the session manager to the transport layer.
func (service *Service) Sessions() *SessionManager {
	return service.sessions
}

// # Registration Flow

// RegisterInput holds the data required to enroll a citizen.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Province  string
}

/*
Register creates a citizen account.

Returns:
  - *User: Created entity
  - error: apperr.Conflict when the email is taken, or storage errors
*/
func (service *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	hashedPassword, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	user := &User{
		ID:           uuid.New(),
		Email:        normalize.Email(input.Email),
		PasswordHash: hashedPassword,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		Province:     input.Province,
		Role:         sec.RoleCitizen,
		Permissions:  sec.DefaultPermissions(sec.RoleCitizen),
		IsActive:     true,
	}

	if err := service.users.InsertUser(ctx, user); err != nil {
		return nil, err
	}

	service.logger.InfoContext(ctx, "user_registered", slog.String("user_id", user.ID))
	return user, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// LoginResult is a successfully established session.
type LoginResult struct {
	User   *User
	Handle *SessionHandle
}

/*
Login verifies credentials and issues a session.

Description: Failed attempts are counted per (email, client IP); once the limit
is reached further attempts are refused until the window closes, whether or not
the password is right.

Returns:
  - *LoginResult: The user and the new session
  - error: apperr.InvalidCredentials, apperr.RateLimited, or internal failures
*/
func (service *Service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := normalize.Email(input.Email)
	throttleKey := email + "|" + input.IPAddress

	if service.throttle != nil {
		blocked, retryAfter, err := service.throttle.Blocked(ctx, throttleKey)
		if err != nil {
			service.logger.WarnContext(ctx, "login_throttle_unavailable", slog.Any("error", err))
		} else if blocked {
			metrics.LoginAttempts.WithLabelValues("throttled").Inc()
			service.logger.WarnContext(ctx, "login_throttled", slog.String("ip", input.IPAddress))
			return nil, apperr.RateLimited(int(math.Ceil(retryAfter.Seconds())))
		}
	}

	user, err := service.authenticator.Authenticate(ctx, email, input.Password)
	if err != nil {
		if apperr.HasReason(err, apperr.ReasonInvalidCredentials) {
			service.recordFailure(ctx, throttleKey, input.IPAddress, err)
		}
		return nil, err
	}

	if service.throttle != nil {
		if err := service.throttle.Reset(ctx, throttleKey); err != nil {
			service.logger.WarnContext(ctx, "login_throttle_reset_failed", slog.Any("error", err))
		}
	}

	// Opportunistic cleanup; the scheduled sweep catches up if this fails.
	if _, err := service.sessions.SweepExpired(ctx); err != nil {
		service.logger.WarnContext(ctx, "login_sweep_failed", slog.Any("error", err))
	}

	handle, err := service.sessions.CreateSession(ctx, user, input.IPAddress, input.UserAgent)
	if err != nil {
		return nil, err
	}

	if err := service.users.TouchLastLogin(ctx, user.ID, handle.Session.CreatedAt); err != nil {
		metrics.BackgroundFailures.WithLabelValues("last_login").Inc()
		service.logger.WarnContext(ctx, "last_login_touch_failed", slog.Any("error", err))
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	service.recorder.Record(ctx, audit.Entry{
		ActorID:    user.ID,
		ActorRole:  user.Role,
		Action:     audit.ActionLogin,
		TargetType: audit.TargetSession,
		TargetID:   handle.Session.ID,
		IPAddress:  input.IPAddress,
		UserAgent:  input.UserAgent,
	})

	return &LoginResult{User: user, Handle: handle}, nil
}

// recordFailure counts and logs a rejected login. There is no authenticated
// actor, so nothing is audited.
func (service *Service) recordFailure(ctx context.Context, throttleKey, ip string, cause error) {
	metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()

	reason := "wrong_password"
	switch {
	case errors.Is(cause, ErrUserNotFound):
		reason = "unknown_email"
	case errors.Is(cause, ErrAccountDisabled):
		reason = "account_disabled"
	}
	service.logger.InfoContext(ctx, "login_failed",
		slog.String("reason", reason),
		slog.String("ip", ip),
	)

	if service.throttle != nil {
		if err := service.throttle.RecordFailure(ctx, throttleKey); err != nil {
			service.logger.WarnContext(ctx, "login_throttle_record_failed", slog.Any("error", err))
		}
	}
}

/*
Logout destroys the session behind token. Unknown tokens are not an error, and
the entry is only audited when the caller was authenticated.
*/
func (service *Service) Logout(ctx context.Context, identity *sec.Identity, token string, entry audit.Entry) error {
	if err := service.sessions.DestroySession(ctx, token); err != nil {
		return err
	}

	if identity != nil {
		service.recorder.Record(ctx, entry.On(audit.ActionLogout, audit.TargetSession, identity.SessionID))
	}
	return nil
}

// # Session Maintenance

// Renew extends the current session by one TTL.
func (service *Service) Renew(ctx context.Context, token string) (*SessionHandle, error) {
	return service.sessions.Renew(ctx, token)
}

// Regenerate rotates the current session token.
func (service *Service) Regenerate(ctx context.Context, token string) (*SessionHandle, error) {
	return service.sessions.RegenerateSessionID(ctx, token)
}

// # Provisioning

/*
EnsureSuperadmin creates a superadmin with the given credentials unless an
account with that email already exists.

Returns:
  - bool: true when an account was created
  - error: Storage failures
*/
func (service *Service) EnsureSuperadmin(ctx context.Context, email, password string) (bool, error) {
	folded := normalize.Email(email)

	_, err := service.users.FindUserByEmail(ctx, folded)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return false, fmt.Errorf("auth_service_bootstrap_lookup_failed: %w", err)
	}

	hashedPassword, err := service.hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	user := &User{
		ID:           uuid.New(),
		Email:        folded,
		PasswordHash: hashedPassword,
		FirstName:    "Super",
		LastName:     "Admin",
		Role:         sec.RoleSuperadmin,
		Permissions:  sec.DefaultPermissions(sec.RoleSuperadmin),
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	if err := service.users.InsertUser(ctx, user); err != nil {
		return false, fmt.Errorf("auth_service_bootstrap_insert_failed: %w", err)
	}

	service.logger.InfoContext(ctx, "superadmin_provisioned", slog.String("user_id", user.ID))
	return true, nil
}
