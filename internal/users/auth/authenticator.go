// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/nzela/nzela-api/internal/platform/apperr"
	"github.com/nzela/nzela-api/internal/platform/sec"
	"github.com/nzela/nzela-api/pkg/normalize"
)

// Authenticator verifies email and password pairs.
//
// # Security
//
// Unknown email, disabled account and wrong password are indistinguishable to
// the caller: same error, and a bcrypt comparison is spent in every case.
type Authenticator struct {
	users  CredentialStore
	hasher *sec.PasswordHasher
}

// NewAuthenticator constructs an [Authenticator].
func NewAuthenticator(users CredentialStore, hasher *sec.PasswordHasher) *Authenticator {
	return &Authenticator{users: users, hasher: hasher}
}

/*
Authenticate returns the account owning email when password matches.

Returns:
  - *User: The verified account
  - error: apperr.InvalidCredentials, or apperr.Internal on store failure
*/
func (authenticator *Authenticator) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := authenticator.users.FindUserByEmail(ctx, normalize.Email(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			authenticator.hasher.VerifyDummy(password)
			return nil, apperr.InvalidCredentials().WithCause(ErrUserNotFound)
		}
		return nil, apperr.Internal(fmt.Errorf("authenticator_lookup_failed: %w", err))
	}

	if !authenticator.hasher.Verify(password, user.PasswordHash) {
		return nil, apperr.InvalidCredentials()
	}

	// Checked after the comparison so a disabled account costs the same time.
	if !user.IsActive {
		return nil, apperr.InvalidCredentials().WithCause(ErrAccountDisabled)
	}

	return user, nil
}
