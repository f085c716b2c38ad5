// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the user identity and session management layer.

It defines the core domain entities (User, Session) and the logic for credential
verification, session lifecycle and account registration.

# Architecture

Entities defined here carry no storage concerns. The stores that hydrate them
live next to them (store_postgres.go, store_redis.go) behind the contracts in
store.go.
*/
package auth

import (
	"strings"
	"time"

	"github.com/nzela/nzela-api/internal/platform/sec"
)

// # Domain Entities

// User represents an account on the NZELA platform, citizen or back-office.
type User struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	PasswordHash string            `json:"-"`
	FirstName    string            `json:"first_name"`
	LastName     string            `json:"last_name"`
	Phone        string            `json:"phone,omitempty"`
	Province     string            `json:"province,omitempty"`
	Role         sec.Role          `json:"role"`
	Permissions  sec.PermissionSet `json:"permissions,omitempty"`
	IsActive     bool              `json:"is_active"`
	CreatedBy    *string           `json:"created_by,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	LastLogin    *time.Time        `json:"last_login,omitempty"`
	LastActivity *time.Time        `json:"last_activity,omitempty"`
	DeletedAt    *time.Time        `json:"-"`
}

// FullName joins first and last name, falling back to the email.
func (user *User) FullName() string {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		return user.Email
	}
	return name
}

// Summary is the public projection returned at login.
type Summary struct {
	ID          string            `json:"id"`
	Email       string            `json:"email"`
	FirstName   string            `json:"first_name"`
	LastName    string            `json:"last_name"`
	Role        sec.Role          `json:"role"`
	Permissions sec.PermissionSet `json:"permissions,omitempty"`
}

// Summary projects the user for client responses.
func (user *User) Summary() Summary {
	return Summary{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Role:        user.Role,
		Permissions: user.Permissions,
	}
}

// UserUpdate is a partial update. Nil fields are left unchanged.
type UserUpdate struct {
	Email        *string
	PasswordHash *string
	FirstName    *string
	LastName     *string
	Phone        *string
	Province     *string
	Role         *sec.Role
	Permissions  *sec.PermissionSet
	IsActive     *bool
}

// Empty reports whether the update changes nothing.
func (update UserUpdate) Empty() bool {
	return update.Email == nil && update.PasswordHash == nil && update.FirstName == nil &&
		update.LastName == nil && update.Phone == nil && update.Province == nil &&
		update.Role == nil && update.Permissions == nil && update.IsActive == nil
}

// Apply writes the non-nil fields onto user.
func (update UserUpdate) Apply(user *User) {
	if update.Email != nil {
		user.Email = *update.Email
	}
	if update.PasswordHash != nil {
		user.PasswordHash = *update.PasswordHash
	}
	if update.FirstName != nil {
		user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		user.LastName = *update.LastName
	}
	if update.Phone != nil {
		user.Phone = *update.Phone
	}
	if update.Province != nil {
		user.Province = *update.Province
	}
	if update.Role != nil {
		user.Role = *update.Role
	}
	if update.Permissions != nil {
		user.Permissions = *update.Permissions
	}
	if update.IsActive != nil {
		user.IsActive = *update.IsActive
	}
}

// UserFilter narrows a user listing.
type UserFilter struct {
	Roles  []sec.Role
	Active *bool
	// Search matches email, first or last name, case-insensitively.
	Search string
	// CreatedSince keeps accounts created at or after the instant.
	CreatedSince *time.Time
	Limit        int
	Offset       int
}

// Session is a server-side login. The raw token is never stored.
type Session struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	TokenHash  string     `json:"-"`
	IPAddress  string     `json:"ip_address"`
	UserAgent  string     `json:"user_agent"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`

	// Superseded is computed at lookup: a newer active session exists for the same user.
	Superseded bool `json:"-"`
}

// # Field Identifiers

// Global field names for validation in the authentication domain.
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldFirstName       = "first_name"
	FieldLastName        = "last_name"
	FieldPhone           = "phone"
	FieldProvince        = "province"
	FieldRole            = "role"
	FieldPermissions     = "permissions"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldToken           = "token"
	FieldTokenType       = "token_type"
	FieldExpiresAt       = "expires_at"
	FieldExpiresIn       = "expires_in"
	FieldUser            = "user"
	FieldMessage         = "message"
)
