// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest secret bcrypt accepts.
const MaxPasswordBytes = 72

// PasswordHasher hashes and verifies credentials with bcrypt.
//
// Stored hashes written by the legacy platform use the "$2y$" prefix, which bcrypt
// accepts for verification as-is.
type PasswordHasher struct {
	cost      int
	dummyHash []byte
}

// NewPasswordHasher clamps cost into bcrypt's accepted range.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}

	// Used to spend the same CPU time when the account does not exist.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("nzela-dummy-credential"), cost)

	return &PasswordHasher{cost: cost, dummyHash: dummy}
}

// Hash hashes a plain-text password.
func (hasher *PasswordHasher) Hash(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), hasher.cost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// Verify compares a plain-text password with its stored hash in constant time.
func (hasher *PasswordHasher) Verify(plainTextPassword, existingHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword))
	return err == nil
}

// VerifyDummy burns one comparison against a fixed hash and always reports false.
func (hasher *PasswordHasher) VerifyDummy(plainTextPassword string) bool {
	_ = bcrypt.CompareHashAndPassword(hasher.dummyHash, []byte(plainTextPassword))
	return false
}
