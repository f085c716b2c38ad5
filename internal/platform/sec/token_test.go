// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nzela/nzela-api/internal/platform/sec"
)

/*
TestGenerateSecureToken verifies entropy size and uniqueness.
*/
func TestGenerateSecureToken(t *testing.T) {
	first, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	second, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(first)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
	assert.NotEqual(t, first, second)

	assert.Equal(t, sec.HashToken(first), sec.HashToken(first))
	assert.NotEqual(t, sec.HashToken(first), sec.HashToken(second))
	assert.Len(t, sec.HashToken(first), 64)
}

/*
TestCookieSigner verifies sealing, tampering and key mismatch.
*/
func TestCookieSigner(t *testing.T) {
	signer := sec.NewCookieSigner("0123456789abcdef0123456789abcdef", "nzela.cd")

	// 1. Round trip
	value, err := signer.Seal("opaque-token", time.Now().Add(time.Hour))
	require.NoError(t, err)
	token, err := signer.Open(value)
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", token)

	// 2. An elapsed cookie still opens; the session row decides expiry
	elapsed, err := signer.Seal("opaque-token", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = signer.Open(elapsed)
	assert.NoError(t, err)

	// 3. Tampered value
	_, err = signer.Open(value + "x")
	assert.ErrorIs(t, err, sec.ErrInvalidCookie)

	// 4. Different key
	other := sec.NewCookieSigner("fedcba9876543210fedcba9876543210", "nzela.cd")
	_, err = other.Open(value)
	assert.ErrorIs(t, err, sec.ErrInvalidCookie)

	// 5. Different issuer
	foreign := sec.NewCookieSigner("0123456789abcdef0123456789abcdef", "elsewhere")
	_, err = foreign.Open(value)
	assert.ErrorIs(t, err, sec.ErrInvalidCookie)

	// 6. Garbage
	_, err = signer.Open("garbage")
	assert.ErrorIs(t, err, sec.ErrInvalidCookie)
}
