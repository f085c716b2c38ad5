// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and the role/permission model.
//
// # Architecture
//
// Security-sensitive code (hashing, token generation, cookie signing) is isolated
// here from the domain logic and injected into services through constructors.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidCookie is returned for any cookie that fails signature or claim checks.
var ErrInvalidCookie = errors.New("sec: invalid session cookie")

// sessionCookieClaims wraps the opaque session token in a signed envelope.
type sessionCookieClaims struct {
	jwt.RegisteredClaims

	// Token is the opaque session token, kept short-named to keep the cookie small.
	Token string `json:"sid"`
}

// CookieSigner seals session tokens into tamper-evident cookie values using HS256.
type CookieSigner struct {
	secret []byte
	issuer string
}

// NewCookieSigner creates a signer keyed with the session secret.
func NewCookieSigner(secret, issuer string) *CookieSigner {
	return &CookieSigner{secret: []byte(secret), issuer: issuer}
}

// Seal signs token into a cookie value valid until expiresAt.
func (signer *CookieSigner) Seal(token string, expiresAt time.Time) (string, error) {
	claims := sessionCookieClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    signer.issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Token: token,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signer.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign session cookie: %w", err)
	}
	return signed, nil
}

// Open verifies a cookie value and returns the session token inside it.
//
// Cookie expiry is not enforced here: the session row is the authority on expiry,
// so an elapsed cookie still resolves to a distinguishable expired session.
func (signer *CookieSigner) Open(value string) (string, error) {
	claims := &sessionCookieClaims{}
	_, err := jwt.ParseWithClaims(value, claims, func(token *jwt.Token) (interface{}, error) {
		return signer.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCookie, err)
	}

	if claims.Issuer != signer.issuer || claims.Token == "" {
		return "", ErrInvalidCookie
	}
	return claims.Token, nil
}
