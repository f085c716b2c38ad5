// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"fmt"
	"net/http"

	"github.com/nzela/nzela-api/internal/platform/constants"
	"github.com/nzela/nzela-api/internal/platform/sec"
)

// SessionCookies writes and clears the signed session cookie for browser clients.
// API clients use the bearer token from the login response instead.
type SessionCookies struct {
	name   string
	secure bool
	signer *sec.CookieSigner
}

// NewSessionCookies constructs a [SessionCookies]. secure should be true
// everywhere except local development over plain HTTP.
func NewSessionCookies(name string, secure bool, signer *sec.CookieSigner) *SessionCookies {
	return &SessionCookies{name: name, secure: secure, signer: signer}
}

// Name returns the cookie name read by the Authenticate middleware.
func (cookies *SessionCookies) Name() string {
	return cookies.name
}

// Set seals the handle's token and attaches the cookie to the response.
func (cookies *SessionCookies) Set(writer http.ResponseWriter, handle *SessionHandle) error {
	value, err := cookies.signer.Seal(handle.Token, handle.Session.ExpiresAt)
	if err != nil {
		return fmt.Errorf("session_cookie_seal_failed: %w", err)
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     cookies.name,
		Value:    value,
		Path:     constants.SessionCookiePath,
		Expires:  handle.Session.ExpiresAt,
		Secure:   cookies.secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

// Clear expires the cookie on the client.
func (cookies *SessionCookies) Clear(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     cookies.name,
		Value:    "",
		Path:     constants.SessionCookiePath,
		MaxAge:   -1,
		Secure:   cookies.secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
