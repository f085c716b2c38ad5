// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/nzela/nzela-api/internal/platform/apperr"
	"github.com/nzela/nzela-api/internal/platform/authz"
	"github.com/nzela/nzela-api/internal/platform/constants"
	"github.com/nzela/nzela-api/internal/platform/ctxutil"
	"github.com/nzela/nzela-api/internal/platform/respond"
	"github.com/nzela/nzela-api/internal/platform/sec"
)

// SessionResolver turns a raw session token into the caller it belongs to.
//
// Declared here so the middleware does not import the auth service and tests
// can pass a stub.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*sec.Identity, error)
}

// CookieOpener unwraps the signed session cookie.
type CookieOpener interface {
	Open(value string) (string, error)
}

// errMalformedAuthorization is recorded for a header that is not "Bearer <token>".
var errMalformedAuthorization = apperr.Unauthenticated("Invalid authorization format")

// Authenticate resolves the caller once per request.
//
// # Flow
//  1. Take the credential from 'Authorization: Bearer <token>', else from the session cookie.
//  2. No credential: the request proceeds as anonymous.
//  3. Resolve it via [SessionResolver] and inject the [*sec.Identity] into the context.
//  4. On failure the rejection is stored in the context and the request proceeds
//     as anonymous; [RequireAuth] reports it on protected routes.
func Authenticate(resolver SessionResolver, cookies CookieOpener, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ctx := request.Context()

			// ── 1. Credential Extraction ──────────────────────────────────────
			token, err := credential(request, cookies, cookieName)
			if err != nil {
				next.ServeHTTP(writer, request.WithContext(ctxutil.WithAuthError(ctx, err)))
				return
			}

			// ── 2. Anonymous Access ───────────────────────────────────────────
			if token == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 3. Session Resolution ─────────────────────────────────────────
			identity, err := resolver.ResolveSession(ctx, token)
			if err != nil {
				next.ServeHTTP(writer, request.WithContext(ctxutil.WithAuthError(ctx, err)))
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			next.ServeHTTP(writer, request.WithContext(ctxutil.WithIdentity(ctx, identity, token)))
		})
	}
}

// credential returns the raw session token carried by the request, or "".
func credential(request *http.Request, cookies CookieOpener, cookieName string) (string, error) {
	if header := request.Header.Get(constants.HeaderAuthorization); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !found || !strings.EqualFold(scheme, constants.BearerScheme) || token == "" {
			return "", errMalformedAuthorization
		}
		return token, nil
	}

	cookie, err := request.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return "", nil
	}

	token, err := cookies.Open(cookie.Value)
	if err != nil {
		return "", apperr.Unauthenticated("Invalid or expired session").WithCause(err)
	}
	return token, nil
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate]. The rejection recorded
// by [Authenticate] is returned as-is so clients see "session_expired" when it applies.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetIdentity(request.Context()) == nil {
			respond.Error(writer, request, unauthenticated(request.Context()))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole blocks requests whose caller ranks below role. It implies [RequireAuth].
func RequireRole(role sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			identity := ctxutil.GetIdentity(request.Context())
			if identity == nil {
				respond.Error(writer, request, unauthenticated(request.Context()))
				return
			}

			if err := authz.RequireRole(identity, role); err != nil {
				respond.Error(writer, request, err)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// RequirePermission blocks requests whose caller lacks p. It implies [RequireAuth].
func RequirePermission(p sec.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			identity := ctxutil.GetIdentity(request.Context())
			if identity == nil {
				respond.Error(writer, request, unauthenticated(request.Context()))
				return
			}

			if err := authz.RequirePermission(identity, p); err != nil {
				respond.Error(writer, request, err)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

func unauthenticated(ctx context.Context) error {
	if err := ctxutil.GetAuthError(ctx); err != nil {
		return err
	}
	return apperr.Unauthenticated("Authentication required")
}
