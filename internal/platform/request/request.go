// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package requestutil provides utilities for extracting data from HTTP requests.

It hides the router's parameter extraction and the request context layout from
handlers.
*/
package requestutil

import (
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nzela/nzela-api/internal/platform/apperr"
	"github.com/nzela/nzela-api/internal/platform/ctxutil"
	"github.com/nzela/nzela-api/internal/platform/sec"
	"github.com/nzela/nzela-api/internal/platform/validate"
)

// maxBodyBytes caps JSON bodies; auth payloads are tiny.
const maxBodyBytes = 64 << 10

/*
DecodeJSON reads the request body and decodes it into the target structure.

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(request.Body, maxBodyBytes))
	if err := decoder.Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Identity returns the caller resolved for this request, or nil when anonymous.
*/
func Identity(request *http.Request) *sec.Identity {
	return ctxutil.GetIdentity(request.Context())
}

/*
RequiredIdentity ensures the request is authenticated and returns the caller.

Returns:
  - *sec.Identity: The resolved caller
  - error: apperr.Unauthenticated if the request is anonymous
*/
func RequiredIdentity(request *http.Request) (*sec.Identity, error) {
	identity := ctxutil.GetIdentity(request.Context())
	if identity == nil {
		return nil, apperr.Unauthenticated("Authentication required")
	}
	return identity, nil
}

/*
SessionToken returns the raw credential the identity was resolved from.
*/
func SessionToken(request *http.Request) string {
	return ctxutil.GetSessionToken(request.Context())
}

/*
ClientIP returns the caller address without its port. The RealIP middleware has
already rewritten RemoteAddr from the trusted proxy headers.
*/
func ClientIP(request *http.Request) string {
	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return request.RemoteAddr
	}
	return host
}

// Logger returns the request-scoped logger.
func Logger(request *http.Request) *slog.Logger {
	return ctxutil.GetLogger(request.Context())
}
