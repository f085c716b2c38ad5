// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil carries the request-scoped values every layer needs: the
// correlation ID, the request logger and the resolved caller.
//
// The identity is resolved exactly once per request by the Authenticate
// middleware and read from here afterwards; nothing is memoized elsewhere.
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/nzela/nzela-api/internal/platform/ctxkey"
	"github.com/nzela/nzela-api/internal/platform/sec"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok || logger == nil {
		return slog.Default()
	}
	return logger
}

// # Identity & Access

// WithIdentity attaches the resolved caller and the credential it came from.
func WithIdentity(ctx context.Context, identity *sec.Identity, token string) context.Context {
	ctx = context.WithValue(ctx, ctxkey.KeyIdentity, identity)
	return context.WithValue(ctx, ctxkey.KeySessionToken, token)
}

// GetIdentity returns the caller resolved for this request, or nil when anonymous.
func GetIdentity(ctx context.Context) *sec.Identity {
	identity, ok := ctx.Value(ctxkey.KeyIdentity).(*sec.Identity)
	if !ok {
		return nil
	}
	return identity
}

// GetSessionToken returns the raw session credential presented with this request.
func GetSessionToken(ctx context.Context) string {
	token, _ := ctx.Value(ctxkey.KeySessionToken).(string)
	return token
}

// WithAuthError records why the presented credential was rejected. The request
// continues anonymously; RequireAuth surfaces the error on protected routes.
func WithAuthError(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, ctxkey.KeyAuthError, err)
}

// GetAuthError returns the rejection recorded for this request, if any.
func GetAuthError(ctx context.Context) error {
	err, _ := ctx.Value(ctxkey.KeyAuthError).(error)
	return err
}
