// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nzela/nzela-api/internal/platform/middleware"
	requestutil "github.com/nzela/nzela-api/internal/platform/request"
	"github.com/nzela/nzela-api/internal/platform/respond"
	"github.com/nzela/nzela-api/internal/platform/sec"
	"github.com/nzela/nzela-api/internal/platform/validate"
	"github.com/nzela/nzela-api/internal/system/audit"
)

// # Definitions & Constructors

// Handler implements the authentication HTTP endpoints.
//
// # Scope
//
// Account entry points (registration, login, logout) and the maintenance of
// the caller's own session. The handler only maps transport concerns onto
// [Service]; every decision is made there.
type Handler struct {
	authService *Service
	cookies     *SessionCookies
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(service *Service, cookies *SessionCookies) *Handler {
	return &Handler{authService: service, cookies: cookies}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /register           : Creates a citizen account.
//   - POST /login              : Authenticates and opens a session.
//   - POST /logout             : Closes the current session (always 204).
//   - GET  /me                 : Returns the resolved caller.
//   - POST /session/renew      : Extends the current session by one TTL.
//   - POST /session/regenerate : Rotates the current session token.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/logout", handler.logout)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/me", handler.me)
		r.Post("/session/renew", handler.renew)
		r.Post("/session/regenerate", handler.regenerate)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Province  string `json:"province"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// # Shared Validation

// ValidatePassword applies the password policy to a new password. bcrypt only
// reads the first 72 bytes, so longer secrets are refused rather than truncated.
func ValidatePassword(validator *validate.Validator, field, value string) *validate.Validator {
	return validator.Required(field, value).
		MinLen(field, value, MinPasswordLength).
		MaxBytes(field, value, sec.MaxPasswordBytes)
}

// ValidateProfile checks the identity fields shared by registration and account creation.
func ValidateProfile(validator *validate.Validator, email, firstName, lastName string) *validate.Validator {
	return validator.Required(FieldEmail, email).
		Email(FieldEmail, email).
		MaxLen(FieldEmail, email, MaxEmailLength).
		Required(FieldFirstName, firstName).
		MaxLen(FieldFirstName, firstName, MaxNameLength).
		Required(FieldLastName, lastName).
		MaxLen(FieldLastName, lastName, MaxNameLength)
}

/*
Register handles citizen self-registration.

POST /api/v1/auth/register

Request:
  - Body: registerRequest (Email, Password, FirstName, LastName, Phone, Province)

Response:
  - 201: User: Created account
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrConflict: Email already registered
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	ValidateProfile(validator, input.Email, input.FirstName, input.LastName)
	ValidatePassword(validator, FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Register(request.Context(), RegisterInput{
		Email:     input.Email,
		Password:  input.Password,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Phone:     input.Phone,
		Province:  input.Province,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/auth/login

Description: Returns the opaque token for API clients and sets the signed
session cookie for browsers. Both carry the same session.

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: User summary, token, token type and expiry
  - 401: invalid_credentials, identical for every failure cause
  - 429: Too many failed attempts for this email from this address
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.authService.Login(request.Context(), LoginInput{
		Email:     input.Email,
		Password:  input.Password,
		IPAddress: requestutil.ClientIP(request),
		UserAgent: request.UserAgent(),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.cookies.Set(writer, result.Handle); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, sessionPayload(result.Handle, map[string]any{
		FieldUser: result.User.Summary(),
	}))
}

/*
Logout terminates the current session.

POST /api/v1/auth/logout

Description: Always succeeds. A caller whose session already lapsed still gets
the cookie cleared.

Response:
  - 204: No Content
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	identity := requestutil.Identity(request)

	err := handler.authService.Logout(
		request.Context(),
		identity,
		requestutil.SessionToken(request),
		audit.FromIdentity(identity, request),
	)
	if err != nil {
		requestutil.Logger(request).WarnContext(request.Context(), "logout_failed", slog.Any("error", err))
	}

	handler.cookies.Clear(writer)
	respond.NoContent(writer)
}

/*
Me returns the resolved caller and the expiry of the current session.

GET /api/v1/auth/me
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, identity)
}

/*
Renew extends the current session by one TTL from now.

POST /api/v1/auth/session/renew

Response:
  - 200: Same token, new expiry
  - 401: The session is no longer live
*/
func (handler *Handler) renew(writer http.ResponseWriter, request *http.Request) {
	handle, err := handler.authService.Renew(request.Context(), requestutil.SessionToken(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	handler.respondHandle(writer, request, handle)
}

/*
Regenerate rotates the current session token. The previous token stops working.

POST /api/v1/auth/session/regenerate

Response:
  - 200: New token, unchanged expiry
  - 401: The session is no longer live
*/
func (handler *Handler) regenerate(writer http.ResponseWriter, request *http.Request) {
	handle, err := handler.authService.Regenerate(request.Context(), requestutil.SessionToken(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	handler.respondHandle(writer, request, handle)
}

func (handler *Handler) respondHandle(writer http.ResponseWriter, request *http.Request, handle *SessionHandle) {
	if err := handler.cookies.Set(writer, handle); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, sessionPayload(handle, map[string]any{}))
}

// sessionPayload adds the token fields of handle to payload.
func sessionPayload(handle *SessionHandle, payload map[string]any) map[string]any {
	payload[FieldToken] = handle.Token
	payload[FieldTokenType] = TokenType
	payload[FieldExpiresAt] = handle.Session.ExpiresAt
	payload[FieldExpiresIn] = int64(handle.ExpiresIn().Seconds())
	return payload
}
