// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nzela/nzela-api/internal/platform/middleware"
	requestutil "github.com/nzela/nzela-api/internal/platform/request"
	"github.com/nzela/nzela-api/internal/platform/respond"
	"github.com/nzela/nzela-api/internal/platform/validate"
	"github.com/nzela/nzela-api/internal/system/audit"
	"github.com/nzela/nzela-api/internal/users/auth"
)

// Handler implements the HTTP layer for self-service account management.
//
// # Security
//
// Every endpoint requires an authenticated caller and only ever touches the
// caller's own account.
type Handler struct {
	accountService *Service
	cookies        *auth.SessionCookies
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service, cookies *auth.SessionCookies) *Handler {
	return &Handler{accountService: service, cookies: cookies}
}

// Routes returns a [chi.Router] configured with the account endpoints.
//
// # Endpoints
//   - GET    /              : Private profile.
//   - PUT    /              : Profile update.
//   - DELETE /              : Account deletion.
//   - PUT    /password      : Password change, rotates the session token.
//   - GET    /sessions      : Live device sessions.
//   - DELETE /sessions      : Ends every other session.
//   - DELETE /sessions/{id} : Ends one session.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	// Account Management
	router.Get("/", handler.getProfile)
	router.Put("/", handler.updateProfile)
	router.Delete("/", handler.deleteAccount)
	router.Put("/password", handler.changePassword)

	// Session Security
	router.Get("/sessions", handler.listSessions)
	router.Delete("/sessions", handler.revokeOtherSessions)
	router.Delete("/sessions/{id}", handler.revokeSession)

	return router
}

// # Request Payloads

type updateProfileRequest struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	Province  *string `json:"province"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type deleteAccountRequest struct {
	Password    string `json:"password"`
	KeepReports bool   `json:"keep_reports"`
}

// # Profile Endpoints

/*
GET /api/v1/account.

Response:
  - 200: User: Fully hydrated user profile
  - 401: Authentication required
*/
func (handler *Handler) getProfile(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.Profile(request.Context(), identity.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
PUT /api/v1/account.

Request:
  - body: updateProfileRequest (partial, omitted fields are kept)

Response:
  - 200: User: The updated profile
  - 400: Invalid input or nothing to update
  - 409: Email already registered
*/
func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateProfileRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	if input.Email != nil {
		validator.Required(auth.FieldEmail, *input.Email).
			Email(auth.FieldEmail, *input.Email).
			MaxLen(auth.FieldEmail, *input.Email, auth.MaxEmailLength)
	}
	if input.FirstName != nil {
		validator.Required(auth.FieldFirstName, *input.FirstName).
			MaxLen(auth.FieldFirstName, *input.FirstName, auth.MaxNameLength)
	}
	if input.LastName != nil {
		validator.Required(auth.FieldLastName, *input.LastName).
			MaxLen(auth.FieldLastName, *input.LastName, auth.MaxNameLength)
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateProfile(request.Context(), identity.UserID, UpdateProfileInput{
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Phone:     input.Phone,
		Province:  input.Province,
	}, audit.FromIdentity(identity, request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
PUT /api/v1/account/password.

Description: On success the client must switch to the returned token; the one
used for this request no longer resolves.

Response:
  - 200: New token and expiry
  - 400: Validation failure or wrong current password
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(auth.FieldCurrentPassword, input.CurrentPassword)
	auth.ValidatePassword(validator, auth.FieldNewPassword, input.NewPassword)
	validator.Custom(auth.FieldNewPassword,
		input.NewPassword != "" && input.NewPassword == input.CurrentPassword,
		"must differ from the current password")
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handle, err := handler.accountService.ChangePassword(
		request.Context(),
		identity,
		requestutil.SessionToken(request),
		input.CurrentPassword,
		input.NewPassword,
		audit.FromIdentity(identity, request),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.cookies.Set(writer, handle); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		auth.FieldToken:     handle.Token,
		auth.FieldTokenType: auth.TokenType,
		auth.FieldExpiresAt: handle.Session.ExpiresAt,
		auth.FieldExpiresIn: int64(handle.ExpiresIn().Seconds()),
	})
}

/*
DELETE /api/v1/account.

Request:
  - body: deleteAccountRequest (password, keep_reports)

Response:
  - 200: DeleteResult
  - 400: Wrong password, or reports owned without keep_reports
*/
func (handler *Handler) deleteAccount(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input deleteAccountRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(auth.FieldPassword, input.Password)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.accountService.DeleteAccount(request.Context(), identity, DeleteInput{
		Password:    input.Password,
		KeepReports: input.KeepReports,
	}, audit.FromIdentity(identity, request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.cookies.Clear(writer)
	respond.OK(writer, result)
}

// # Session Security

/*
GET /api/v1/account/sessions.

Response:
  - 200: []SessionInfo, newest first, the current one flagged
*/
func (handler *Handler) listSessions(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessions, err := handler.accountService.Sessions(request.Context(), identity)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, sessions)
}

// DELETE /api/v1/account/sessions.
func (handler *Handler) revokeOtherSessions(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.RevokeOtherSessions(request.Context(), identity); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
DELETE /api/v1/account/sessions/{id}.

Response:
  - 204: Session ended. Ending the current session also clears the cookie.
  - 404: Not a live session of the caller
*/
func (handler *Handler) revokeSession(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessionID := requestutil.Param(request, "id")
	validator := &validate.Validator{}
	validator.UUID(FieldSessionID, sessionID)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.RevokeSession(request.Context(), identity, sessionID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if sessionID == identity.SessionID {
		handler.cookies.Clear(writer)
	}
	respond.NoContent(writer)
}
