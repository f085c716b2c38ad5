// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nzela/nzela-api/internal/platform/middleware"
	requestutil "github.com/nzela/nzela-api/internal/platform/request"
	"github.com/nzela/nzela-api/internal/platform/respond"
	"github.com/nzela/nzela-api/internal/platform/sec"
	"github.com/nzela/nzela-api/internal/platform/validate"
	"github.com/nzela/nzela-api/internal/system/audit"
	"github.com/nzela/nzela-api/internal/users/auth"
	"github.com/nzela/nzela-api/pkg/normalize"
	"github.com/nzela/nzela-api/pkg/pagination"
	"github.com/nzela/nzela-api/pkg/query"
)

// Field identifiers specific to user management.
const (
	fieldID     = "id"
	queryActive = "active"
	querySearch = "search"
	roleAll     = "all"
)

// Handler implements the back-office HTTP endpoints.
type Handler struct {
	adminService *Service
}

// NewHandler constructs a new admin [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{adminService: service}
}

// Routes returns a [chi.Router] gated on the admin role. Per-account rules are
// applied by the service; the dashboard figures also need the view_stats grant.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireRole(sec.RoleAdmin))

	router.Get("/me", handler.me)
	router.With(middleware.RequirePermission(sec.PermViewStats)).Get("/stats", handler.stats)

	router.Route("/users", func(r chi.Router) {
		r.Get("/", handler.list)
		r.Post("/", handler.create)
		r.Get("/{id}", handler.get)
		r.Put("/{id}", handler.update)
		r.Delete("/{id}", handler.remove)
	})

	return router
}

// # Request Payloads

type createRequest struct {
	Email       string             `json:"email"`
	Password    string             `json:"password"`
	FirstName   string             `json:"first_name"`
	LastName    string             `json:"last_name"`
	Phone       string             `json:"phone"`
	Province    string             `json:"province"`
	Role        string             `json:"role"`
	Permissions *sec.PermissionSet `json:"permissions"`
	IsActive    *bool              `json:"is_active"`
}

type updateRequest struct {
	Email       *string            `json:"email"`
	FirstName   *string            `json:"first_name"`
	LastName    *string            `json:"last_name"`
	Phone       *string            `json:"phone"`
	Province    *string            `json:"province"`
	Role        *string            `json:"role"`
	Permissions *sec.PermissionSet `json:"permissions"`
	IsActive    *bool              `json:"is_active"`
	NewPassword *string            `json:"new_password"`
}

// parseRole validates a role field. Empty is allowed and yields "".
func parseRole(validator *validate.Validator, raw string) sec.Role {
	if raw == "" {
		return ""
	}
	role, err := sec.ParseRole(raw)
	validator.Custom(auth.FieldRole, err != nil, "Must be one of: citizen, admin, superadmin")
	return role
}

// # Endpoints

/*
GET /api/v1/admin/me.

Description: Returns the caller's full account, including grants.
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	user, err := handler.adminService.Me(request.Context(), requestutil.Identity(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, user)
}

/*
GET /api/v1/admin/stats.

Response:
  - 200: Account counts for the dashboard
  - 403: Caller lacks view_stats
*/
func (handler *Handler) stats(writer http.ResponseWriter, request *http.Request) {
	stats, err := handler.adminService.Stats(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, stats)
}

/*
GET /api/v1/admin/users.

Request:
  - Query: role (comma list or "all"), active (bool), search, page, limit

Response:
  - 200: {users, stats} with pagination metadata
  - 400: Unknown role filter
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	values := request.URL.Query()

	filter := auth.UserFilter{
		Active: query.Bool(values.Get(queryActive)),
		Search: normalize.SearchTerm(values.Get(querySearch)),
		Limit:  params.Limit,
		Offset: params.Offset(),
	}

	validator := &validate.Validator{}
	for _, raw := range query.StringSlice(values.Get(auth.FieldRole)) {
		if raw == roleAll {
			filter.Roles = nil
			break
		}
		if role := parseRole(validator, raw); role != "" {
			filter.Roles = append(filter.Roles, role)
		}
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	identity := requestutil.Identity(request)
	result, err := handler.adminService.List(request.Context(), identity, filter, audit.FromIdentity(identity, request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, result, params.Meta(result.Total))
}

/*
POST /api/v1/admin/users.

Request:
  - Body: createRequest

Response:
  - 201: The created account
  - 400: Validation failure
  - 403: Role or grant beyond the caller's reach
  - 409: Email already registered
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input createRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	auth.ValidateProfile(validator, input.Email, input.FirstName, input.LastName)
	auth.ValidatePassword(validator, auth.FieldPassword, input.Password)
	role := parseRole(validator, input.Role)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	identity := requestutil.Identity(request)
	user, err := handler.adminService.Create(request.Context(), identity, CreateInput{
		Email:       input.Email,
		Password:    input.Password,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Phone:       input.Phone,
		Province:    input.Province,
		Role:        role,
		Permissions: input.Permissions,
		IsActive:    input.IsActive,
	}, audit.FromIdentity(identity, request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
GET /api/v1/admin/users/{id}.
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	id, err := pathID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.adminService.Get(request.Context(), requestutil.Identity(request), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, user)
}

/*
PUT /api/v1/admin/users/{id}.

Description: Partial update. Omitted fields are left unchanged.

Response:
  - 200: The updated account
  - 400: Validation failure, empty update, or a change to one's own role or status
  - 403: Target or requested role beyond the caller's reach
  - 404: Unknown account
  - 409: Email already registered
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	id, err := pathID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	if input.Email != nil {
		validator.Email(auth.FieldEmail, *input.Email).MaxLen(auth.FieldEmail, *input.Email, auth.MaxEmailLength)
	}
	if input.FirstName != nil {
		validator.Required(auth.FieldFirstName, *input.FirstName).MaxLen(auth.FieldFirstName, *input.FirstName, auth.MaxNameLength)
	}
	if input.LastName != nil {
		validator.Required(auth.FieldLastName, *input.LastName).MaxLen(auth.FieldLastName, *input.LastName, auth.MaxNameLength)
	}
	if input.NewPassword != nil {
		auth.ValidatePassword(validator, auth.FieldNewPassword, *input.NewPassword)
	}

	var role *sec.Role
	if input.Role != nil {
		validator.Required(auth.FieldRole, *input.Role)
		if parsed := parseRole(validator, *input.Role); parsed != "" {
			role = &parsed
		}
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	identity := requestutil.Identity(request)
	user, err := handler.adminService.Update(request.Context(), identity, id, UpdateInput{
		Email:       input.Email,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Phone:       input.Phone,
		Province:    input.Province,
		Role:        role,
		Permissions: input.Permissions,
		IsActive:    input.IsActive,
		NewPassword: input.NewPassword,
	}, audit.FromIdentity(identity, request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
DELETE /api/v1/admin/users/{id}.

Response:
  - 204: Account soft-deleted and its sessions revoked
  - 400: SELF_ACTION
  - 403: Target beyond the caller's reach
  - 404: Unknown account
*/
func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	id, err := pathID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	identity := requestutil.Identity(request)
	if err := handler.adminService.Delete(request.Context(), identity, id, audit.FromIdentity(identity, request)); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

func pathID(request *http.Request) (string, error) {
	id := requestutil.Param(request, fieldID)
	return id, (&validate.Validator{}).UUID(fieldID, id).Err()
}
