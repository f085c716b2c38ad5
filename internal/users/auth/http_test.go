// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nzela/nzela-api/internal/platform/middleware"
	"github.com/nzela/nzela-api/internal/platform/sec"
	"github.com/nzela/nzela-api/internal/users/auth"
)

const sessionCookie = "nzela_session"

func newRouter(f *fixture) http.Handler {
	signer := sec.NewCookieSigner("0123456789abcdef0123456789abcdef", "nzela.cd")
	handler := auth.NewHandler(f.service, auth.NewSessionCookies(sessionCookie, true, signer))

	router := chi.NewRouter()
	router.Use(middleware.Authenticate(f.manager, signer, sessionCookie))
	router.Mount("/auth", handler.Routes())
	return router
}

func do(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}

	request := httptest.NewRequest(method, path, &payload)
	request.RemoteAddr = "198.51.100.4:41000"
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

type loginEnvelope struct {
	Data struct {
		User struct {
			ID    string   `json:"id"`
			Email string   `json:"email"`
			Role  sec.Role `json:"role"`
		} `json:"user"`
		Token     string `json:"token"`
		TokenType string `json:"token_type"`
		ExpiresIn int64  `json:"expires_in"`
	} `json:"data"`
}

/*
TestHandler_Register verifies validation and the created response.
*/
func TestHandler_Register(t *testing.T) {
	tests := []struct {
		name       string
		body       map[string]string
		wantStatus int
	}{
		{"valid", map[string]string{"email": "new@nzela.cd", "password": testPassword, "first_name": "A", "last_name": "B"}, http.StatusCreated},
		{"short_password", map[string]string{"email": "new@nzela.cd", "password": "short", "first_name": "A", "last_name": "B"}, http.StatusBadRequest},
		{"bad_email", map[string]string{"email": "not-an-email", "password": testPassword, "first_name": "A", "last_name": "B"}, http.StatusBadRequest},
		{"missing_names", map[string]string{"email": "new@nzela.cd", "password": testPassword}, http.StatusBadRequest},
		{"duplicate", map[string]string{"email": "taken@nzela.cd", "password": testPassword, "first_name": "A", "last_name": "B"}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, defaultPolicy())
			f.addUser(t, "taken@nzela.cd", sec.RoleCitizen, true)

			recorder := do(t, newRouter(f), http.MethodPost, "/auth/register", "", tt.body)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			if tt.wantStatus == http.StatusCreated {
				assert.NotContains(t, recorder.Body.String(), "passwordhash")
				assert.NotContains(t, recorder.Body.String(), "$2a$")
			}
		})
	}
}

/*
TestHandler_LoginFlow walks login, me, regenerate and logout over HTTP.
*/
func TestHandler_LoginFlow(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	user := f.addUser(t, "admin@nzela.cd", sec.RoleAdmin, true)
	router := newRouter(f)

	// 1. Login
	recorder := do(t, router, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "admin@nzela.cd", "password": testPassword,
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var login loginEnvelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &login))
	assert.Equal(t, user.ID, login.Data.User.ID)
	assert.Equal(t, sec.RoleAdmin, login.Data.User.Role)
	assert.Equal(t, "Bearer", login.Data.TokenType)
	assert.NotEmpty(t, login.Data.Token)
	assert.Positive(t, login.Data.ExpiresIn)

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)

	// 2. The bearer token resolves
	recorder = do(t, router, http.MethodGet, "/auth/me", login.Data.Token, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), user.ID)

	// 3. So does the cookie
	request := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	request.AddCookie(cookies[0])
	cookieRecorder := httptest.NewRecorder()
	router.ServeHTTP(cookieRecorder, request)
	assert.Equal(t, http.StatusOK, cookieRecorder.Code)

	// 4. Regenerate retires the old token
	recorder = do(t, router, http.MethodPost, "/auth/session/regenerate", login.Data.Token, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	var rotated loginEnvelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &rotated))
	assert.NotEqual(t, login.Data.Token, rotated.Data.Token)

	assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodGet, "/auth/me", login.Data.Token, nil).Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/auth/me", rotated.Data.Token, nil).Code)

	// 5. Logout, then the token is dead
	recorder = do(t, router, http.MethodPost, "/auth/logout", rotated.Data.Token, nil)
	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodGet, "/auth/me", rotated.Data.Token, nil).Code)

	// 6. Logging out again still succeeds
	assert.Equal(t, http.StatusNoContent, do(t, router, http.MethodPost, "/auth/logout", rotated.Data.Token, nil).Code)
}

/*
TestHandler_LoginRejection verifies the uniform 401 envelope.
*/
func TestHandler_LoginRejection(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	f.addUser(t, "citizen@nzela.cd", sec.RoleCitizen, true)
	router := newRouter(f)

	for _, email := range []string{"citizen@nzela.cd", "ghost@nzela.cd"} {
		recorder := do(t, router, http.MethodPost, "/auth/login", "", map[string]string{
			"email": email, "password": "wrong-password",
		})

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.JSONEq(t,
			`{"error":"Invalid email or password","code":"INVALID_CREDENTIALS","reason":"invalid_credentials"}`,
			recorder.Body.String(),
		)
	}
}

/*
TestHandler_MeRequiresSession verifies anonymous access to a protected route.
*/
func TestHandler_MeRequiresSession(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	recorder := do(t, newRouter(f), http.MethodGet, "/auth/me", "", nil)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"reason":"unauthenticated"`)
}
