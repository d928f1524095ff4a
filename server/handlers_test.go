package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/schooldesk/auth-server/auth"
	"github.com/schooldesk/auth-server/internal/config"
	fakerolerepo "github.com/schooldesk/auth-server/roles/repofake"
	"github.com/schooldesk/auth-server/server"
	"github.com/schooldesk/auth-server/token/refresh"
	"github.com/schooldesk/auth-server/users"
	fakeuserrepo "github.com/schooldesk/auth-server/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	testSecret      = "0123456789abcdef0123456789abcdef"
	teacherEmail    = "teacher@x.com"
	teacherPassword = "secret"
	adminUserEmail  = "boss@x.com"
	adminPassword   = "admin-secret"
	allowedOrigin   = "http://allowed.example"
)

type serverFixture struct {
	server   *server.Server
	userRepo *fakeuserrepo.FakeUserRepo
	roleRepo *fakerolerepo.FakeRoleRepo
}

func setupServer(t *testing.T) *serverFixture {
	t.Helper()

	cfg := config.NewStatic(
		config.EnvVars{Port: "8080", AppName: "test", Env: "TEST"},
		config.Auth{SigningSecret: testSecret, SessionTokenExpiry: time.Hour, RefreshTokenExpiry: 168 * time.Hour},
		config.Cors{Origins: []string{allowedOrigin}},
		config.Storage{},
	)

	f := &serverFixture{
		userRepo: fakeuserrepo.NewFakeUserRepo(),
		roleRepo: fakerolerepo.NewFakeRoleRepo(),
	}

	srv, err := server.New(cfg, auth.Repos{Users: f.userRepo, Roles: f.roleRepo}, refresh.NewInMemoryRepo(refresh.DefaultExpiry))
	require.NoError(t, err)
	f.server = srv

	f.createUser(t, teacherEmail, teacherPassword, "teacher")
	f.createUser(t, adminUserEmail, adminPassword, "admin")
	return f
}

func (f *serverFixture) createUser(t *testing.T, email, password, roleID string) {
	t.Helper()

	passwordHash, err := users.HashPassword(password)
	require.NoError(t, err)
	err = f.userRepo.Upsert(t.Context(), &users.User{
		Email:        email,
		PasswordHash: passwordHash,
		RoleID:       roleID,
	})
	require.NoError(t, err)
}

func (f *serverFixture) do(method, path, bearer string, body any) *httptest.ResponseRecorder {
	var reader bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&reader).Encode(body)
	}
	req := httptest.NewRequest(method, path, &reader)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	recorder := httptest.NewRecorder()
	f.server.ServeHTTP(recorder, req)
	return recorder
}

func (f *serverFixture) login(t *testing.T, email, password string) (sessionToken, refreshToken string) {
	t.Helper()

	recorder := f.do(http.MethodPost, server.RouteAuthLogin, "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var resp struct {
		SessionToken string `json:"session_token"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionToken)
	require.NotEmpty(t, resp.RefreshToken)
	return resp.SessionToken, resp.RefreshToken
}

func TestLoginHandler(t *testing.T) {
	f := setupServer(t)

	sessionToken, refreshToken := f.login(t, teacherEmail, teacherPassword)
	require.NotEqual(t, sessionToken, refreshToken)
}

func TestLoginHandlerInvalidCredentials(t *testing.T) {
	f := setupServer(t)

	recorder := f.do(http.MethodPost, server.RouteAuthLogin, "", map[string]string{
		"email":    teacherEmail,
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = f.do(http.MethodPost, server.RouteAuthLogin, "", map[string]string{
		"email":    "nobody@x.com",
		"password": "anything",
	})
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestLoginHandlerUnprocessableBody(t *testing.T) {
	f := setupServer(t)

	req := httptest.NewRequest(http.MethodPost, server.RouteAuthLogin, bytes.NewBufferString("{not json"))
	recorder := httptest.NewRecorder()
	f.server.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusUnprocessableEntity, recorder.Code)

	recorder = f.do(http.MethodPost, server.RouteAuthLogin, "", map[string]string{"email": teacherEmail})
	require.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
}

func TestRefreshHandler(t *testing.T) {
	f := setupServer(t)
	_, refreshToken := f.login(t, teacherEmail, teacherPassword)

	recorder := f.do(http.MethodPost, server.RouteAuthRefresh, "", map[string]string{"refresh_token": refreshToken})
	require.Equal(t, http.StatusOK, recorder.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))

	// The refreshed token authenticates like the original.
	recorder = f.do(http.MethodGet, server.RouteAuthMe, resp.Token, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestRefreshHandlerUnknownToken(t *testing.T) {
	f := setupServer(t)

	recorder := f.do(http.MethodPost, server.RouteAuthRefresh, "", map[string]string{"refresh_token": "never-issued"})
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestMeHandler(t *testing.T) {
	f := setupServer(t)
	sessionToken, _ := f.login(t, teacherEmail, teacherPassword)

	recorder := f.do(http.MethodGet, server.RouteAuthMe, sessionToken, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var resp struct {
		UserID string `json:"user_id"`
		Email  string `json:"email"`
		Role   string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.UserID)
	require.Equal(t, teacherEmail, resp.Email)
	require.Equal(t, "teacher", resp.Role)
}

func TestMeHandlerRequiresToken(t *testing.T) {
	f := setupServer(t)

	recorder := f.do(http.MethodGet, server.RouteAuthMe, "", nil)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)

	req := httptest.NewRequest(http.MethodGet, server.RouteAuthMe, nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	recorder = httptest.NewRecorder()
	f.server.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = f.do(http.MethodGet, server.RouteAuthMe, "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestListUsersRequiresPermission(t *testing.T) {
	f := setupServer(t)

	teacherToken, _ := f.login(t, teacherEmail, teacherPassword)
	recorder := f.do(http.MethodGet, server.RouteAuthUsers, teacherToken, nil)
	require.Equal(t, http.StatusForbidden, recorder.Code)

	adminToken, _ := f.login(t, adminUserEmail, adminPassword)
	recorder = f.do(http.MethodGet, server.RouteAuthUsers, adminToken, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var userList []users.User
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &userList))
	require.NotEmpty(t, userList)
	for _, u := range userList {
		require.Empty(t, u.PasswordHash) // never serialized
	}
}

func TestListRolesRequiresPermission(t *testing.T) {
	f := setupServer(t)

	teacherToken, _ := f.login(t, teacherEmail, teacherPassword)
	recorder := f.do(http.MethodGet, server.RouteAuthRoles, teacherToken, nil)
	require.Equal(t, http.StatusForbidden, recorder.Code)

	adminToken, _ := f.login(t, adminUserEmail, adminPassword)
	recorder = f.do(http.MethodGet, server.RouteAuthRoles, adminToken, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestLogoutHandler(t *testing.T) {
	f := setupServer(t)
	_, refreshToken := f.login(t, teacherEmail, teacherPassword)

	recorder := f.do(http.MethodPost, server.RouteAuthLogout, "", map[string]string{"refresh_token": refreshToken})
	require.Equal(t, http.StatusNoContent, recorder.Code)

	recorder = f.do(http.MethodPost, server.RouteAuthRefresh, "", map[string]string{"refresh_token": refreshToken})
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestHealthzHandler(t *testing.T) {
	f := setupServer(t)

	recorder := f.do(http.MethodGet, server.RouteHealthz, "", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
}
