package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cms-backend/internal/config"
	"cms-backend/internal/shared"
	"cms-backend/internal/shared/middleware"
	"cms-backend/internal/shared/response"
	"cms-backend/pkg/container"
)

const testKey = "test-signing-key-0123456789abcdef"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		App:       config.AppConfig{Name: "cms", Environment: "test", Port: "8080", Version: "test"},
		Store:     config.StoreConfig{Driver: config.StoreDriverMemory},
		Cache:     config.CacheConfig{Driver: config.CacheDriverMemory, DefaultTTL: time.Minute, MemoryCapacity: 1000},
		JWT:       config.JWTConfig{Key: testKey, Issuer: "cms-users", Audience: "cms-clients", AccessTokenMinutes: 60, ServiceTokenMinutes: 30},
		Seed:      config.SeedConfig{DefaultPassword: "P@ssw0rd!"},
		RateLimit: config.RateLimitConfig{LoginRPS: 0.001, LoginBurst: 3},
		Security:  config.SecurityConfig{BcryptCost: 4},
	}
}

type testApp struct {
	c      *container.Container
	router *gin.Engine
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	c, err := container.NewContainer(context.Background(), testConfig(), config.ServiceUsers)
	require.NoError(t, err)
	t.Cleanup(c.Cleanup)

	_, err = c.Seed(context.Background())
	require.NoError(t, err)

	return &testApp{c: c, router: SetupRouter(c)}
}

func (a *testApp) userToken(t *testing.T, roles ...string) string {
	t.Helper()
	issued, err := a.c.JWTManager.IssueUserToken(shared.SeedWriterID.String(), "writer@cms.local", "Writer", roles, 0)
	require.NoError(t, err)
	return issued.Token
}

func (a *testApp) serviceToken(t *testing.T) string {
	t.Helper()
	issued, err := a.c.JWTManager.IssueServiceToken("content-service", map[string]any{
		"scope": middleware.ScopeUsersRead,
	}, 0)
	require.NoError(t, err)
	return issued.Token
}

func (a *testApp) do(method, path string, body any, token string, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthEndpoints(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/ping", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	for _, path := range []string{"/health", "/api/v1/health"} {
		w = app.do(http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w = app.do(http.MethodGet, "/api/v1/ready", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	ready := decode[struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}](t, w)
	assert.Equal(t, "ready", ready.Status)
	assert.Equal(t, "memory", ready.Checks["database"])
	assert.Equal(t, "ok", ready.Checks["cache"])
}

func TestListUsers_Anonymous(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/api/v1/users?page=1&pageSize=2", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	page := decode[shared.Paged[map[string]any]](t, w)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(5), page.TotalItems)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasNext)
	assert.False(t, page.HasPrevious)
	assert.NotContains(t, page.Items[0], "passwordHash")

	w = app.do(http.MethodGet, "/api/v1/users?page=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(http.MethodGet, "/api/v1/users?page=9223372036854775807", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[shared.Paged[map[string]any]](t, w).Items)
}

func TestGetUser_RequiresAuthentication(t *testing.T) {
	app := newTestApp(t)
	path := "/api/v1/users/" + shared.SeedAdminID.String()

	w := app.do(http.MethodGet, path, nil, "", shared.CorrelationHeader, "corr-42")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.ProblemContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, "corr-42", w.Header().Get(shared.CorrelationHeader))

	problem := decode[response.Problem](t, w)
	assert.Equal(t, http.StatusUnauthorized, problem.Status)
	assert.Equal(t, "corr-42", problem.CorrelationID)
	assert.Equal(t, path, problem.Instance)
	assert.NotEmpty(t, problem.TraceID)

	w = app.do(http.MethodGet, path, nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(http.MethodGet, path, nil, app.userToken(t, middleware.RoleWriter))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin@cms.local", decode[map[string]any](t, w)["email"])
	// correlation id được sinh khi client không gửi
	assert.NotEmpty(t, w.Header().Get(shared.CorrelationHeader))
}

func TestGetUser_BadRequests(t *testing.T) {
	app := newTestApp(t)
	token := app.userToken(t, middleware.RoleAdmin)

	w := app.do(http.MethodGet, "/api/v1/users/not-a-uuid", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[response.Problem](t, w).Errors, "id")

	w = app.do(http.MethodGet, "/api/v1/users/00000000-0000-0000-0000-00000000abcd", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateUser_AdminOnly(t *testing.T) {
	app := newTestApp(t)
	body := map[string]any{
		"email":       "new@cms.local",
		"password":    "secret123",
		"displayName": "New User",
		"roles":       []string{"Writer"},
	}

	w := app.do(http.MethodPost, "/api/v1/users", body, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(http.MethodPost, "/api/v1/users", body, app.userToken(t, middleware.RoleWriter))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, response.ProblemContentType, w.Header().Get("Content-Type"))

	admin := app.userToken(t, middleware.RoleAdmin)
	w = app.do(http.MethodPost, "/api/v1/users", body, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[map[string]any](t, w)
	assert.Equal(t, "/api/v1/users/"+created["id"].(string), w.Header().Get("Location"))

	body["email"] = "NEW@cms.local"
	w = app.do(http.MethodPost, "/api/v1/users", body, admin)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateUser_Validation(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodPost, "/api/v1/users", map[string]any{"email": "bad"}, app.userToken(t, middleware.RoleAdmin))
	require.Equal(t, http.StatusBadRequest, w.Code)

	problem := decode[response.Problem](t, w)
	for _, field := range []string{"email", "password", "displayName"} {
		assert.Contains(t, problem.Errors, field)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+app.userToken(t, middleware.RoleAdmin))
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndDeleteUser(t *testing.T) {
	app := newTestApp(t)
	admin := app.userToken(t, middleware.RoleAdmin)
	path := "/api/v1/users/" + shared.SeedWriterID.String()

	w := app.do(http.MethodPut, path, map[string]any{"displayName": "Renamed"}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[map[string]any](t, w)
	assert.Equal(t, "Renamed", updated["displayName"])
	assert.Equal(t, "writer@cms.local", updated["email"])

	w = app.do(http.MethodDelete, path, nil, admin)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = app.do(http.MethodGet, path, nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserBrief_MachineToMachine(t *testing.T) {
	app := newTestApp(t)
	path := "/api/v1/users/" + shared.SeedEditorID.String() + "/brief"

	w := app.do(http.MethodGet, path, nil, app.serviceToken(t))
	require.Equal(t, http.StatusOK, w.Code)
	brief := decode[shared.UserBrief](t, w)
	assert.Equal(t, shared.SeedEditorID.String(), brief.ID)
	assert.Equal(t, "editor@cms.local", brief.Email)
	assert.Equal(t, "Editor", brief.DisplayName)

	w = app.do(http.MethodGet, path, nil, app.userToken(t, middleware.RoleAdmin))
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodGet, path, nil, app.userToken(t, middleware.RoleWriter))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(http.MethodGet, "/api/v1/users/00000000-0000-0000-0000-00000000abcd/brief", nil, app.serviceToken(t))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLogin(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "admin@cms.local", "password": "P@ssw0rd!",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decode[struct {
		AccessToken string `json:"accessToken"`
		TokenType   string `json:"tokenType"`
		ExpiresIn   int64  `json:"expiresIn"`
	}](t, w)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.InDelta(t, 3600, res.ExpiresIn, 5)

	claims, err := app.c.JWTManager.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, shared.SeedAdminID.String(), claims.Subject)
	assert.True(t, claims.HasRole(middleware.RoleAdmin))

	w = app.do(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "admin@cms.local", "password": "wrong-password",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.ProblemContentType, w.Header().Get("Content-Type"))
}

func TestLogin_RateLimited(t *testing.T) {
	app := newTestApp(t)
	body := map[string]string{"email": "nobody@cms.local", "password": "whatever"}

	for i := 0; i < 3; i++ {
		w := app.do(http.MethodPost, "/api/v1/auth/login", body, "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w := app.do(http.MethodPost, "/api/v1/auth/login", body, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusTooManyRequests, decode[response.Problem](t, w).Status)
}
