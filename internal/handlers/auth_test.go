package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cinevisor/cinevisor-api/internal/models"
	"github.com/cinevisor/cinevisor-api/internal/repo"
	"github.com/cinevisor/cinevisor-api/internal/service"
	"github.com/cinevisor/cinevisor-api/internal/tokens"
)

type authTestEnv struct {
	DB      *gorm.DB
	Handler *AuthHandler
	Echo    *echo.Echo
}

func newAuthTestEnv(t *testing.T) *authTestEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	codec := tokens.NewCodec([]byte("test-secret"), time.Hour, 24*time.Hour)
	svc := service.NewAuthService(repo.New(db), codec)
	return &authTestEnv{
		DB:      db,
		Handler: &AuthHandler{Auth: svc},
		Echo:    echo.New(),
	}
}

func (env *authTestEnv) jsonContext(t *testing.T, method, path string, payload any) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, env.Echo.NewContext(req, rec)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func requireHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, code, he.Code)
}

func registerAlice(t *testing.T, env *authTestEnv) {
	t.Helper()
	rec, c := env.jsonContext(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "alice@example.com", "username": "alice", "password": "password",
	})
	require.NoError(t, env.Handler.Register(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func loginAlice(t *testing.T, env *authTestEnv) (accessToken, refreshToken string) {
	t.Helper()
	rec, c := env.jsonContext(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "alice@example.com", "password": "password",
	})
	require.NoError(t, env.Handler.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeEnvelope(t, rec)
	require.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	return data["access_token"].(string), data["refresh_token"].(string)
}

func TestRegisterEndpoint(t *testing.T) {
	env := newAuthTestEnv(t)

	rec, c := env.jsonContext(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "alice@example.com", "username": "alice", "password": "password",
	})
	require.NoError(t, env.Handler.Register(c))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeEnvelope(t, rec)
	require.True(t, resp.Success)
	require.Equal(t, "Registration successful", resp.Message)

	user := resp.Data.(map[string]any)["user"].(map[string]any)
	require.Equal(t, "alice", user["username"])
	require.Equal(t, "user", user["role"])
	require.NotEmpty(t, user["id"])

	// the password hash never leaves the service
	require.NotContains(t, rec.Body.String(), "password")
}

func TestRegisterEndpointValidation(t *testing.T) {
	env := newAuthTestEnv(t)

	_, c := env.jsonContext(t, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice", "password": "password",
	})
	requireHTTPError(t, env.Handler.Register(c), http.StatusBadRequest)

	_, c = env.jsonContext(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "alice@example.com", "username": "alice", "password": "123",
	})
	requireHTTPError(t, env.Handler.Register(c), http.StatusBadRequest)
}

func TestRegisterEndpointDuplicate(t *testing.T) {
	env := newAuthTestEnv(t)
	registerAlice(t, env)

	_, c := env.jsonContext(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "alice@example.com", "username": "alice2", "password": "password",
	})
	requireHTTPError(t, env.Handler.Register(c), http.StatusBadRequest)
}

func TestLoginEndpoint(t *testing.T) {
	env := newAuthTestEnv(t)
	registerAlice(t, env)

	access, refresh := loginAlice(t, env)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
}

func TestLoginEndpointBadCredentials(t *testing.T) {
	env := newAuthTestEnv(t)
	registerAlice(t, env)

	_, c := env.jsonContext(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "alice@example.com", "password": "wrong",
	})
	requireHTTPError(t, env.Handler.Login(c), http.StatusUnauthorized)

	_, c = env.jsonContext(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "ghost@example.com", "password": "password",
	})
	requireHTTPError(t, env.Handler.Login(c), http.StatusUnauthorized)
}

func TestRefreshEndpoint(t *testing.T) {
	env := newAuthTestEnv(t)
	registerAlice(t, env)
	access, refresh := loginAlice(t, env)

	rec, c := env.jsonContext(t, http.MethodPost, "/api/auth/refresh", map[string]string{
		"refresh_token": refresh,
	})
	require.NoError(t, env.Handler.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeEnvelope(t, rec)
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.Data.(map[string]any)["access_token"])

	// an access token is not accepted in the refresh slot
	_, c = env.jsonContext(t, http.MethodPost, "/api/auth/refresh", map[string]string{
		"refresh_token": access,
	})
	requireHTTPError(t, env.Handler.Refresh(c), http.StatusUnauthorized)
}

func TestLogoutEndpoint(t *testing.T) {
	env := newAuthTestEnv(t)
	registerAlice(t, env)
	_, refresh := loginAlice(t, env)

	rec, c := env.jsonContext(t, http.MethodPost, "/api/auth/logout", map[string]string{
		"refresh_token": refresh,
	})
	require.NoError(t, env.Handler.Logout(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, decodeEnvelope(t, rec).Success)

	// the revoked token no longer refreshes
	_, c = env.jsonContext(t, http.MethodPost, "/api/auth/refresh", map[string]string{
		"refresh_token": refresh,
	})
	requireHTTPError(t, env.Handler.Refresh(c), http.StatusUnauthorized)

	// logout without a body still succeeds
	rec, c = env.jsonContext(t, http.MethodPost, "/api/auth/logout", map[string]string{})
	require.NoError(t, env.Handler.Logout(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMeEndpoint(t *testing.T) {
	env := newAuthTestEnv(t)
	registerAlice(t, env)

	var user models.User
	require.NoError(t, env.DB.Where("username = ?", "alice").First(&user).Error)

	rec, c := env.jsonContext(t, http.MethodGet, "/api/auth/me", nil)
	c.Set("user", &user)
	require.NoError(t, env.Handler.Me(c))
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeEnvelope(t, rec).Data.(map[string]any)
	require.Equal(t, user.ID, data["id"])
	require.Equal(t, "alice@example.com", data["email"])
}

func TestForgotAndResetPasswordEndpoints(t *testing.T) {
	env := newAuthTestEnv(t)
	registerAlice(t, env)

	rec, c := env.jsonContext(t, http.MethodPost, "/api/auth/forgot-password", map[string]string{
		"email": "alice@example.com",
	})
	require.NoError(t, env.Handler.ForgotPassword(c))
	known := decodeEnvelope(t, rec).Message

	// unknown email gets the identical answer
	rec, c = env.jsonContext(t, http.MethodPost, "/api/auth/forgot-password", map[string]string{
		"email": "ghost@example.com",
	})
	require.NoError(t, env.Handler.ForgotPassword(c))
	require.Equal(t, known, decodeEnvelope(t, rec).Message)

	var reset models.PasswordReset
	require.NoError(t, env.DB.Where("email = ?", "alice@example.com").First(&reset).Error)

	rec, c = env.jsonContext(t, http.MethodPost, "/api/auth/reset-password", map[string]string{
		"token": reset.Token, "new_password": "new-password",
	})
	require.NoError(t, env.Handler.ResetPassword(c))
	require.Equal(t, http.StatusOK, rec.Code)

	_, c = env.jsonContext(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "alice@example.com", "password": "new-password",
	})
	require.NoError(t, env.Handler.Login(c))

	// reused token is rejected
	_, c = env.jsonContext(t, http.MethodPost, "/api/auth/reset-password", map[string]string{
		"token": reset.Token, "new_password": "another",
	})
	requireHTTPError(t, env.Handler.ResetPassword(c), http.StatusBadRequest)
}
