package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cinevisor/cinevisor-api/internal/models"
)

type testEnv struct {
	DB   *gorm.DB
	Echo *echo.Echo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return &testEnv{DB: db, Echo: echo.New()}
}

// request builds a context with an optional JSON body, an optional
// authenticated user, and path params.
func (env *testEnv) request(t *testing.T, method, path string, payload any, user *models.User, params ...string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	var req *http.Request
	if payload != nil {
		body, err := json.Marshal(payload)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	c := env.Echo.NewContext(req, rec)
	if user != nil {
		c.Set("user", user)
	}
	if len(params) > 0 {
		names := make([]string, 0, len(params)/2)
		values := make([]string, 0, len(params)/2)
		for i := 0; i+1 < len(params); i += 2 {
			names = append(names, params[i])
			values = append(values, params[i+1])
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	return rec, c
}

func (env *testEnv) seedUser(t *testing.T, username string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, env.DB.Create(u).Error)
	return u
}

func (env *testEnv) seedVideo(t *testing.T, owner *models.User, title string, status models.VideoStatus) *models.Video {
	t.Helper()
	v := &models.Video{
		OwnerID: owner.ID,
		Title:   title,
		Type:    "ai",
		Status:  status,
	}
	require.NoError(t, env.DB.Create(v).Error)
	return v
}

func envelopeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "expected object data, got %T", resp.Data)
	return data
}
