package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"community-service/configs"
	"community-service/internal/api/response"
	v1 "community-service/internal/api/v1"
	"community-service/internal/config"
	"community-service/internal/models"
	"community-service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requests here are rejected before any service touches the database, so
// the app runs without one.
func newApp(t *testing.T) (*fiber.App, *config.Dependencies) {
	t.Helper()
	logger.InitNopLoggers()
	deps, err := config.NewDependencies(configs.Config{
		JWTSecret:          "test-secret",
		AccessTokenTTL:     time.Hour,
		EncryptionKey:      "test-key",
		UploadDir:          t.TempDir(),
		AllowOrigins:       "*",
		RateLimitPerMinute: 1000,
	}, (*sqlx.DB)(nil), nil)
	require.NoError(t, err)
	return v1.NewApp(deps), deps
}

func token(t *testing.T, deps *config.Dependencies, role models.Role) string {
	t.Helper()
	tok, err := deps.Tokens.Issue(models.Account{ID: 5, Username: "someone", Role: role})
	require.NoError(t, err)
	return tok.Token
}

func send(t *testing.T, app *fiber.App, method, path, bearer, body string) (int, response.Envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env response.Envelope
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	if strings.HasPrefix(buf.String(), "{") {
		require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	}
	return resp.StatusCode, env
}

func TestRequestRejections(t *testing.T) {
	app, deps := newApp(t)
	staff := token(t, deps, models.RoleStaff)
	client := token(t, deps, models.RoleClient)

	tests := []struct {
		name    string
		method  string
		path    string
		bearer  string
		body    string
		status  int
		message string
	}{
		{"malformed json", http.MethodPost, "/api/v1/login", "", `{"username":`, http.StatusBadRequest, ""},
		{"login missing password", http.MethodPost, "/api/v1/login", "", `{"username":"sam"}`, http.StatusBadRequest, "Validation error"},
		{"register bad role", http.MethodPost, "/api/v1/register", "", `{"username":"sam","password":"secret123","role":"owner"}`, http.StatusBadRequest, "Validation error"},
		{"task without token", http.MethodPost, "/api/v1/tasks/client/1", "", `{}`, http.StatusUnauthorized, "No token provided"},
		{"task missing dates", http.MethodPost, "/api/v1/tasks/client/1", staff, `{"service_type":"x"}`, http.StatusBadRequest, "Validation error"},
		{"task bad date", http.MethodPost, "/api/v1/tasks/client/1", staff,
			`{"start_date":"07/01/2030","start_time":"09:00","end_date":"2030-01-07","end_time":"10:00","service_type":"x"}`,
			http.StatusBadRequest, ""},
		{"task id not a number", http.MethodGet, "/api/v1/tasks/abc", staff, "", http.StatusBadRequest, "Invalid id"},
		{"status needs done", http.MethodPatch, "/api/v1/tasks/1/status", staff, `{}`, http.StatusBadRequest, "Validation error"},
		{"client cannot book", http.MethodPost, "/api/v1/tasks/client/1", client,
			`{"start_date":"2030-01-07","start_time":"09:00","end_date":"2030-01-07","end_time":"10:00","service_type":"x"}`,
			http.StatusForbidden, "Not authorized to perform this action!"},
		{"staff cannot list users", http.MethodGet, "/api/v1/users", staff, "", http.StatusForbidden, "Not authorized to perform this action!"},
		{"ws needs upgrade", http.MethodGet, "/api/v1/ws", staff, "", http.StatusUpgradeRequired, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := send(t, app, tt.method, tt.path, tt.bearer, tt.body)
			assert.Equal(t, tt.status, status)
			assert.False(t, env.Success)
			if tt.message != "" {
				assert.Equal(t, tt.message, env.Message)
			}
		})
	}
}

func TestMediaUploadNeedsFile(t *testing.T) {
	app, deps := newApp(t)
	status, env := send(t, app, http.MethodPost, "/api/v1/tasks/1/media", token(t, deps, models.RoleStaff), "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No file uploaded", env.Message)
}
