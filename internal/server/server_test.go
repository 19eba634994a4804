package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/test", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Backend OK", decode[map[string]string](t, resp)["message"])

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[struct {
		Status string
		Checks map[string]string
	}](t, resp)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "disabled", body.Checks["redis"])
	assert.Equal(t, "healthy", body.Checks["storage"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "metrics")

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(readBody(t, resp)), "inkwell_auth_events_total")
}

func TestUnknownRouteAndUpload(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, models.CodeNotFound, decode[models.ErrorResponse](t, resp).Code)

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/uploads/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/uploads/..%2Fsecret", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/post", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	resp := env.do(t, req)

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	assert.True(t, strings.Contains(resp.Header.Get("Access-Control-Allow-Methods"), "PUT"))

	req = httptest.NewRequest(http.MethodOptions, "/post", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp = env.do(t, req)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestBodyLimit(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signUp(t, "alice")

	big := make([]byte, 3*1024*1024)
	req := multipartRequest(t, http.MethodPost, "/post", map[string]string{"title": "big"},
		&filePart{name: "big.png", content: big})
	resp, err := env.app.Test(withSession(req, token), -1)
	if err == nil {
		assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	}
	assert.Empty(t, env.uploadedFiles(t))
}
