package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"inkwell/internal/auth"
	"inkwell/internal/bootstrap"
	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-that-is-at-least-32-characters"

type testEnv struct {
	srv       *Server
	app       *fiber.App
	rt        *bootstrap.Runtime
	uploadDir string
}

// newTestEnv builds a server over a fresh SQLite file and a local upload dir.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	db, err := database.Connect(&config.Config{
		DBDriver:   config.DriverSQLite,
		SQLitePath: filepath.Join(dir, "inkwell.db"),
	})
	require.NoError(t, err)

	uploadDir := filepath.Join(dir, "uploads")
	store, err := storage.NewLocalStorage(uploadDir)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:             "test",
		JWTSecret:       testSecret,
		BcryptCost:      bcrypt.MinCost,
		MaxUploadSizeMB: 2,
		AllowedOrigins:  "http://localhost:5173",
		StorageBackend:  config.StorageLocal,
		UploadDir:       uploadDir,
	}

	rt := bootstrap.NewSQLRuntime(db, store)
	srv, err := NewServerWithDeps(cfg, rt)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
		cache.SetClient(nil)
	})

	return &testEnv{srv: srv, app: srv.NewApp(), rt: rt, uploadDir: uploadDir}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func jsonRequest(method, path string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type filePart struct {
	name    string
	content []byte
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, file *filePart) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		fw, err := w.CreateFormFile("file", file.name)
		require.NoError(t, err)
		_, err = fw.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func withSession(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	return req
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return b
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	return nil
}

type userBody struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// signUp registers and logs in, returning the user id and session token.
func (e *testEnv) signUp(t *testing.T, username string) (string, string) {
	t.Helper()
	resp := e.do(t, jsonRequest(http.MethodPost, "/register", map[string]string{
		"username": username, "password": "pw-" + username,
	}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	registered := decode[struct{ User userBody }](t, resp)

	resp = e.do(t, jsonRequest(http.MethodPost, "/login", map[string]string{
		"username": username, "password": "pw-" + username,
	}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	return registered.User.ID, cookie.Value
}

func (e *testEnv) uploadedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(e.uploadDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n fake image body")
