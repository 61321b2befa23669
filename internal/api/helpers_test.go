package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"memeshare/internal/db"
	"memeshare/internal/models"
	"memeshare/internal/serverconfig"
)

func testConfig(t *testing.T) *serverconfig.Config {
	t.Helper()
	cfg := serverconfig.Default()
	cfg.DBPath = filepath.Join(t.TempDir(), "memeshare-test.db")
	cfg.UploadDir = filepath.Join(t.TempDir(), "uploads")
	cfg.JWTSecret = "test-secret-0123456789abcdef"
	cfg.CORSOrigins = []string{"http://localhost:3000"}
	cfg.Breaker.OpenTimeout = time.Minute
	return cfg
}

// setupTestServer starts the API on a fresh database and registers one user
// whose token is returned.
func setupTestServer(t *testing.T) (*httptest.Server, *sql.DB, string) {
	t.Helper()
	return setupTestServerWithConfig(t, nil)
}

func setupTestServerWithConfig(t *testing.T, tweak func(*serverconfig.Config)) (*httptest.Server, *sql.DB, string) {
	t.Helper()
	cfg := testConfig(t)
	if tweak != nil {
		tweak(cfg)
	}
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(database); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	router, err := NewRouter(database, cfg, nil, "test")
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	srv := httptest.NewServer(router)
	token, _ := registerForTest(t, srv.URL, "alice")
	return srv, database, token
}

func registerForTest(t *testing.T, baseURL, username string) (string, models.User) {
	t.Helper()
	resp := doReq(t, baseURL, "", http.MethodPost, "/api/auth/register", models.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "correct-horse",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s status = %d", username, resp.StatusCode)
	}
	var out models.AuthResponse
	decodeJSON(t, resp, &out)
	if out.Token == "" {
		t.Fatalf("register %s returned no token", username)
	}
	return out.Token, out.User
}

func doReq(t *testing.T, baseURL, token, method, path string, body any) *http.Response {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal req: %v", err)
		}
	}
	req, err := http.NewRequest(method, baseURL+path, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode json: %v", err)
	}
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		var body map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&body)
		_ = resp.Body.Close()
		t.Fatalf("%s %s status = %d, want %d (body %v)", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, want, body)
	}
}

func createMemeForTest(t *testing.T, baseURL, token, title string) models.Meme {
	t.Helper()
	resp := doReq(t, baseURL, token, http.MethodPost, "/api/memes", models.MemeInput{
		Title:    title,
		ImageURL: "https://i.imgflip.com/30b1gx.jpg",
	})
	expectStatus(t, resp, http.StatusCreated)
	var meme models.Meme
	decodeJSON(t, resp, &meme)
	return meme
}
