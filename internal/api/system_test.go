package api

import (
	"net/http"
	"testing"

	"memeshare/internal/db"
	"memeshare/internal/models"
)

func TestStatusAndMe(t *testing.T) {
	server, database, token := setupTestServer(t)
	defer server.Close()
	defer database.Close()

	createMemeForTest(t, server.URL, token, "status meme")

	status := doReq(t, server.URL, "", http.MethodGet, "/api/status", nil)
	if status.StatusCode != http.StatusOK {
		t.Fatalf("status endpoint returned %d", status.StatusCode)
	}
	var statusPayload struct {
		Status    string `json:"status"`
		Version   string `json:"version"`
		Schema    int    `json:"schema"`
		Timestamp string `json:"timestamp"`
		Health    struct {
			Database string `json:"database"`
			Breaker  string `json:"breaker"`
		} `json:"health"`
		Stats struct {
			Catalog models.CatalogStats `json:"catalog"`
			Server  struct {
				UptimeSeconds int64  `json:"uptime_seconds"`
				CurrentTime   string `json:"current_time"`
			} `json:"server"`
		} `json:"stats"`
	}
	decodeJSON(t, status, &statusPayload)
	if statusPayload.Status != "ok" || statusPayload.Version != "test" || statusPayload.Timestamp == "" {
		t.Fatalf("missing status fields: %+v", statusPayload)
	}
	if statusPayload.Schema != db.LatestVersion() {
		t.Fatalf("expected schema %d, got %d", db.LatestVersion(), statusPayload.Schema)
	}
	if statusPayload.Health.Database != "ok" || statusPayload.Health.Breaker != "closed" {
		t.Fatalf("unexpected health payload: %+v", statusPayload.Health)
	}
	if statusPayload.Stats.Catalog.Users != 1 || statusPayload.Stats.Catalog.Memes != 1 {
		t.Fatalf("unexpected catalog stats: %+v", statusPayload.Stats.Catalog)
	}
	if statusPayload.Stats.Server.UptimeSeconds < 0 || statusPayload.Stats.Server.CurrentTime == "" {
		t.Fatalf("unexpected server stats payload: %+v", statusPayload.Stats.Server)
	}

	meUnauthorized := doReq(t, server.URL, "", http.MethodGet, "/api/auth/me", nil)
	if meUnauthorized.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me without auth returned %d", meUnauthorized.StatusCode)
	}
	_ = meUnauthorized.Body.Close()

	meBadToken := doReq(t, server.URL, "not-a-jwt", http.MethodGet, "/api/memes", nil)
	if meBadToken.StatusCode != http.StatusUnauthorized {
		t.Fatalf("invalid token returned %d, want 401 even on public routes", meBadToken.StatusCode)
	}
	_ = meBadToken.Body.Close()

	me := doReq(t, server.URL, token, http.MethodGet, "/api/auth/me", nil)
	if me.StatusCode != http.StatusOK {
		t.Fatalf("me with auth returned %d", me.StatusCode)
	}
	var mePayload struct {
		User models.User `json:"user"`
	}
	decodeJSON(t, me, &mePayload)
	if mePayload.User.Username != "alice" {
		t.Fatalf("me returned %+v", mePayload.User)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	server, database, _ := setupTestServer(t)
	defer server.Close()
	defer database.Close()

	dup := doReq(t, server.URL, "", http.MethodPost, "/api/auth/register", models.RegisterInput{
		Username: "Alice",
		Email:    "other@example.com",
		Password: "correct-horse",
	})
	if dup.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate username returned %d", dup.StatusCode)
	}
	_ = dup.Body.Close()

	invalid := doReq(t, server.URL, "", http.MethodPost, "/api/auth/register", models.RegisterInput{
		Username: "bo",
		Email:    "not-an-email",
		Password: "short",
	})
	if invalid.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid register returned %d", invalid.StatusCode)
	}
	var verr struct {
		Error  string `json:"error"`
		Fields []struct {
			Field string `json:"field"`
		} `json:"fields"`
	}
	decodeJSON(t, invalid, &verr)
	if len(verr.Fields) != 3 {
		t.Fatalf("expected three field errors, got %+v", verr)
	}

	bad := doReq(t, server.URL, "", http.MethodPost, "/api/auth/login", models.LoginInput{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	if bad.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong password returned %d", bad.StatusCode)
	}
	_ = bad.Body.Close()

	good := doReq(t, server.URL, "", http.MethodPost, "/api/auth/login", models.LoginInput{
		Email:    "ALICE@example.com",
		Password: "correct-horse",
	})
	if good.StatusCode != http.StatusOK {
		t.Fatalf("login returned %d", good.StatusCode)
	}
	var auth models.AuthResponse
	decodeJSON(t, good, &auth)
	if auth.Token == "" || auth.User.Username != "alice" {
		t.Fatalf("unexpected login payload %+v", auth)
	}
}

func TestUnknownRouteReturnsJSONError(t *testing.T) {
	server, database, _ := setupTestServer(t)
	defer server.Close()
	defer database.Close()

	resp := doReq(t, server.URL, "", http.MethodGet, "/api/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown route returned %d", resp.StatusCode)
	}
	var payload map[string]string
	decodeJSON(t, resp, &payload)
	if payload["error"] != "not found" {
		t.Fatalf("unexpected payload %v", payload)
	}
}
