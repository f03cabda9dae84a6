package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/provdeck-ai/provdeck/internal/auth"
	"github.com/provdeck-ai/provdeck/internal/config"
	"github.com/provdeck-ai/provdeck/internal/eventbus"
	"github.com/provdeck-ai/provdeck/internal/provider"
	"github.com/provdeck-ai/provdeck/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func setupTestServer(t *testing.T) (*Server, *auth.Service, *store.Store) {
	t.Helper()

	backend := store.NewFileBackend(filepath.Join(t.TempDir(), "providers.json"))
	bus := eventbus.New()
	t.Cleanup(bus.Close)
	st, err := store.Open(context.Background(), backend, store.Options{Bus: bus, Logger: testLogger()})
	if err != nil {
		t.Fatal(err)
	}

	hash, err := auth.HashPassword("testpassword123")
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.Server.JWTSecret = "test-secret-at-least-32-chars-long"
	cfg.Server.AdminPasswordHash = hash
	cfg.Server.RateLimit = config.RateLimit{RequestsPerSecond: 100, Burst: 200}

	authSvc := auth.NewService(cfg.Server)
	srv := NewServer(st, authSvc, bus, cfg, testLogger())
	return srv, authSvc, st
}

func adminToken(t *testing.T, authSvc *auth.Service) string {
	t.Helper()
	token, err := authSvc.Login("admin", "testpassword123")
	if err != nil {
		t.Fatal(err)
	}
	return token
}

// seedClaude inserts a claude profile directly into the store.
func seedClaude(t *testing.T, st *store.Store, name string) *provider.Provider {
	t.Helper()
	p, err := provider.New(provider.AppClaude, provider.Draft{
		Name: name,
		Settings: &provider.Settings{Claude: &provider.ClaudeSettings{
			AuthToken: "sk-ant-seeded-1111",
			BaseURL:   "https://api.example.com",
		}},
	}, st.IDs(provider.AppClaude), time.Now().Unix())
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Add(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	return p
}

// parseJSONResponse decodes the JSON body of the response into the given target.
func parseJSONResponse(t *testing.T, w *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(target); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)
	return w
}

// --- Tests ---

func TestHealthz(t *testing.T) {
	srv, _, _ := setupTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	parseJSONResponse(t, w, &resp)
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %q", resp["status"])
	}
	if _, ok := resp["uptime"]; !ok {
		t.Error("expected uptime field in response")
	}
}

func TestLoginSuccess(t *testing.T) {
	srv, _, _ := setupTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "admin",
		"password": "testpassword123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d; body: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	parseJSONResponse(t, w, &resp)
	if resp["token"] == "" {
		t.Error("expected non-empty token in response")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	srv, _, _ := setupTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "admin",
		"password": "wrongpassword",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}

	var resp map[string]string
	parseJSONResponse(t, w, &resp)
	if resp["error"] != "invalid credentials" {
		t.Errorf("expected 'invalid credentials' error, got %q", resp["error"])
	}
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	srv, _, _ := setupTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/api/providers", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
}

func TestAuthMiddleware_BadToken(t *testing.T) {
	srv, _, _ := setupTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/api/providers", "not-a-real-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
}

func TestCreateAndGetProvider(t *testing.T) {
	srv, authSvc, _ := setupTestServer(t)
	token := adminToken(t, authSvc)

	w := doJSON(t, srv, http.MethodPost, "/api/providers", token, map[string]any{
		"app_type":    "claude",
		"name":        "Open AI Mirror",
		"website_url": "https://mirror.example.com",
		"settings_config": map[string]any{
			"env": map[string]string{
				"ANTHROPIC_AUTH_TOKEN": "sk-ant-api-created",
				"ANTHROPIC_BASE_URL":   "https://mirror.example.com/v1",
			},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d; body: %s", w.Code, w.Body.String())
	}

	var created map[string]any
	parseJSONResponse(t, w, &created)
	if created["id"] != "open-ai-mirror" {
		t.Errorf("expected derived id open-ai-mirror, got %v", created["id"])
	}

	// GET by id returns the full payload, settings included.
	w = doJSON(t, srv, http.MethodGet, "/api/providers/open-ai-mirror", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d; body: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "sk-ant-api-created") {
		t.Error("expected GET by id to include the stored settings payload")
	}
}

func TestCreateProvider_BadAppType(t *testing.T) {
	srv, authSvc, _ := setupTestServer(t)
	token := adminToken(t, authSvc)

	w := doJSON(t, srv, http.MethodPost, "/api/providers", token, map[string]any{
		"app_type": "cursor",
		"name":     "Nope",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d; body: %s", w.Code, w.Body.String())
	}
}

func TestCreateProvider_EmptyName(t *testing.T) {
	srv, authSvc, _ := setupTestServer(t)
	token := adminToken(t, authSvc)

	w := doJSON(t, srv, http.MethodPost, "/api/providers", token, map[string]any{
		"app_type": "claude",
		"name":     "   ",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d; body: %s", w.Code, w.Body.String())
	}
}

func TestListProviders_Masked(t *testing.T) {
	srv, authSvc, st := setupTestServer(t)
	token := adminToken(t, authSvc)
	seedClaude(t, st, "Masked One")

	w := doJSON(t, srv, http.MethodGet, "/api/providers", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	body := w.Body.String()
	if strings.Contains(body, "sk-ant-seeded-1111") {
		t.Error("list response leaked a raw secret")
	}
	if !strings.Contains(body, "sk-a…1111") {
		t.Errorf("expected masked secret in list, got: %s", body)
	}
}

func TestListProviders_ByApp(t *testing.T) {
	srv, authSvc, st := setupTestServer(t)
	token := adminToken(t, authSvc)
	seedClaude(t, st, "Claude Only")

	w := doJSON(t, srv, http.MethodGet, "/api/providers?app=codex", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var result []provider.Summary
	parseJSONResponse(t, w, &result)
	if len(result) != 0 {
		t.Errorf("expected no codex providers, got %d", len(result))
	}

	// The response body must be a JSON array, not null.
	if body := strings.TrimSpace(w.Body.String()); body == "null" {
		t.Error("expected [] but got null")
	}

	w = doJSON(t, srv, http.MethodGet, "/api/providers?app=sublime", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for unknown app, got %d", w.Code)
	}
}

func TestUpdateProvider_PartialEdit(t *testing.T) {
	srv, authSvc, st := setupTestServer(t)
	token := adminToken(t, authSvc)
	p := seedClaude(t, st, "Edit Me")

	w := doJSON(t, srv, http.MethodPut, "/api/providers/"+p.ID, token, map[string]any{
		"name":        "Edited",
		"website_url": "",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d; body: %s", w.Code, w.Body.String())
	}

	got, err := st.Get(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Edited" {
		t.Errorf("Name: got %q, want %q", got.Name, "Edited")
	}
	if got.WebsiteURL != "" {
		t.Errorf("WebsiteURL should be cleared, got %q", got.WebsiteURL)
	}
	// Fields absent from the request keep their stored values.
	if got.Settings.Claude.AuthToken != "sk-ant-seeded-1111" {
		t.Errorf("AuthToken should be untouched, got %q", got.Settings.Claude.AuthToken)
	}
	if got.ID != p.ID {
		t.Errorf("id must not change on edit, got %q", got.ID)
	}
}

func TestUpdateProvider_SortIndexTriState(t *testing.T) {
	srv, authSvc, st := setupTestServer(t)
	token := adminToken(t, authSvc)
	p := seedClaude(t, st, "Sortable")

	// Set.
	w := doJSON(t, srv, http.MethodPut, "/api/providers/"+p.ID, token, map[string]any{"sort_index": 3})
	if w.Code != http.StatusOK {
		t.Fatalf("set: expected status 200, got %d; body: %s", w.Code, w.Body.String())
	}
	got, _ := st.Get(p.ID)
	if got.SortIndex == nil || *got.SortIndex != 3 {
		t.Fatalf("SortIndex: got %v, want 3", got.SortIndex)
	}

	// Absent field keeps the value.
	w = doJSON(t, srv, http.MethodPut, "/api/providers/"+p.ID, token, map[string]any{"notes": "hi"})
	if w.Code != http.StatusOK {
		t.Fatalf("keep: expected status 200, got %d", w.Code)
	}
	got, _ = st.Get(p.ID)
	if got.SortIndex == nil || *got.SortIndex != 3 {
		t.Fatalf("SortIndex after unrelated edit: got %v, want 3", got.SortIndex)
	}

	// Explicit null clears.
	w = doJSON(t, srv, http.MethodPut, "/api/providers/"+p.ID, token, map[string]any{"sort_index": nil})
	if w.Code != http.StatusOK {
		t.Fatalf("clear: expected status 200, got %d; body: %s", w.Code, w.Body.String())
	}
	got, _ = st.Get(p.ID)
	if got.SortIndex != nil {
		t.Fatalf("SortIndex should be cleared, got %v", *got.SortIndex)
	}

	// Junk is rejected.
	w = doJSON(t, srv, http.MethodPut, "/api/providers/"+p.ID, token, map[string]any{"sort_index": "soon"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("junk: expected status 400, got %d", w.Code)
	}
}

func TestUpdateProvider_NotFound(t *testing.T) {
	srv, authSvc, _ := setupTestServer(t)
	token := adminToken(t, authSvc)

	w := doJSON(t, srv, http.MethodPut, "/api/providers/ghost", token, map[string]any{"name": "x"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d; body: %s", w.Code, w.Body.String())
	}
}

func TestActivateAndGetActive(t *testing.T) {
	srv, authSvc, st := setupTestServer(t)
	token := adminToken(t, authSvc)
	p := seedClaude(t, st, "Primary")

	w := doJSON(t, srv, http.MethodPost, "/api/providers/"+p.ID+"/activate", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("activate: expected status 200, got %d; body: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, srv, http.MethodGet, "/api/active?app=claude", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get active: expected status 200, got %d; body: %s", w.Code, w.Body.String())
	}
	var active map[string]any
	parseJSONResponse(t, w, &active)
	if active["id"] != p.ID {
		t.Errorf("active id: got %v, want %q", active["id"], p.ID)
	}
	if active["active"] != true {
		t.Errorf("active flag: got %v, want true", active["active"])
	}
	if body := w.Body.String(); strings.Contains(body, "sk-ant-seeded-1111") {
		t.Error("active summary leaked the raw token")
	}
}

func TestActivate_WrongApp(t *testing.T) {
	srv, authSvc, st := setupTestServer(t)
	token := adminToken(t, authSvc)
	p := seedClaude(t, st, "Claude Thing")

	w := doJSON(t, srv, http.MethodPost, "/api/providers/"+p.ID+"/activate", token,
		map[string]string{"app_type": "codex"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for cross-family activate, got %d; body: %s", w.Code, w.Body.String())
	}
}

func TestGetActive_None(t *testing.T) {
	srv, authSvc, _ := setupTestServer(t)
	token := adminToken(t, authSvc)

	w := doJSON(t, srv, http.MethodGet, "/api/active?app=gemini", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "null" {
		t.Errorf("expected a null body with no active provider, got %q", got)
	}
}

func TestDeleteProvider(t *testing.T) {
	srv, authSvc, st := setupTestServer(t)
	token := adminToken(t, authSvc)
	p := seedClaude(t, st, "Doomed")

	w := doJSON(t, srv, http.MethodDelete, "/api/providers/"+p.ID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d; body: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, srv, http.MethodDelete, "/api/providers/"+p.ID, token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected status 404, got %d", w.Code)
	}
}

func TestCORS_Preflight(t *testing.T) {
	srv, _, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/providers", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 for OPTIONS, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected CORS allow-origin '*', got %q", got)
	}
}

func TestEventsStream(t *testing.T) {
	srv, authSvc, st := setupTestServer(t)
	token := adminToken(t, authSvc)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/events?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial events socket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	seedClaude(t, st, "Watched")

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt eventbus.Event
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if evt.Type != eventbus.ProviderAdded {
		t.Errorf("event type: got %q, want %q", evt.Type, eventbus.ProviderAdded)
	}
	if evt.Provider != "watched" {
		t.Errorf("event provider: got %q, want %q", evt.Provider, "watched")
	}
}

func TestEventsStream_Unauthorized(t *testing.T) {
	srv, _, _ := setupTestServer(t)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/events"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("expected dial to fail without a token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %v", resp)
	}
}
