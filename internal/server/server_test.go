package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"realsociety/internal/ai"
	"realsociety/internal/app"
	"realsociety/internal/domain"
	"realsociety/internal/store"
	"realsociety/internal/token"
)

type testEnv struct {
	srv    *httptest.Server
	tokens *token.Issuer
}

func newTestEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()
	issuer, err := token.NewIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	core, err := app.New(app.Config{
		Store:     store.NewMemoryStore(),
		Tokens:    issuer,
		Assistant: ai.NewAssistant(&ai.MockProvider{TextReply: "mock reply"}),
	})
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	cfg := Config{App: core, Tokens: issuer}
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, tokens: issuer}
}

func (e *testEnv) do(t *testing.T, method, path, bearer string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var payload map[string]json.RawMessage
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	return resp, payload
}

func (e *testEnv) signup(t *testing.T, email string) string {
	t.Helper()
	resp, payload := e.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": email, "password": "pw", "name": "Test User",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup %s: status %d", email, resp.StatusCode)
	}
	var signed string
	if err := json.Unmarshal(payload["token"], &signed); err != nil || signed == "" {
		t.Fatalf("signup returned no token: %v", err)
	}
	return signed
}

func TestSignupLoginAndNoteFlow(t *testing.T) {
	env := newTestEnv(t, nil)

	env.signup(t, "alice@example.com")

	resp, payload := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "pw",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: status %d", resp.StatusCode)
	}
	var bearer string
	if err := json.Unmarshal(payload["token"], &bearer); err != nil {
		t.Fatalf("login token: %v", err)
	}

	resp, _ = env.do(t, http.MethodGet, "/api/notes", bearer, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list notes: status %d", resp.StatusCode)
	}

	resp, _ = env.do(t, http.MethodPost, "/api/notes", bearer, map[string]any{
		"title": "T", "content": "hello",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create note: status %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/api/notes", nil)
	req.Header.Set("Authorization", "Bearer "+bearer)
	listResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("list notes: %v", err)
	}
	defer listResp.Body.Close()
	var notes []domain.Note
	if err := json.NewDecoder(listResp.Body).Decode(&notes); err != nil {
		t.Fatalf("decode notes: %v", err)
	}
	if len(notes) != 1 || notes[0].Title != "T" {
		t.Fatalf("notes = %+v, want one titled T", notes)
	}
}

func TestAuthenticatedRouteStatuses(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.do(t, http.MethodGet, "/api/user/profile", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token: status %d, want 401", resp.StatusCode)
	}

	resp, _ = env.do(t, http.MethodGet, "/api/user/profile", "not-a-token", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("garbage token: status %d, want 403", resp.StatusCode)
	}

	bearer := env.signup(t, "alice@example.com")
	resp, _ = env.do(t, http.MethodGet, "/api/user/profile", bearer, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("valid token: status %d, want 200", resp.StatusCode)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	env := newTestEnv(t, nil)
	bearer := env.signup(t, "alice@example.com")

	for _, path := range []string{"/api/admin/users", "/api/admin/stats"} {
		resp, _ := env.do(t, http.MethodGet, path, bearer, nil)
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("GET %s as user: status %d, want 403", path, resp.StatusCode)
		}
	}

	// role comes from the signed token
	adminToken, err := env.tokens.Issue(domain.User{ID: 1, Email: "alice@example.com", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("issue admin token: %v", err)
	}
	resp, _ := env.do(t, http.MethodGet, "/api/admin/users", adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/admin/users as admin: status %d", resp.StatusCode)
	}
	resp, _ = env.do(t, http.MethodGet, "/api/admin/stats", adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/admin/stats as admin: status %d", resp.StatusCode)
	}
}

func TestDeleteNoteStatusMapping(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.signup(t, "alice@example.com")
	bob := env.signup(t, "bob@example.com")

	resp, payload := env.do(t, http.MethodPost, "/api/notes", alice, map[string]any{
		"title": "T", "content": "c",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create note: status %d", resp.StatusCode)
	}
	var noteID uint
	if err := json.Unmarshal(payload["id"], &noteID); err != nil {
		t.Fatalf("note id: %v", err)
	}

	resp, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/api/notes/%d", noteID), bob, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign delete: status %d, want 403", resp.StatusCode)
	}
	resp, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/api/notes/%d", noteID+100), alice, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing delete: status %d, want 404", resp.StatusCode)
	}
	resp, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/api/notes/%d", noteID), alice, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner delete: status %d, want 200", resp.StatusCode)
	}
}

func TestSecretNoteUnlockOverHTTP(t *testing.T) {
	env := newTestEnv(t, nil)
	bearer := env.signup(t, "alice@example.com")

	resp, payload := env.do(t, http.MethodPost, "/api/notes", bearer, map[string]any{
		"title": "S", "content": "hidden", "is_secret": true, "password": "open-sesame",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create secret note: status %d", resp.StatusCode)
	}
	var noteID uint
	if err := json.Unmarshal(payload["id"], &noteID); err != nil {
		t.Fatalf("note id: %v", err)
	}
	if _, ok := payload["content"]; ok {
		t.Fatal("secret note response leaked content")
	}

	resp, _ = env.do(t, http.MethodPost, fmt.Sprintf("/api/notes/%d/unlock", noteID), bearer, map[string]string{"password": "wrong"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("wrong password: status %d, want 403", resp.StatusCode)
	}

	resp, payload = env.do(t, http.MethodPost, fmt.Sprintf("/api/notes/%d/unlock", noteID), bearer, map[string]string{"password": "open-sesame"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unlock: status %d", resp.StatusCode)
	}
	var content string
	if err := json.Unmarshal(payload["content"], &content); err != nil || content != "hidden" {
		t.Fatalf("unlocked content = %q (%v), want hidden", content, err)
	}
}

func TestAIChatEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	bearer := env.signup(t, "alice@example.com")

	resp, payload := env.do(t, http.MethodPost, "/api/ai/chat", bearer, map[string]any{
		"prompt": "hello",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chat: status %d", resp.StatusCode)
	}
	var reply string
	if err := json.Unmarshal(payload["reply"], &reply); err != nil || reply != "mock reply" {
		t.Fatalf("reply = %q (%v)", reply, err)
	}

	resp, _ = env.do(t, http.MethodPost, "/api/ai/chat", bearer, map[string]any{"prompt": ""})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty prompt: status %d, want 400", resp.StatusCode)
	}
}

func TestSignupRateLimit(t *testing.T) {
	redis := miniredis.RunT(t)
	env := newTestEnv(t, func(cfg *Config) {
		cfg.RedisAddr = redis.Addr()
		cfg.SignupRateLimitPerMin = 2
	})

	for i := 0; i < 2; i++ {
		resp, _ := env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
			"email": fmt.Sprintf("user%d@example.com", i), "password": "pw", "name": "U",
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("signup #%d: status %d", i+1, resp.StatusCode)
		}
	}
	resp, _ := env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "user3@example.com", "password": "pw", "name": "U",
	})
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("signup over limit: status %d, want 429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Fatal("missing Retry-After header")
	}
}

func TestDuplicateEmailConflict(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signup(t, "dup@example.com")
	resp, _ := env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "dup@example.com", "password": "pw", "name": "Again",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate signup: status %d, want 409", resp.StatusCode)
	}
}

func TestProfileUpdateAcceptsEmptyName(t *testing.T) {
	env := newTestEnv(t, nil)
	bearer := env.signup(t, "alice@example.com")

	resp, payload := env.do(t, http.MethodPut, "/api/user/profile", bearer, map[string]string{
		"name": "",
		"bio":  "gardener",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT profile with empty name: status %d, want 200", resp.StatusCode)
	}
	var name string
	if err := json.Unmarshal(payload["name"], &name); err != nil || name != "" {
		t.Fatalf("name = %q (%v), want empty", name, err)
	}
	var bio string
	if err := json.Unmarshal(payload["bio"], &bio); err != nil || bio != "gardener" {
		t.Fatalf("bio = %q (%v), want gardener", bio, err)
	}
}

func TestVideosResponseShape(t *testing.T) {
	env := newTestEnv(t, nil)
	bearer := env.signup(t, "alice@example.com")

	if resp, _ := env.do(t, http.MethodPut, "/api/user/profile", bearer, map[string]string{
		"name":            "Alice",
		"youtube_channel": "@alice",
	}); resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT profile: status %d", resp.StatusCode)
	}

	resp, payload := env.do(t, http.MethodGet, "/api/youtube/videos", bearer, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET videos: status %d", resp.StatusCode)
	}
	raw, ok := payload["isMock"]
	if !ok {
		t.Fatalf("response missing isMock key: %v", payload)
	}
	var isMock bool
	if err := json.Unmarshal(raw, &isMock); err != nil {
		t.Fatalf("decode isMock: %v", err)
	}
	if !isMock {
		t.Fatal("expected mock feed without a YouTube API key")
	}
	if _, ok := payload["videos"]; !ok {
		t.Fatal("response missing videos key")
	}
}
