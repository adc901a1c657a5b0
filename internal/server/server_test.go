package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/keepsake/internal/config"
	"github.com/dukerupert/keepsake/internal/database"
	"github.com/dukerupert/keepsake/internal/logging"
)

func setupTestServer(t *testing.T) http.Handler {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{
		Port:         "0",
		DBPath:       ":memory:",
		BaseURL:      "http://localhost:8080",
		AuthDelivery: config.DeliveryInline,
	}
	return New(db, cfg, logging.Setup("error")).Router()
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

// signIn walks the magic-link flow with inline delivery and returns a
// session token.
func signIn(t *testing.T, router http.Handler, email, name string) string {
	t.Helper()
	rec, body := doJSON(t, router, "POST", "/auth/magic-link", "", map[string]string{"email": email, "name": name})
	if rec.Code != http.StatusOK {
		t.Fatalf("magic-link status = %d: %s", rec.Code, rec.Body.String())
	}
	devToken, _ := body["dev_token"].(string)
	if devToken == "" {
		t.Fatal("expected dev_token with inline delivery")
	}

	rec, body = doJSON(t, router, "POST", "/auth/verify", "", map[string]string{"token": devToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d: %s", rec.Code, rec.Body.String())
	}
	sessionToken, _ := body["session_token"].(string)
	if sessionToken == "" {
		t.Fatal("expected session_token")
	}
	return sessionToken
}

func TestFullGuestbookFlow(t *testing.T) {
	router := setupTestServer(t)

	token := signIn(t, router, "ada@example.com", "Ada")

	// Who am I?
	rec, body := doJSON(t, router, "GET", "/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d", rec.Code)
	}
	user := body["user"].(map[string]any)
	if user["email"] != "ada@example.com" {
		t.Errorf("email = %v", user["email"])
	}

	// Create an event.
	rec, body = doJSON(t, router, "POST", "/events", token, map[string]any{
		"title":      "Wedding",
		"event_date": "2026-06-20",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create event status = %d: %s", rec.Code, rec.Body.String())
	}
	event := body["event"].(map[string]any)
	code := event["shareable_code"].(string)
	eventID := int64(event["id"].(float64))
	if len(code) != 8 {
		t.Errorf("code length = %d, want 8", len(code))
	}

	// A guest signs the guestbook through the public endpoints.
	rec, _ = doJSON(t, router, "POST", "/messages", "", map[string]any{
		"event_id":   eventID,
		"guest_name": "Grace",
		"body":       "Congratulations!",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create message status = %d: %s", rec.Code, rec.Body.String())
	}

	rec, _ = doJSON(t, router, "POST", "/contributions", "", map[string]any{
		"event_id": eventID,
		"amount":   25.5,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create contribution status = %d: %s", rec.Code, rec.Body.String())
	}

	// Public view: messages visible, no timestamps leaked.
	rec, body = doJSON(t, router, "GET", "/events/"+code, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("public event status = %d", rec.Code)
	}
	pubEvent := body["event"].(map[string]any)
	if pubEvent["creator_name"] != "Ada" {
		t.Errorf("creator_name = %v, want Ada", pubEvent["creator_name"])
	}
	messages := body["messages"].([]any)
	if len(messages) != 1 {
		t.Fatalf("public messages = %d, want 1", len(messages))
	}
	if _, hasTimestamp := messages[0].(map[string]any)["created_at"]; hasTimestamp {
		t.Error("public message should not carry a timestamp")
	}

	// Creator detail includes contributions and totals.
	rec, body = doJSON(t, router, "GET", "/events/creator/"+itoa(eventID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("creator detail status = %d: %s", rec.Code, rec.Body.String())
	}
	if total := body["total_contributions"].(float64); total != 25.5 {
		t.Errorf("total = %v, want 25.5", total)
	}

	// Creator list aggregates.
	rec, body = doJSON(t, router, "GET", "/events/creator/list", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("creator list status = %d", rec.Code)
	}
	events := body["events"].([]any)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	summary := events[0].(map[string]any)
	if summary["message_count"].(float64) != 1 {
		t.Errorf("message_count = %v, want 1", summary["message_count"])
	}

	// Logout kills the session; me is now a 401.
	rec, _ = doJSON(t, router, "POST", "/auth/logout", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}
	rec, _ = doJSON(t, router, "GET", "/auth/me", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("me after logout = %d, want 401", rec.Code)
	}

	// Logout again: still a success.
	rec, body = doJSON(t, router, "POST", "/auth/logout", token, nil)
	if rec.Code != http.StatusOK || body["success"] != true {
		t.Errorf("repeat logout = %d %v, want 200 success", rec.Code, body)
	}
}

func TestMagicTokenSingleUseOverHTTP(t *testing.T) {
	router := setupTestServer(t)

	rec, body := doJSON(t, router, "POST", "/auth/magic-link", "", map[string]string{"email": "ada@example.com", "name": "Ada"})
	if rec.Code != http.StatusOK {
		t.Fatalf("magic-link status = %d", rec.Code)
	}
	devToken := body["dev_token"].(string)

	rec, _ = doJSON(t, router, "POST", "/auth/verify", "", map[string]string{"token": devToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("first verify status = %d", rec.Code)
	}

	rec, body = doJSON(t, router, "POST", "/auth/verify", "", map[string]string{"token": devToken})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("second verify status = %d, want 401", rec.Code)
	}
	if !strings.Contains(body["error"].(string), "invalid or expired") {
		t.Errorf("error = %v", body["error"])
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router := setupTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{"GET", "/auth/me"},
		{"POST", "/events"},
		{"GET", "/events/creator/list"},
		{"GET", "/events/creator/1"},
	} {
		rec, _ := doJSON(t, router, tc.method, tc.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s = %d, want 401", tc.method, tc.path, rec.Code)
		}
	}
}

func TestCreatorDetailHidesForeignEvents(t *testing.T) {
	router := setupTestServer(t)

	ownerToken := signIn(t, router, "ada@example.com", "Ada")
	otherToken := signIn(t, router, "bob@example.com", "Bob")

	rec, body := doJSON(t, router, "POST", "/events", ownerToken, map[string]any{
		"title":      "Private party",
		"event_date": "2026-07-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create event status = %d", rec.Code)
	}
	eventID := int64(body["event"].(map[string]any)["id"].(float64))

	rec, _ = doJSON(t, router, "GET", "/events/creator/"+itoa(eventID), otherToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign creator detail = %d, want 404", rec.Code)
	}
}

func TestPublicEventUnknownCode(t *testing.T) {
	router := setupTestServer(t)

	rec, _ := doJSON(t, router, "GET", "/events/zzzzzzzz", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown code = %d, want 404", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	router := setupTestServer(t)

	rec, body := doJSON(t, router, "GET", "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health = %d", rec.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
}

// TestLiveFeedUpgrade dials /ws through the full router, logging
// middleware included, so a wrapper that hides the hijacker from the
// upgrade would fail here.
func TestLiveFeedUpgrade(t *testing.T) {
	router := setupTestServer(t)
	ts := httptest.NewServer(router)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := ws.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial /ws: %v", err)
	}
	defer conn.Close(ws.StatusNormalClosure, "")

	token := signIn(t, router, "ada@example.com", "Ada")
	rec, body := doJSON(t, router, "POST", "/events", token, map[string]any{
		"title":      "Launch party",
		"event_date": "2026-09-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create event = %d: %s", rec.Code, rec.Body.String())
	}
	event := body["event"].(map[string]any)
	eventID := int64(event["id"].(float64))

	rec, _ = doJSON(t, router, "POST", "/messages", "", map[string]any{
		"event_id": eventID,
		"body":     "congrats!",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create message = %d: %s", rec.Code, rec.Body.String())
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal broadcast: %v", err)
	}
	if msg["type"] != "message_created" {
		t.Errorf("type = %v, want message_created", msg["type"])
	}
	if int64(msg["event_id"].(float64)) != eventID {
		t.Errorf("event_id = %v, want %d", msg["event_id"], eventID)
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
