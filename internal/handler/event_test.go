package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/keepsake/internal/auth"
	"github.com/dukerupert/keepsake/internal/database"
	"github.com/dukerupert/keepsake/internal/model"
	"github.com/dukerupert/keepsake/internal/store"
)

func setupEventHandler(t *testing.T) (*EventHandler, *model.User) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	us := store.NewUserStore(db)
	u, err := us.Create("ada@example.com", "Ada")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	h := NewEventHandler(
		store.NewEventStore(db),
		store.NewMessageStore(db),
		store.NewContributionStore(db),
		slog.Default(),
	)
	return h, u
}

func postJSONAs(t *testing.T, fn http.HandlerFunc, user *model.User, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	req = req.WithContext(auth.WithUser(context.Background(), user))
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func TestEventCreateRequiresTitleAndDate(t *testing.T) {
	h, u := setupEventHandler(t)

	for _, body := range []string{
		`{"event_date":"2026-06-20"}`,
		`{"title":"Wedding"}`,
		`{"title":"  ","event_date":"2026-06-20"}`,
	} {
		rec := postJSONAs(t, h.Create, u, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestEventCreateGeneratesCode(t *testing.T) {
	h, u := setupEventHandler(t)

	rec := postJSONAs(t, h.Create, u, `{"title":"Wedding","event_date":"2026-06-20"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Event model.Event `json:"event"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Event.ShareableCode) != 8 {
		t.Errorf("code = %q, want 8 chars", body.Event.ShareableCode)
	}
	for _, c := range body.Event.ShareableCode {
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9') {
			t.Errorf("code %q contains %q outside lowercase alphanumerics", body.Event.ShareableCode, c)
		}
	}
	if body.Event.UserID != u.ID {
		t.Errorf("user_id = %d, want %d", body.Event.UserID, u.ID)
	}
}

func TestEventCreateDistinctCodes(t *testing.T) {
	h, u := setupEventHandler(t)

	codes := make(map[string]bool)
	for i := 0; i < 5; i++ {
		rec := postJSONAs(t, h.Create, u, `{"title":"Party","event_date":"2026-06-20"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d", rec.Code)
		}
		var body struct {
			Event model.Event `json:"event"`
		}
		json.Unmarshal(rec.Body.Bytes(), &body)
		if codes[body.Event.ShareableCode] {
			t.Fatalf("duplicate code %q", body.Event.ShareableCode)
		}
		codes[body.Event.ShareableCode] = true
	}
}
