package store

import (
	"testing"
	"time"

	"github.com/dukerupert/keepsake/internal/database"
	"github.com/dukerupert/keepsake/internal/token"
)

func setupUserTestDB(t *testing.T) *UserStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db)
}

func issueToken(t *testing.T, us *UserStore, userID int64, ttl time.Duration) string {
	t.Helper()
	tok, err := token.MagicToken()
	if err != nil {
		t.Fatalf("generate magic token: %v", err)
	}
	if err := us.SetMagicToken(userID, tok, time.Now().Add(ttl)); err != nil {
		t.Fatalf("set magic token: %v", err)
	}
	return tok
}

func TestUserCreate(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.Create("ada@example.com", "Ada")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Email != "ada@example.com" {
		t.Errorf("email = %q, want %q", u.Email, "ada@example.com")
	}
	if u.Name != "Ada" {
		t.Errorf("name = %q, want %q", u.Name, "Ada")
	}
	if u.MagicToken != nil {
		t.Errorf("magic token = %v, want nil", *u.MagicToken)
	}
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	us := setupUserTestDB(t)

	if _, err := us.Create("ada@example.com", "Ada"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := us.Create("ada@example.com", "Other"); err == nil {
		t.Error("expected error for duplicate email")
	}
}

func TestUserCreateWithMagicToken(t *testing.T) {
	us := setupUserTestDB(t)

	tok, _ := token.MagicToken()
	u, err := us.CreateWithMagicToken("ada@example.com", "Ada", tok, time.Now().Add(15*time.Minute))
	if err != nil {
		t.Fatalf("create user with token: %v", err)
	}
	if u.MagicToken == nil || *u.MagicToken != tok {
		t.Errorf("magic token = %v, want %q", u.MagicToken, tok)
	}
	if u.MagicTokenExpiresAt == nil {
		t.Error("expected non-nil expiry")
	}
}

func TestUserGetByEmail(t *testing.T) {
	us := setupUserTestDB(t)

	created, _ := us.Create("ada@example.com", "Ada")

	u, err := us.GetByEmail("ada@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if u == nil || u.ID != created.ID {
		t.Fatalf("got %+v, want user %d", u, created.ID)
	}

	missing, err := us.GetByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown email")
	}
}

func TestConsumeMagicToken(t *testing.T) {
	us := setupUserTestDB(t)

	created, _ := us.Create("ada@example.com", "Ada")
	tok := issueToken(t, us, created.ID, 15*time.Minute)

	u, err := us.ConsumeMagicToken(tok)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if u == nil {
		t.Fatal("expected user, got nil")
	}
	if u.ID != created.ID {
		t.Errorf("id = %d, want %d", u.ID, created.ID)
	}

	// The token is cleared on the row.
	reloaded, _ := us.GetByID(created.ID)
	if reloaded.MagicToken != nil {
		t.Errorf("magic token = %v, want nil after consume", *reloaded.MagicToken)
	}
}

func TestConsumeMagicTokenSingleUse(t *testing.T) {
	us := setupUserTestDB(t)

	created, _ := us.Create("ada@example.com", "Ada")
	tok := issueToken(t, us, created.ID, 15*time.Minute)

	if u, _ := us.ConsumeMagicToken(tok); u == nil {
		t.Fatal("first consume should succeed")
	}

	// Second consume must fail: the clear is conditional on the token
	// value, so even a racing duplicate request gets nil here.
	u, err := us.ConsumeMagicToken(tok)
	if err != nil {
		t.Fatalf("second consume: %v", err)
	}
	if u != nil {
		t.Error("expected nil on second consume of the same token")
	}
}

func TestConsumeMagicTokenExpired(t *testing.T) {
	us := setupUserTestDB(t)

	created, _ := us.Create("ada@example.com", "Ada")
	tok := issueToken(t, us, created.ID, -time.Minute)

	u, err := us.ConsumeMagicToken(tok)
	if err != nil {
		t.Fatalf("consume expired: %v", err)
	}
	if u != nil {
		t.Error("expected nil for expired token, even though it is still stored")
	}

	// The expired token stays on the row; only a successful consume or a
	// reissue clears it.
	reloaded, _ := us.GetByID(created.ID)
	if reloaded.MagicToken == nil {
		t.Error("expired token should remain stored")
	}
}

func TestConsumeMagicTokenUnknown(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.ConsumeMagicToken("no-such-token")
	if err != nil {
		t.Fatalf("consume unknown: %v", err)
	}
	if u != nil {
		t.Error("expected nil for unknown token")
	}
}

func TestReissueInvalidatesPreviousToken(t *testing.T) {
	us := setupUserTestDB(t)

	created, _ := us.Create("ada@example.com", "Ada")
	first := issueToken(t, us, created.ID, 15*time.Minute)
	second := issueToken(t, us, created.ID, 15*time.Minute)

	if u, _ := us.ConsumeMagicToken(first); u != nil {
		t.Error("superseded token should not verify")
	}
	if u, _ := us.ConsumeMagicToken(second); u == nil {
		t.Error("fresh token should verify")
	}
}
