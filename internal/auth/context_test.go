package auth

import (
	"context"
	"testing"

	"github.com/dukerupert/keepsake/internal/model"
)

func TestWithUserAndFromContext(t *testing.T) {
	u := &model.User{ID: 7, Email: "ada@example.com", Name: "Ada"}

	ctx := WithUser(context.Background(), u)
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected user in context")
	}
	if got.ID != 7 {
		t.Errorf("ID = %d, want 7", got.ID)
	}
	if got.Email != "ada@example.com" {
		t.Errorf("Email = %q, want ada@example.com", got.Email)
	}
}

func TestFromContextMissing(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("expected false for missing user")
	}
}

func TestFromContextNilUser(t *testing.T) {
	ctx := WithUser(context.Background(), nil)
	if _, ok := FromContext(ctx); ok {
		t.Error("expected false for nil user")
	}
}

func TestUserID(t *testing.T) {
	ctx := WithUser(context.Background(), &model.User{ID: 42})
	if UserID(ctx) != 42 {
		t.Errorf("UserID = %d, want 42", UserID(ctx))
	}
}

func TestUserIDMissing(t *testing.T) {
	if UserID(context.Background()) != 0 {
		t.Error("expected 0 for missing context")
	}
}
