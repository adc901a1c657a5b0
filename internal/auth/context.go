package auth

import (
	"context"

	"github.com/dukerupert/keepsake/internal/model"
)

type contextKey struct{}

// WithUser stores the authenticated user on the request context.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// FromContext returns the authenticated user, if any.
func FromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(contextKey{}).(*model.User)
	return u, ok && u != nil
}

// UserID returns the authenticated user's id, or 0 when unauthenticated.
func UserID(ctx context.Context) int64 {
	u, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return u.ID
}
