package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/keepsake/internal/auth"
	"github.com/dukerupert/keepsake/internal/store"
)

// SessionCookieName is the cookie checked when no Authorization header is
// present.
const SessionCookieName = "session_token"

// CredentialFromRequest returns the session token carried by the request.
// A Bearer Authorization header wins over the cookie.
func CredentialFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return tok
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

// RequireAuth resolves the request's session token to a user and stores it
// on the context. Missing, malformed, unknown, and expired credentials all
// get the same 401.
func RequireAuth(sessions *store.SessionStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := CredentialFromRequest(r)
			if tok == "" {
				unauthorized(w)
				return
			}

			user, err := sessions.GetUserByToken(tok)
			if err != nil {
				logger.Error("resolve session", "error", err)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if user == nil {
				unauthorized(w)
				return
			}

			ctx := auth.WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "unauthorized")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
