package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/keepsake/internal/auth"
	"github.com/dukerupert/keepsake/internal/config"
	"github.com/dukerupert/keepsake/internal/email"
	"github.com/dukerupert/keepsake/internal/middleware"
	"github.com/dukerupert/keepsake/internal/store"
	"github.com/dukerupert/keepsake/internal/token"
)

const magicTokenTTL = 15 * time.Minute

type AuthHandler struct {
	users    *store.UserStore
	sessions *store.SessionStore
	email    *email.Client
	delivery config.Delivery
	baseURL  string
	logger   *slog.Logger
}

func NewAuthHandler(us *store.UserStore, ss *store.SessionStore, ec *email.Client, delivery config.Delivery, baseURL string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:    us,
		sessions: ss,
		email:    ec,
		delivery: delivery,
		baseURL:  baseURL,
		logger:   logger,
	}
}

type magicLinkRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// MagicLink handles POST /auth/magic-link. It issues a fresh single-use
// token for an existing account, or creates the account when a name is
// supplied.
func (h *AuthHandler) MagicLink(w http.ResponseWriter, r *http.Request) {
	var req magicLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	// Emails are matched exactly as stored; no case folding.
	emailAddr := strings.TrimSpace(req.Email)
	name := strings.TrimSpace(req.Name)
	if emailAddr == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	user, err := h.users.GetByEmail(emailAddr)
	if err != nil {
		h.logger.Error("magic link lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	tok, err := token.MagicToken()
	if err != nil {
		h.logger.Error("generate magic token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	expiresAt := time.Now().Add(magicTokenTTL)

	if user == nil {
		if name == "" {
			writeError(w, http.StatusBadRequest, "name is required for new accounts")
			return
		}
		if _, err := h.users.CreateWithMagicToken(emailAddr, name, tok, expiresAt); err != nil {
			h.logger.Error("create user", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
	} else {
		// A reissue permanently invalidates any earlier token.
		if err := h.users.SetMagicToken(user.ID, tok, expiresAt); err != nil {
			h.logger.Error("set magic token", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
	}

	if h.delivery == config.DeliveryInline {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"message":   "magic link created",
			"dev_token": tok,
			"dev_link":  fmt.Sprintf("%s/auth/verify?token=%s", h.baseURL, tok),
		})
		return
	}

	if err := h.email.SendMagicLink(emailAddr, tok); err != nil {
		h.logger.Error("send magic link", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to send magic link")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "magic link sent",
	})
}

type verifyRequest struct {
	Token string `json:"token"`
}

// Verify handles POST /auth/verify. A consumed, expired, or unknown token
// gets the same 401.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	user, err := h.users.ConsumeMagicToken(req.Token)
	if err != nil {
		h.logger.Error("consume magic token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	sess, err := h.sessions.Create(user.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"session_token": sess.Token,
		"user":          user.Public(),
	})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user.Public()})
}

// Logout handles POST /auth/logout. Deleting an already-dead session is
// still a success.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if tok := middleware.CredentialFromRequest(r); tok != "" {
		if err := h.sessions.DeleteByToken(tok); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
