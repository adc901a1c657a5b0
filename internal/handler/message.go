package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/keepsake/internal/push"
	"github.com/dukerupert/keepsake/internal/store"
	"github.com/dukerupert/keepsake/internal/websocket"
)

// notifier is the part of push.Notifier the guestbook handlers use. Nil
// when push is unconfigured.
type notifier interface {
	NotifyUser(userID int64, payload push.Payload)
}

type MessageHandler struct {
	messages *store.MessageStore
	events   *store.EventStore
	hub      *websocket.Hub
	notifier notifier
	logger   *slog.Logger
}

func NewMessageHandler(ms *store.MessageStore, es *store.EventStore, hub *websocket.Hub, n *push.Notifier, logger *slog.Logger) *MessageHandler {
	h := &MessageHandler{
		messages: ms,
		events:   es,
		hub:      hub,
		logger:   logger,
	}
	if n != nil {
		h.notifier = n
	}
	return h
}

type createMessageRequest struct {
	EventID   int64   `json:"event_id"`
	GuestName *string `json:"guest_name"`
	Body      string  `json:"body"`
}

// Create handles POST /messages: a guest signing the guestbook. No auth;
// the shareable link is the only secret.
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		writeError(w, http.StatusBadRequest, "body is required")
		return
	}

	event, err := h.events.GetByID(req.EventID)
	if err != nil {
		h.logger.Error("get event", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if event == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	msg, err := h.messages.Create(event.ID, req.GuestName, body)
	if err != nil {
		h.logger.Error("create message", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("message", "created", event.ID, msg.ID, nil))
	if h.notifier != nil {
		guest := "Someone"
		if msg.GuestName != nil {
			guest = *msg.GuestName
		}
		go h.notifier.NotifyUser(event.UserID, push.Payload{
			Title: "New guestbook message",
			Body:  fmt.Sprintf("%s signed %q", guest, event.Title),
			Tag:   fmt.Sprintf("event-%d", event.ID),
		})
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": msg,
	})
}
