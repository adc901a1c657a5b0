package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/keepsake/internal/auth"
	"github.com/dukerupert/keepsake/internal/model"
	"github.com/dukerupert/keepsake/internal/store"
	"github.com/dukerupert/keepsake/internal/token"
)

const maxCodeAttempts = 5

type EventHandler struct {
	events        *store.EventStore
	messages      *store.MessageStore
	contributions *store.ContributionStore
	logger        *slog.Logger
}

func NewEventHandler(es *store.EventStore, ms *store.MessageStore, cs *store.ContributionStore, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		events:        es,
		messages:      ms,
		contributions: cs,
		logger:        logger,
	}
}

type createEventRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	EventDate   string  `json:"event_date"`
	CoverImage  *string `json:"cover_image"`
}

// Create handles POST /events.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	title := strings.TrimSpace(req.Title)
	eventDate := strings.TrimSpace(req.EventDate)
	if title == "" || eventDate == "" {
		writeError(w, http.StatusBadRequest, "title and event_date are required")
		return
	}

	code, err := h.uniqueCode()
	if err != nil {
		h.logger.Error("generate shareable code", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	event, err := h.events.Create(userID, title, req.Description, eventDate, req.CoverImage, code)
	if err != nil {
		h.logger.Error("create event", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"event":   event,
	})
}

// uniqueCode draws shareable codes until one is free. With a 36^8 space
// collisions are rare; the retry cap just bounds the pathological case.
func (h *EventHandler) uniqueCode() (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := token.ShareableCode()
		if err != nil {
			return "", err
		}
		exists, err := h.events.CodeExists(code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.New("could not find a free shareable code")
}

// PublicByCode handles GET /events/{code}: the guest view reached through
// a shared link.
func (h *EventHandler) PublicByCode(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	event, err := h.events.GetByCode(code)
	if err != nil {
		h.logger.Error("get event by code", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if event == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	messages, err := h.messages.ListPublicByEvent(event.ID)
	if err != nil {
		h.logger.Error("list public messages", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"event": model.PublicEvent{
			ID:          event.ID,
			Title:       event.Title,
			Description: event.Description,
			EventDate:   event.EventDate,
			CoverImage:  event.CoverImage,
			CreatorName: event.CreatorName,
		},
		"messages": messages,
	})
}

// CreatorList handles GET /events/creator/list.
func (h *EventHandler) CreatorList(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	events, err := h.events.ListForUser(userID)
	if err != nil {
		h.logger.Error("list events", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// CreatorDetail handles GET /events/creator/{id}. An event owned by
// someone else looks exactly like one that does not exist.
func (h *EventHandler) CreatorDetail(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	event, err := h.events.GetForUser(id, userID)
	if err != nil {
		h.logger.Error("get event", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if event == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	messages, err := h.messages.ListByEvent(event.ID)
	if err != nil {
		h.logger.Error("list messages", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	contributions, err := h.contributions.ListByEvent(event.ID)
	if err != nil {
		h.logger.Error("list contributions", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	total, err := h.contributions.TotalForEvent(event.ID)
	if err != nil {
		h.logger.Error("total contributions", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"event":               event,
		"messages":            messages,
		"contributions":       contributions,
		"total_contributions": total,
	})
}
