package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dukerupert/keepsake/internal/push"
	"github.com/dukerupert/keepsake/internal/store"
	"github.com/dukerupert/keepsake/internal/websocket"
)

type ContributionHandler struct {
	contributions *store.ContributionStore
	events        *store.EventStore
	hub           *websocket.Hub
	notifier      notifier
	logger        *slog.Logger
}

func NewContributionHandler(cs *store.ContributionStore, es *store.EventStore, hub *websocket.Hub, n *push.Notifier, logger *slog.Logger) *ContributionHandler {
	h := &ContributionHandler{
		contributions: cs,
		events:        es,
		hub:           hub,
		logger:        logger,
	}
	if n != nil {
		h.notifier = n
	}
	return h
}

type createContributionRequest struct {
	EventID         int64   `json:"event_id"`
	ContributorName *string `json:"contributor_name"`
	Amount          float64 `json:"amount"`
}

// Create handles POST /contributions.
func (h *ContributionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createContributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be greater than zero")
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

	contribution, err := h.contributions.Create(event.ID, req.ContributorName, req.Amount)
	if err != nil {
		h.logger.Error("create contribution", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("contribution", "created", event.ID, contribution.ID, map[string]any{
		"amount": contribution.Amount,
	}))
	if h.notifier != nil {
		name := "Someone"
		if contribution.ContributorName != nil {
			name = *contribution.ContributorName
		}
		go h.notifier.NotifyUser(event.UserID, push.Payload{
			Title: "New contribution",
			Body:  fmt.Sprintf("%s contributed %.2f to %q", name, contribution.Amount, event.Title),
			Tag:   fmt.Sprintf("event-%d", event.ID),
		})
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":      true,
		"contribution": contribution,
	})
}
