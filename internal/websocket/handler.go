package websocket

import (
	"log/slog"
	"net/http"
	"strconv"

	ws "github.com/coder/websocket"
)

// HandleFeed upgrades the connection and runs it as a hub client until it
// closes. An event_id query parameter narrows the feed to one event.
func HandleFeed(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var eventID int64
		if raw := r.URL.Query().Get("event_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				http.Error(w, "invalid event_id", http.StatusBadRequest)
				return
			}
			eventID = id
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			// Guests open the feed from the shared event page, which may
			// live on a different origin than the API.
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, eventID)
		client.Run(r.Context())
	}
}
