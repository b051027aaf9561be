package handlers

import (
	"net/http"
	"strconv"

	"github.com/isdelr/teamkb-be/internal/auth"
	"github.com/isdelr/teamkb-be/internal/services"
)

// EventHandler handles HTTP requests for the caller's activity feed.
type EventHandler struct {
	service services.EventServiceProvider
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(service services.EventServiceProvider) *EventHandler {
	return &EventHandler{service: service}
}

// GetRecent handles the request to get recent activity/events.
func (h *EventHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFrom(r.Context())
	// Missing or malformed limits fall back to the service default.
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := h.service.GetRecentEvents(r.Context(), caller, limit)
	if err != nil {
		writeError(w, r, err, "Failed to retrieve events", map[string]string{"user_id": caller.UserID})
		return
	}
	writeJSON(w, http.StatusOK, events)
}
