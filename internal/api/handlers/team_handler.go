package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/isdelr/teamkb-be/internal/auth"
	"github.com/isdelr/teamkb-be/internal/services"
)

// TeamHandler handles HTTP requests for teams.
type TeamHandler struct {
	service services.TeamServiceProvider
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(service services.TeamServiceProvider) *TeamHandler {
	return &TeamHandler{service: service}
}

type createTeamPayload struct {
	Name string `json:"name"`
}

type addMemberPayload struct {
	Username string `json:"username"`
}

// Create makes a new team owned by the caller.
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFrom(r.Context())
	if !requireCaller(w, r, caller, "Failed to create team", nil) {
		return
	}
	var payload createTeamPayload
	if err := decode(r, &payload); err != nil {
		writeError(w, r, err, "Failed to create team", map[string]string{"user_id": caller.UserID})
		return
	}

	team, err := h.service.CreateTeam(r.Context(), caller, payload.Name)
	if err != nil {
		writeError(w, r, err, "Failed to create team", map[string]string{"user_id": caller.UserID})
		return
	}
	writeJSON(w, http.StatusCreated, team)
}

// List returns the caller's teams with the caller's role.
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFrom(r.Context())
	teams, err := h.service.ListTeams(r.Context(), caller)
	if err != nil {
		writeError(w, r, err, "Failed to list teams", map[string]string{"user_id": caller.UserID})
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

// AddMember invites an existing user into the team.
func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFrom(r.Context())
	teamID := chi.URLParam(r, "teamId")
	fields := map[string]string{"user_id": caller.UserID, "team_id": teamID}
	if !requireCaller(w, r, caller, "Failed to add member", fields) {
		return
	}

	var payload addMemberPayload
	if err := decode(r, &payload); err != nil {
		writeError(w, r, err, "Failed to add member", fields)
		return
	}

	membership, err := h.service.AddMember(r.Context(), caller, teamID, payload.Username)
	if err != nil {
		writeError(w, r, err, "Failed to add member", fields)
		return
	}
	writeJSON(w, http.StatusCreated, membership)
}
