package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/teamkb-be/internal/auth"
	"github.com/isdelr/teamkb-be/internal/models"
	"github.com/isdelr/teamkb-be/internal/services"
)

// UserHandler handles HTTP requests for accounts and sessions.
type UserHandler struct {
	service       services.UserServiceProvider
	issuer        *auth.Issuer
	secureCookies bool
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, issuer *auth.Issuer, secureCookies bool) *UserHandler {
	return &UserHandler{service: service, issuer: issuer, secureCookies: secureCookies}
}

// CredentialsPayload is the body of register and login requests.
type CredentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionResponse is returned after register and login.
type SessionResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Register handles new user registration and signs the user in.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := decode(r, &payload); err != nil {
		writeError(w, r, err, "Failed to register user", nil)
		return
	}

	user, err := h.service.Register(r.Context(), payload.Username, payload.Password)
	if err != nil {
		writeError(w, r, err, "Failed to register user", map[string]string{"username": payload.Username})
		return
	}

	h.startSession(w, r, user, http.StatusCreated)
}

// Login handles user authentication and JWT generation.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := decode(r, &payload); err != nil {
		writeError(w, r, err, "Failed to log in", nil)
		return
	}

	user, err := h.service.AuthenticateUser(r.Context(), payload.Username, payload.Password)
	if err != nil {
		writeError(w, r, err, "Failed to log in", map[string]string{"username": payload.Username})
		return
	}

	h.startSession(w, r, user, http.StatusOK)
}

// Logout clears the session cookie.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    "",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
	w.WriteHeader(http.StatusOK)
}

// GetMe retrieves the currently authenticated user.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFrom(r.Context())
	if !caller.Authenticated() {
		writeError(w, r, models.ErrUnauthenticated, "Failed to load user", nil)
		return
	}

	user, err := h.service.GetUserByID(r.Context(), caller.UserID)
	if err != nil {
		writeError(w, r, err, "Failed to load user", map[string]string{"user_id": caller.UserID})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) startSession(w http.ResponseWriter, r *http.Request, user models.User, status int) {
	token, err := h.issuer.Generate(user)
	if err != nil {
		writeError(w, r, err, "Failed to generate token", map[string]string{"user_id": user.ID})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    token,
		Expires:  time.Now().Add(h.issuer.TTL()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})

	log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User signed in")
	writeJSON(w, status, SessionResponse{Token: token, User: user})
}
