package handlers

import (
	"net/http"
	"strings"

	"github.com/streamloft/gateway/internal/logging"
	"github.com/streamloft/gateway/internal/models"
	"github.com/streamloft/gateway/internal/session"
)

// AuthHandler implements the login, registration, and logout endpoints. On
// success the issued session token becomes the jwt cookie and the browser is
// redirected home; the gateway keeps no other record of the session.
type AuthHandler struct {
	Auth    AuthService
	Cookies session.CookieStore
	Limiter RateLimiter
	HomeURL string
}

// Login handles POST /login form submissions.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Auth == nil {
		logger.Error("auth service unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "authentication services unavailable"})
		return
	}

	if !allowRequest(h.Limiter, r, "login") {
		logger.Warn("login rate limited", "remote_addr", r.RemoteAddr)
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many attempts, slow down"})
		return
	}

	if err := r.ParseForm(); err != nil {
		logger.Warn("invalid login form", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid form submission"})
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		logger.Warn("login missing credentials", "username", username)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username and password are required"})
		return
	}

	minted, err := h.Auth.Login(ctx, username, password)
	if err != nil {
		logger.Warn("login rejected", "username", username, "error", err)
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	h.Cookies.Issue(w, minted)
	http.Redirect(w, r, h.home(), http.StatusSeeOther)
}

// Register handles POST /register form submissions.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Auth == nil {
		logger.Error("auth service unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "authentication services unavailable"})
		return
	}

	if !allowRequest(h.Limiter, r, "register") {
		logger.Warn("registration rate limited", "remote_addr", r.RemoteAddr)
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many attempts, slow down"})
		return
	}

	if err := r.ParseForm(); err != nil {
		logger.Warn("invalid registration form", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid form submission"})
		return
	}

	reg := models.Registration{
		Username:             strings.TrimSpace(r.PostFormValue("username")),
		Email:                strings.TrimSpace(strings.ToLower(r.PostFormValue("email"))),
		Password:             r.PostFormValue("password"),
		PasswordConfirmation: r.PostFormValue("password_confirmation"),
	}

	minted, err := h.Auth.Register(ctx, reg)
	if err != nil {
		logger.Warn("registration rejected", "username", reg.Username, "error", err)
		respondFault(ctx, w, err)
		return
	}

	h.Cookies.Issue(w, minted)
	http.Redirect(w, r, h.home(), http.StatusSeeOther)
}

// Logout handles POST /logout by discarding the session credential.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	h.Cookies.Clear(w)
	http.Redirect(w, r, h.home(), http.StatusSeeOther)
}

// Me handles GET /api/me, returning the identity the resolver attached.
func (h AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	user, ok := session.UserFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "not signed in"})
		return
	}
	respondJSON(ctx, w, http.StatusOK, user)
}

func (h AuthHandler) home() string {
	if h.HomeURL != "" {
		return h.HomeURL
	}
	return "/"
}
