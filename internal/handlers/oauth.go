package handlers

import (
	"net/http"
	"net/url"

	"github.com/streamloft/gateway/internal/logging"
	"github.com/streamloft/gateway/internal/session"
)

// OAuthHandler drives the browser-facing half of the Twitch authorization
// flow: the redirect out to the provider and the callback that turns an
// authorization code into a signed-in session.
type OAuthHandler struct {
	Exchanger   OAuthExchanger
	Provisioner AccountProvisioner
	Cookies     session.CookieStore
	Limiter     RateLimiter
	HomeURL     string
	FailureURL  string
}

// Begin handles GET /auth/twitch by redirecting to the provider.
func (h OAuthHandler) Begin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	if h.Exchanger == nil {
		logging.FromContext(ctx).Error("oauth exchanger unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "sign-in with twitch is not configured"})
		return
	}

	if !allowRequest(h.Limiter, r, "oauth") {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many attempts, slow down"})
		return
	}

	http.Redirect(w, r, h.Exchanger.AuthorizeURL(), http.StatusTemporaryRedirect)
}

// Callback handles GET /auth/twitch/callback. An error query parameter
// aborts before any token exchange; otherwise the code is exchanged, the
// profile fetched, and the account found-or-provisioned in one step before
// the session cookie is minted.
func (h OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, span := logging.StartSpan(r.Context(), "oauth.callback")
	defer span.End()
	logger := logging.FromContext(ctx)

	if h.Exchanger == nil || h.Provisioner == nil {
		logger.Error("oauth dependencies unavailable",
			"hasExchanger", h.Exchanger != nil, "hasProvisioner", h.Provisioner != nil)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "sign-in with twitch is not configured"})
		return
	}

	query := r.URL.Query()
	if errParam := query.Get("error"); errParam != "" {
		logger.Warn("authorization refused by provider",
			"error", errParam, "description", query.Get("error_description"))
		h.redirectFailure(w, r, errParam)
		return
	}

	code := query.Get("code")
	if code == "" {
		logger.Warn("callback missing authorization code")
		h.redirectFailure(w, r, "missing_code")
		return
	}

	grant, err := h.Exchanger.Exchange(ctx, code)
	if err != nil {
		logger.Error("token exchange failed", "error", err)
		h.redirectFailure(w, r, "exchange_failed")
		return
	}

	profile, err := h.Exchanger.Profile(ctx, grant.AccessToken)
	if err != nil {
		logger.Error("profile fetch failed", "error", err)
		h.redirectFailure(w, r, "profile_failed")
		return
	}

	user, minted, err := h.Provisioner.Provision(ctx, profile, grant)
	if err != nil {
		logger.Error("account provisioning failed", "email", profile.Email, "error", err)
		h.redirectFailure(w, r, "provision_failed")
		return
	}

	logger.Info("oauth sign-in completed", "user_id", user.ID, "username", user.Username)
	h.Cookies.Issue(w, minted)
	http.Redirect(w, r, h.home(), http.StatusSeeOther)
}

func (h OAuthHandler) redirectFailure(w http.ResponseWriter, r *http.Request, reason string) {
	target := h.FailureURL
	if target == "" {
		target = "/login"
	}
	http.Redirect(w, r, target+"?error="+url.QueryEscape(reason), http.StatusSeeOther)
}

func (h OAuthHandler) home() string {
	if h.HomeURL != "" {
		return h.HomeURL
	}
	return "/"
}
