package handlers

import (
	"net/http"

	"github.com/streamloft/gateway/internal/session"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Auth        AuthService
	Exchanger   OAuthExchanger
	Provisioner AccountProvisioner
	Uploads     UploadCoordinator
	Videos      VideoCatalog
	Cookies     session.CookieStore
	Limiter     RateLimiter
	HomeURL     string
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	auth := AuthHandler{Auth: deps.Auth, Cookies: deps.Cookies, Limiter: deps.Limiter, HomeURL: deps.HomeURL}
	oauth := OAuthHandler{
		Exchanger:   deps.Exchanger,
		Provisioner: deps.Provisioner,
		Cookies:     deps.Cookies,
		Limiter:     deps.Limiter,
		HomeURL:     deps.HomeURL,
	}
	uploads := UploadHandler{Uploads: deps.Uploads, Cookies: deps.Cookies}
	videos := VideoHandler{Videos: deps.Videos, Cookies: deps.Cookies}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/login", auth.Login)
	mux.HandleFunc("/register", auth.Register)
	mux.HandleFunc("/logout", auth.Logout)
	mux.HandleFunc("/auth/twitch", oauth.Begin)
	mux.HandleFunc("/auth/twitch/callback", oauth.Callback)
	mux.HandleFunc("/api/me", auth.Me)
	mux.HandleFunc("/api/uploads", uploads.Start)
	mux.HandleFunc("/api/uploads/complete", uploads.Complete)
	mux.HandleFunc("/api/videos", videos.Handle)
}
