package handlers

import (
	"context"

	"github.com/streamloft/gateway/internal/models"
	"github.com/streamloft/gateway/internal/twitch"
)

// AuthService exchanges credentials for a session token. Implemented by the
// API client in proxy deployments and by the local directory when running
// standalone.
type AuthService interface {
	Login(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, reg models.Registration) (string, error)
}

// OAuthExchanger drives the provider side of the authorization-code flow.
type OAuthExchanger interface {
	AuthorizeURL() string
	Exchange(ctx context.Context, code string) (twitch.Grant, error)
	Profile(ctx context.Context, accessToken string) (twitch.Profile, error)
}

// AccountProvisioner reconciles an OAuth profile with an account, atomically
// finding or creating it, and returns the account plus a session token.
type AccountProvisioner interface {
	Provision(ctx context.Context, profile twitch.Profile, grant twitch.Grant) (models.User, string, error)
}

// UploadCoordinator owns the two network calls of the upload lifecycle. It
// keeps no state between them; the caller holds the session.
type UploadCoordinator interface {
	Start(ctx context.Context, token string, req models.StartUpload) (models.UploadSession, error)
	Complete(ctx context.Context, token string, req models.CompleteUpload) error
}

// VideoCatalog lists and deletes catalog entries.
type VideoCatalog interface {
	Videos(ctx context.Context, channel string) ([]models.Video, error)
	DeleteVideos(ctx context.Context, token string, ids []string) error
}
