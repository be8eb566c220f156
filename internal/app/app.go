// Package app bootstraps the Streamloft gateway. The gateway runs in one of
// two modes: fronting a downstream API (proxy), or standalone, where it is
// itself the identity authority and talks straight to Postgres and object
// storage.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/streamloft/gateway/internal/apiclient"
	"github.com/streamloft/gateway/internal/config"
	"github.com/streamloft/gateway/internal/db"
	"github.com/streamloft/gateway/internal/directory"
	"github.com/streamloft/gateway/internal/handlers"
	"github.com/streamloft/gateway/internal/httpserver"
	"github.com/streamloft/gateway/internal/middleware"
	"github.com/streamloft/gateway/internal/session"
	"github.com/streamloft/gateway/internal/token"
	"github.com/streamloft/gateway/internal/twitch"
	"github.com/streamloft/gateway/internal/uploads"
)

// Run bootstraps the gateway application.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve or migrate")
	}

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "migrate":
		return runMigrations(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	cookies := session.NewCookieStore(cfg.CookieSecure, cfg.SessionTTL)

	deps, identities, cleanup, err := buildDependencies(ctx, cfg, cookies, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, deps)

	resolver := session.Resolver{Identities: identities, Cookies: cookies}
	handler := middleware.RequestLogger(logger)(resolver.Middleware(mux))

	srv := httpserver.New(cfg.AppPort, handler)

	logger.Info("starting http server", "port", cfg.AppPort, "proxy_mode", cfg.APIBaseURL != "")

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// buildDependencies assembles the handler collaborators for the configured
// mode and returns the identity resolver the session middleware should use.
func buildDependencies(ctx context.Context, cfg config.Config, cookies session.CookieStore, logger *slog.Logger) (handlers.Dependencies, session.IdentityResolver, func(), error) {
	deps := handlers.Dependencies{
		Cookies: cookies,
		Limiter: middleware.NewIPRateLimiter(cfg.LoginRatePerMinute, time.Minute, cfg.LoginRateBurst, 10*time.Minute),
		HomeURL: cfg.HomeURL,
	}
	cleanup := func() {}

	var exchanger *twitch.Client
	if cfg.Twitch.Configured() {
		creds, err := twitch.NewCredentials(cfg.Twitch.ClientID, cfg.Twitch.ClientSecret, cfg.Twitch.RedirectURI)
		if err != nil {
			return handlers.Dependencies{}, nil, nil, err
		}
		exchanger = twitch.NewClient(creds)
		deps.Exchanger = exchanger
	}

	if cfg.APIBaseURL != "" {
		api := apiclient.New(cfg.APIBaseURL)
		deps.Auth = api
		deps.Uploads = api
		deps.Videos = api
		if exchanger != nil {
			deps.Provisioner = api
		}
		return deps, api, cleanup, nil
	}

	// Standalone: local directory, local tokens, direct-to-storage uploads.
	signer, err := token.NewSigner(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		return handlers.Dependencies{}, nil, nil, err
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return handlers.Dependencies{}, nil, nil, err
	}
	cleanup = pool.Close

	dir := directory.NewPostgres(pool)
	authenticator := directory.NewAuthenticator(dir, signer)
	deps.Auth = authenticator
	if exchanger != nil {
		deps.Provisioner = authenticator
	}

	if cfg.ObjectStore.Bucket != "" {
		backend, err := uploads.NewBackend(ctx, cfg.ObjectStore)
		if err != nil {
			cleanup()
			return handlers.Dependencies{}, nil, nil, err
		}
		deps.Uploads = backend
	} else {
		logger.Warn("no upload bucket configured, uploads disabled")
	}

	return deps, directory.NewTokenResolver(dir, signer), cleanup, nil
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
