package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	adapthttp "messenger/internal/adapter/http"
	"messenger/internal/app"
	"messenger/internal/notify"
	"messenger/internal/platform/factory"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(contextOrBackground(parent), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("addr", cfg.Addr).
		Str("store_driver", cfg.StoreDriver).
		Str("environment", string(cfg.Environment)).
		Dur("session_ttl", cfg.SessionTTL).
		Bool("sso_enabled", cfg.SSOEnabled()).
		Bool("forward_auth", cfg.ForwardAuth).
		Msg("messenger starting")

	// -------- Storage layer -----------------
	repo, err := factory.NewRepository(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close() }()

	seeder, err := newSeeder(cfg)
	if err != nil {
		return err
	}
	store, err := app.OpenStore(ctx, repo, seeder, log)
	if err != nil {
		return err
	}

	// -------- Notifications ----------------
	hub := notify.NewHub(log)
	outbox := notify.NewOutbox(cfg.OutboxBuffer, hub, log)
	go func() {
		if err := outbox.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Stack().Err(err).Msg("outbox stopped")
		}
	}()

	// -------- Services & Router ------------
	digest := app.NewBcryptDigest(cfg.BcryptCost)
	opts := adapthttp.Options{
		CookieSecure: cfg.CookieSecure,
		CORSOrigins:  cfg.CORSOrigins,
		ForwardAuth:  cfg.ForwardAuth,
	}
	if cfg.SSOEnabled() {
		sso, err := adapthttp.NewOIDCConfig(ctx, cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCClientSecret, cfg.OIDCRedirectURL)
		if err != nil {
			return err
		}
		opts.SSO = sso
	}
	srv := adapthttp.New(
		app.NewIdentityService(store, digest, cfg.SessionTTL, log),
		app.NewContactService(store),
		app.NewMessagingService(store, outbox, log),
		hub,
		opts,
		log,
	)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("server exited")
	return nil
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
