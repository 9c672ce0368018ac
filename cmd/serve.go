package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/spx/internal/server"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve mounts the HTTP surface: health, playlist listing, on-demand export
// downloads, and the OAuth callback. Runs until the context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized, set credentials in config.toml", shared.ErrServiceUnavailable)
	}

	engine, closeEngine := r.exportEngine()
	defer closeEngine()

	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(server.NewExportHandler(r.spotify, engine, r.logger))

	if oauthSvc, ok := r.spotify.(services.OAuthService); ok {
		if err := r.mountCallback(ctx, router, oauthSvc); err != nil {
			return err
		}
	}

	port := r.config.Server.Port
	if flagPort := cmd.Int("port"); flagPort > 0 {
		port = flagPort
	}

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// mountCallback registers the OAuth callback route so a browser visit to the
// logged authorization URL can authenticate the serving process. The handler
// is one-shot: one authorization per server run.
func (r *Runner) mountCallback(ctx context.Context, router *server.BasicRouter, oauthSvc services.OAuthService) error {
	state, err := shared.GenerateState()
	if err != nil {
		return fmt.Errorf("failed to generate state token: %w", err)
	}

	oauthHandler := server.NewOAuthHandler(oauthSvc.GetOAuthConfig(), state)
	router.Handler(oauthHandler)

	go func() {
		result, ok := <-oauthHandler.Result()
		if !ok {
			return
		}
		if result.Error() != nil {
			r.logger.Error("authorization failed", "error", result.Error())
			return
		}

		oauthSvc.SetToken(ctx, result.Token)
		if err := r.saveToken(result.Token); err != nil {
			r.logger.Warn("failed to persist token", "error", err)
		}
		r.logger.Info("authorization complete")
	}()

	r.logger.Info("authorize this server by visiting", "url", oauthSvc.GetAuthURL(state))
	return nil
}
