package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/soundmap"
	"github.com/sagarc03/soundmap/config"
	soundhttp "github.com/sagarc03/soundmap/http"
	"github.com/sagarc03/soundmap/keybackend"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the soundmap HTTP server.

The server shuts down gracefully on SIGINT or SIGTERM, waiting up to
server.shutdown_timeout seconds for in-flight requests.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "HTTP server port (env: SOUNDMAP_SERVER_PORT)")
	serveCmd.Flags().String("public-url", "", "public base URL used for filesystem blob URLs (env: SOUNDMAP_SERVER_PUBLIC_URL)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	if err = cfg.RequireKeySource(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	keys, err := keybackend.NewKeyStore(ctx, cfg.Auth.Keys)
	if err != nil {
		return fmt.Errorf("create key store: %w", err)
	}

	verifier, err := soundmap.NewCredentialVerifier(keys, soundmap.VerifierConfig{
		Issuer:     cfg.Auth.Issuer,
		Audience:   cfg.Auth.Audience,
		Algorithms: cfg.Auth.Algorithms,
		Leeway:     time.Duration(cfg.Auth.Leeway) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("create verifier: %w", err)
	}

	handlerConfig := soundhttp.HandlerConfig{
		Verifier:      verifier,
		AdminScope:    cfg.Auth.AdminScope,
		CreateScope:   cfg.Auth.CreateScope,
		MaxUploadSize: cfg.Server.MaxUploadSize,
		CORS:          cfg.CORS,
		RateLimit:     cfg.RateLimit.HTTP(),
		Media:         a.media,
		Health:        a.db,
	}

	handler := soundhttp.NewHandler(&handlerConfig, a.service)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			"addr", addr,
			"storage", cfg.Storage.Backend,
			"database", cfg.Database.Type,
			"rate_limit", cfg.RateLimit.Enabled,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "err", err)
		return fmt.Errorf("shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
