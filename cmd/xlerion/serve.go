package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"xlerion.co/guide/internal/api"
	"xlerion.co/guide/internal/auth"
	"xlerion.co/guide/internal/config"
	"xlerion.co/guide/internal/core"
	"xlerion.co/guide/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, cfgErr := config.Load()

	_, logCloser, err := telemetry.InitLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logCloser.Close()
	slog.Info("service starting", "version", version, "log_level", cfg.LogLevel)

	if cfg.TelemetryEnabled {
		shutdown, err := telemetry.InitTelemetry(ctx, filepath.Dir(cfg.LogFile), version)
		if err != nil {
			return fmt.Errorf("initializing telemetry: %w", err)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				slog.Warn("telemetry shutdown failed", "error", err)
			}
		}()
	}

	var handler http.Handler
	var missing *config.MissingKeysError
	switch {
	case errors.As(cfgErr, &missing):
		slog.Error("configuration incomplete, serving degraded", "missing", missing.Keys)
		handler = api.NewDegradedRouter(missing.Keys)
	case cfgErr != nil:
		return cfgErr
	default:
		h, cleanup, err := buildHandler(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()
		handler = h
	}

	return listenAndServe(ctx, ":"+cfg.HTTPPort, handler)
}

// buildHandler wires the store, the Gemini client and the services behind
// the router. cleanup releases them in reverse order.
func buildHandler(ctx context.Context, cfg config.Config) (http.Handler, func(), error) {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("store opened", "backend", cfg.StoreBackend)

	llm, err := core.NewLLMService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	cleanup := func() {
		llm.Close()
		if err := st.Close(); err != nil {
			slog.Warn("failed to close store", "error", err)
		}
	}

	issuer := auth.NewIssuer(cfg.SessionKey, auth.DefaultSessionTTL)
	sessions := core.NewSessionService(st, issuer)
	if cfg.AdminUserID != "" {
		if err := sessions.SetAdmin(ctx, cfg.AdminUserID, true); err != nil {
			slog.Warn("could not seed admin account", "user_id", cfg.AdminUserID, "error", err)
		}
	}

	quota := core.NewQuotaGate(st, cfg.GuestQueryLimit, cfg.RegisteredQueryLimit)
	deps := api.Deps{
		Sessions:   sessions,
		Queries:    core.NewQueryService(llm, quota, st),
		Quota:      quota,
		Admin:      core.NewAdminService(st),
		SessionTTL: issuer.TTL(),
		// Secure cookies whenever sign-in redirects back over TLS.
		SecureCookies: strings.HasPrefix(cfg.OIDC.RedirectURL, "https://"),
	}

	if cfg.OIDC.Enabled() {
		provider, err := auth.NewOIDCProvider(ctx, cfg.OIDC.IssuerURL, cfg.OIDC.ClientID, cfg.OIDC.ClientSecret, cfg.OIDC.RedirectURL)
		if err != nil {
			slog.Warn("OAuth sign-in disabled", "issuer", cfg.OIDC.IssuerURL, "error", err)
		} else {
			deps.OIDC = provider
		}
	}

	return api.NewRouter(api.NewHandler(deps)), cleanup, nil
}

func listenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // Gemini calls can take time
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("could not listen on %s: %w", addr, err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	slog.Info("server exited gracefully")
	return nil
}
