package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medibridge/patient-portal/internal/api"
	"github.com/medibridge/patient-portal/internal/chat"
	"github.com/medibridge/patient-portal/internal/config"
	"github.com/medibridge/patient-portal/internal/observability/metrics"
	"github.com/medibridge/patient-portal/internal/pharmacy"
	"github.com/medibridge/patient-portal/internal/session"
	"github.com/medibridge/patient-portal/internal/ui"
	"github.com/medibridge/patient-portal/pkg/logging"
)

func main() {
	// Load .env if present; real env vars win.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting patient portal",
		"env", cfg.Env,
		"backend", cfg.BackendURL,
	)

	store, err := session.OpenStore(cfg.StateDir)
	if err != nil {
		logger.Error("failed to open session store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	manager, err := session.NewManager(store, logger.Component("session"))
	if err != nil {
		logger.Error("failed to load session", "error", err)
		os.Exit(1)
	}

	var chatMetrics *metrics.ChatMetrics
	if cfg.MetricsEnabled {
		registry := prometheus.NewRegistry()
		chatMetrics = metrics.NewChatMetrics(registry)
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	client, err := api.New(api.Config{
		BaseURL:     cfg.BackendURL,
		Timeout:     cfg.RequestTimeout,
		MaxRetries:  cfg.MaxRetries,
		Backoff:     cfg.RetryBackoff,
		Logger:      logger.Component("api"),
		TokenSource: manager.Token,
	})
	if err != nil {
		logger.Error("failed to build API client", "error", err)
		os.Exit(1)
	}

	conn := chat.NewConn(cfg.SocketURL, logger.Component("realtime"), chatMetrics)
	directory := chat.NewDirectory(client, logger.Component("directory"))
	active := chat.NewActiveConversation(client, conn, manager.User, logger.Component("conversation"))

	renderer := ui.New(os.Stdout, cfg.CurrencySymbol)

	// The realtime connection follows the session token: signing in connects,
	// signing out tears down.
	ctx := context.Background()
	manager.OnChange(func(token string) {
		if token == "" {
			active.Close()
			conn.Teardown()
			return
		}
		if err := conn.EnsureConnected(ctx, token); err != nil {
			logger.Warn("realtime connect failed", "error", err)
		}
	})
	conn.OnMessage(func(msg chat.Message) {
		if err := directory.ApplyIncoming(ctx, msg); err != nil {
			logger.Warn("directory update failed", "error", err)
		}
		active.HandleIncoming(msg)
	})
	conn.OnStatus(func(connected bool) {
		if connected {
			renderer.Notice("· chat connected")
		} else {
			renderer.Notice("· chat disconnected")
		}
	})

	app := &app{
		cfg:       cfg,
		logger:    logger,
		renderer:  renderer,
		client:    client,
		session:   manager,
		conn:      conn,
		directory: directory,
		active:    active,
		cart:      pharmacy.NewCart(),
	}
	app.restoreSession(ctx)

	app.run(ctx, os.Stdin)
	logger.Info("patient portal exiting")
}

// restoreSession revives a persisted sign-in: an expired token is discarded
// up front, a live one connects chat and reloads the profile.
func (a *app) restoreSession(ctx context.Context) {
	if !a.session.Authenticated() {
		return
	}
	if a.session.TokenExpired() {
		a.renderer.Notice("Saved session has expired, please log in again.")
		if err := a.session.Logout(); err != nil {
			a.logger.Warn("failed to clear expired session", "error", err)
		}
		return
	}
	profile, err := a.client.Profile(ctx)
	if err != nil {
		a.fail(err)
		return
	}
	a.session.SetUser(*profile)
	if err := a.conn.EnsureConnected(ctx, a.session.Token()); err != nil {
		a.logger.Warn("realtime connect failed", "error", err)
	}
	a.renderer.Notice("Welcome back, %s.", profile.Name)
}
