package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"

	"github.com/pschneider14/venturelens/internal/api"
	"github.com/pschneider14/venturelens/internal/app"
	"github.com/pschneider14/venturelens/internal/config"
	"github.com/pschneider14/venturelens/internal/diag"
	"github.com/pschneider14/venturelens/internal/logging"
	"github.com/pschneider14/venturelens/internal/options"
	"github.com/pschneider14/venturelens/internal/query"
	"github.com/pschneider14/venturelens/internal/quota"
	"github.com/pschneider14/venturelens/internal/session"
	"github.com/pschneider14/venturelens/internal/tui"
	"github.com/pschneider14/venturelens/internal/version"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func startDiag(cfg *config.Config, client *api.Client, clock clockwork.Clock) *diag.Server {
	if cfg.DiagAddr == "" {
		return nil
	}

	srv := diag.NewServer(cfg.DiagAddr, client, clock)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Diagnostics server error", "error", err)
		}
	}()
	slog.Info("Diagnostics endpoint listening", "addr", cfg.DiagAddr)
	return srv
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Client starting", "version", version.Get().Version, "api", cfg.APIBaseURL)

	tokenPath := cfg.TokenFile
	if tokenPath == "" {
		tokenPath = session.DefaultTokenPath()
	}

	// The store supplies the bearer token to the client, and the client
	// performs the store's login exchange; the function adapter breaks the
	// construction cycle.
	var store *session.Store
	client := api.New(cfg.APIBaseURL, api.TokenFunc(func() (string, bool) {
		if store == nil {
			return "", false
		}
		return store.Token()
	}), cfg.HTTPTimeout)
	store = session.NewStore(client, tokenPath)

	restored, err := store.Restore()
	if err != nil {
		slog.Warn("Failed to restore session", "error", err)
	}
	if restored {
		if sess, ok := store.Current(); ok {
			slog.Info("Session restored", "subject", sess.Subject)
		}
	}

	dispatch := tui.NewDispatcher()
	tracker := quota.New(client, clock, dispatch)

	var (
		svc        *app.Service
		controller *query.Controller
	)
	controller = query.New(clock, cfg.DebounceInterval, func() {
		go svc.FetchPage(context.Background(), controller.Snapshot())
	})
	svc = app.NewService(client, store, tracker, controller, dispatch, clock)

	optionCache := options.New(client, cfg.OptionsTTL, clock)

	diagSrv := startDiag(cfg, client, clock)

	model := tui.NewApp(svc, controller, tracker, optionCache, dispatch, clock, restored)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		slog.Error("UI error", "error", err)
		os.Exit(1)
	}

	if diagSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := diagSrv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Diagnostics shutdown error", "error", err)
		}
	}
}
