package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charleschow/fairodds/internal/adapters/inbound/http_api"
	"github.com/charleschow/fairodds/internal/adapters/outbound/discord"
	"github.com/charleschow/fairodds/internal/config"
	"github.com/charleschow/fairodds/internal/core/display"
	"github.com/charleschow/fairodds/internal/core/journal"
	"github.com/charleschow/fairodds/internal/core/session"
	"github.com/charleschow/fairodds/internal/core/state/game"
	"github.com/charleschow/fairodds/internal/core/state/store"
	"github.com/charleschow/fairodds/internal/events"
	"github.com/charleschow/fairodds/internal/fanout"
	"github.com/charleschow/fairodds/internal/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))
	telemetry.Infof("Starting fair-odds calculator")

	bus := events.NewBus()
	matchStore := store.New()

	// ── Model ───────────────────────────────────────────────────
	model, err := config.LoadModel(cfg.ModelPath)
	if errors.Is(err, os.ErrNotExist) {
		telemetry.Warnf("Model file %s not found, using built-in presets", cfg.ModelPath)
		model = config.DefaultModel()
	} else if err != nil {
		telemetry.Errorf("Failed to load model: %v", err)
		os.Exit(1)
	}
	if cfg.DefaultPreset != "" {
		if _, ok := model.Presets.Get(cfg.DefaultPreset); ok {
			model.DefaultPreset = cfg.DefaultPreset
		} else {
			telemetry.Warnf("DEFAULT_PRESET=%s unknown, keeping %s", cfg.DefaultPreset, model.DefaultPreset)
		}
	}
	telemetry.Infof("Model loaded  presets=%v  default=%s  strong>%.3f  marginal>%.3f",
		model.Presets.Names(), model.DefaultPreset, model.Thresholds.Strong, model.Thresholds.Marginal)

	// ── Observers ───────────────────────────────────────────────
	var observers []game.MatchObserver
	if cfg.DisplayEnabled {
		observers = append(observers, display.NewObserver(os.Stderr))
	}

	var journalStore *journal.Store
	if cfg.JournalPath != "" {
		journalStore, err = journal.OpenStore(cfg.JournalPath, cfg.JournalMaxRows)
		if err != nil {
			telemetry.Warnf("Journal disabled: %v", err)
		} else {
			observers = append(observers, journal.NewObserver(journalStore))
		}
	}

	// ── Alerts ──────────────────────────────────────────────────
	notifier := discord.NewNotifier(cfg.DiscordWebhookURL)
	alerter := discord.NewAlerter(notifier, cfg.DiscordStrongOnly)
	if notifier.Enabled() {
		alerter.Register(bus)
		telemetry.Infof("Discord alerts enabled  strong_only=%v", cfg.DiscordStrongOnly)
	}

	// ── Sessions ────────────────────────────────────────────────
	svc := session.NewService(session.Config{
		Presets:       model.Presets,
		DefaultPreset: model.DefaultPreset,
		Thresholds:    model.Thresholds,
		Aliases:       model.Aliases,
	}, matchStore, bus, observers...)

	// ── HTTP API + fanout ───────────────────────────────────────
	fanoutServer := fanout.NewServer(bus)
	mux := http.NewServeMux()
	http_api.NewHandler(svc, cfg.APIRateLimit, cfg.APIBurst).RegisterRoutes(mux)
	mux.HandleFunc("GET /ws", fanoutServer.HandleWS)

	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			telemetry.Errorf("HTTP server: %v", err)
			os.Exit(1)
		}
	}()
	telemetry.Infof("API listening on %q  (ws at /ws?match=<id>)", addr)

	// ── Shutdown ────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	telemetry.Infof("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	svc.Shutdown()
	alerter.Wait()
	if journalStore != nil {
		journalStore.Close()
	}

	telemetry.Infof("Shutdown complete  matches=%d  accepted=%d  rejected=%d  value_flags=%d  alerts=%d  journal=%d/%d err  submit_p50=%s  api_p99=%s",
		telemetry.Metrics.MatchesStarted.Value(),
		telemetry.Metrics.EventsAccepted.Value(),
		telemetry.Metrics.EventsRejected.Value(),
		telemetry.Metrics.ValueFlags.Value(),
		telemetry.Metrics.AlertsSent.Value(),
		telemetry.Metrics.JournalWrites.Value(),
		telemetry.Metrics.JournalErrors.Value(),
		telemetry.Metrics.SubmitLatency.P50(),
		telemetry.Metrics.APILatency.P99(),
	)
}
