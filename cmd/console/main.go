package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jwebster45206/npc-responder/internal/config"
	"github.com/jwebster45206/npc-responder/internal/handlers"
	"github.com/jwebster45206/npc-responder/internal/logger"
	"github.com/jwebster45206/npc-responder/internal/storage"
	"github.com/jwebster45206/npc-responder/pkg/responder"
	"github.com/jwebster45206/npc-responder/pkg/schedule"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	responderID := cfg.ResponderID
	if len(os.Args) > 1 {
		responderID = os.Args[1]
	}

	// The terminal belongs to the UI, so logs go to a file.
	logPath := filepath.Join(os.TempDir(), "npc-console.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v\n", logPath, err)
		os.Exit(1)
	}
	defer func() {
		_ = logFile.Close() // Ignore error in defer
	}()
	log := logger.WithResponderID(logger.SetupTo(logFile, cfg), responderID)

	store := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, log)
	defer func() {
		_ = store.Close() // Ignore error in defer
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Could not connect to Redis at %s: %v\nTry: docker-compose up -d\n", cfg.RedisURL, err)
		os.Exit(1)
	}

	def, err := store.GetResponder(ctx, responderID)
	if err != nil {
		if errors.Is(err, storage.ErrResponderNotFound) {
			ids, _ := store.ListResponders(ctx)
			fmt.Fprintf(os.Stderr, "Unknown responder %q. Available: %v\n", responderID, ids)
		} else {
			fmt.Fprintf(os.Stderr, "Failed to load responder: %v\n", err)
		}
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	metrics := responder.NewMetrics(reg)

	clock := schedule.NewManual()
	input := newInputBox()
	subtitles := &subtitlePanel{}
	audio := &terminalAudio{clock: clock, clips: def.ClipLengths}

	r, err := responder.New(def.Config, responder.Collaborators{
		Audio:     audio,
		Clips:     def.ClipLengths,
		Subtitles: subtitles,
		Scheduler: clock,
	},
		responder.WithName(def.ID),
		responder.WithLogger(log),
		responder.WithMetrics(metrics))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create responder: %v\n", err)
		os.Exit(1)
	}
	r.Attach(input)
	defer r.Detach()

	if cfg.MetricsAddr != "" {
		go serveOps(cfg.MetricsAddr, reg, handlers.NewHealthHandler(store, r, log), log)
	}

	log.Info("Console started", "rules", len(def.Rules), "lock_while_speaking", def.LockWhileSpeaking)

	p := tea.NewProgram(NewConsoleUI(def, r, clock, input, subtitles, audio, cfg.TickInterval),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// serveOps exposes /metrics and /health alongside the console.
func serveOps(addr string, reg *prometheus.Registry, health http.Handler, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/health", health)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info("Serving metrics and health", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Metrics server stopped", "error", err)
	}
}
