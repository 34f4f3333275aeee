package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hassnap/einkscreen/api"
	"github.com/hassnap/einkscreen/browser"
	"github.com/hassnap/einkscreen/config"
	"github.com/hassnap/einkscreen/executor"
	"github.com/hassnap/einkscreen/facade"
	"github.com/hassnap/einkscreen/schedule"
	"github.com/hassnap/einkscreen/scheduler"
	"github.com/hassnap/einkscreen/serializer"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("haeinkd starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"haURL", cfg.HA.URL,
	)

	if cfg.HA.Token == "" && !cfg.HA.Mock {
		slog.Error("HA_TOKEN is required outside mock mode")
		os.Exit(1)
	}

	// ── 3. Initialise the browser driver and its facade ─────────────
	driver := browser.NewDriver(cfg.HA, cfg.Browser)
	fc := facade.New(cfg.Facade, driver)

	// ── 4. Initialise the serializer ─────────────────────────────────
	ser := serializer.New(cfg.Serializer, driver, fc)

	// ── 5. Initialise the schedule store, executor, and scheduler ───
	storePath := filepath.Join(cfg.Scheduler.OutputDir, "..", "schedules.json")
	store := schedule.NewFileStore(storePath)

	exec, err := executor.New(cfg.Scheduler, ser, slog.Default())
	if err != nil {
		slog.Error("failed to initialise executor", "error", err)
		os.Exit(1)
	}

	sched := scheduler.New(cfg.Scheduler, store, exec, slog.Default())
	sched.Start()

	// ── 6. Setup router ──────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(api.Router{
		Config:     cfg,
		Serializer: ser,
		Facade:     fc,
		Store:      store,
		Scheduler:  sched,
		StartTime:  startTime,
		StaticDir:  "static",
	})

	// ── 7. Start HTTP server ─────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 8. Graceful shutdown ─────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	shutdownDone := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		sched.Stop()

		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("HTTP server forced shutdown", "error", err)
		} else {
			slog.Info("HTTP server drained gracefully")
		}

		driver.Destroy()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		slog.Info("haeinkd stopped")
	case <-time.After(30 * time.Second):
		slog.Error("shutdown stalled past 30s, forcing exit")
		os.Exit(1)
	}
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
