package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/snapedit/internal/api"
	"github.com/dgallion1/snapedit/internal/config"
	"github.com/dgallion1/snapedit/internal/coursestore"
	"github.com/dgallion1/snapedit/internal/doctree"
	"github.com/dgallion1/snapedit/internal/fragment"
	"github.com/dgallion1/snapedit/internal/importer"
	"github.com/oklog/ulid/v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load configuration", "error", err)
		os.Exit(1)
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: config.ParseLevel(cfg.LogLevel)}))

	if cfg.SessKey == "" {
		cfg.SessKey = ulid.Make().String()
		log.Info("generated session key", "sesskey", cfg.SessKey)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	course, err := seed(cfg)
	if err != nil {
		log.Error("seed course", "file", cfg.SeedFile, "error", err)
		os.Exit(1)
	}
	course.ID = cfg.Course.ID
	store := coursestore.New(course)

	srv := api.NewServer(store, fragment.NewRenderer(), log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting snapedit backend",
		"port", cfg.Port,
		"course", cfg.Course.ID,
		"format", cfg.Course.Format,
		"partial_render", cfg.Course.PartialRender,
		"sections", len(course.Sections),
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func seed(cfg config.Config) (*doctree.Course, error) {
	if cfg.SeedFile == "" {
		return importer.DemoCourse(8), nil
	}
	return importer.LoadCourse(cfg.SeedFile)
}
