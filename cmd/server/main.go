package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/perryops/periaudit/internal/api"
	"github.com/perryops/periaudit/internal/config"
	"github.com/perryops/periaudit/internal/model"
	"github.com/perryops/periaudit/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Model gateways: remote for report structuring and action
	// generation, local ollama for compliance auditing.
	remote := model.NewRemoteClient(model.RemoteConfig{
		BaseURL: cfg.RemoteBaseURL,
		APIKey:  cfg.RemoteAPIKey,
		Model:   cfg.RemoteModel,
		Timeout: cfg.RemoteTimeout,
	}, log)
	ollama := model.NewOllamaClient(model.OllamaConfig{
		BaseURL:    cfg.OllamaURL,
		Model:      cfg.OllamaModel,
		Timeout:    cfg.OllamaTimeout,
		FormatJSON: cfg.OllamaFormatJSON,
	}, log)

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, remote, ollama, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		remote.Close()
		ollama.Close()
	}()

	log.Info("starting periaudit", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
