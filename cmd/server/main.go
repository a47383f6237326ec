package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dgallion1/docquest/internal/api"
	"github.com/dgallion1/docquest/internal/config"
	"github.com/dgallion1/docquest/internal/ingest"
	"github.com/dgallion1/docquest/internal/llm"
	"github.com/dgallion1/docquest/internal/qa"
	"github.com/dgallion1/docquest/internal/session"
	"github.com/dgallion1/docquest/internal/tokens"
	"github.com/dgallion1/docquest/internal/watcher"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Optional .env for local development; real deployments set env vars.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model := llm.NewAzureClient(llm.Config{
		Endpoint:   cfg.AzureEndpoint,
		APIKey:     cfg.APIKey,
		APIVersion: cfg.APIVersion,
		Model:      cfg.Model,
		MaxTokens:  cfg.AnswerMaxTokens,
	})

	counter := tokens.NewCounter(tokens.ParseScheme(cfg.TokenScheme))
	sess := session.New()
	coord := ingest.NewCoordinator(log, cfg.ExtractWorkers)
	orch := qa.NewOrchestrator(model, counter, cfg.MaxInputTokens, log)

	// Optional drop-directory ingestion.
	var wtch *watcher.Watcher
	if cfg.WatchDir != "" {
		var err error
		wtch, err = watcher.New(coord, sess.Store(), log)
		if err != nil {
			log.Error("create watcher", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := wtch.Watch(ctx, cfg.WatchDir); err != nil {
				log.Error("watcher stopped", "error", err)
			}
		}()
	}

	srv := api.NewServer(sess, coord, orch, model, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		cancel()
		if wtch != nil {
			wtch.Stop()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		model.Close()
	}()

	log.Info("starting docquest", "port", cfg.Port, "model", cfg.Model, "session_id", sess.ID())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
