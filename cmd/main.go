package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/chatline/relay-service/config"
	"github.com/chatline/relay-service/internal/moderation"
	"github.com/chatline/relay-service/internal/registry"
	"github.com/chatline/relay-service/internal/service"
	httpx "github.com/chatline/relay-service/internal/transport/http"
	"github.com/chatline/relay-service/internal/transport/ws"
	"github.com/chatline/relay-service/pkg/logger"
)

func main() {
	// --- config ---
	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting relay-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- moderation ---
	moderator, err := moderation.NewModerator(cfg.Relay.BannedWords)
	if err != nil {
		log.Fatalf("moderation: %v", err)
	}

	// --- registry & relay ---
	reg := registry.New()
	relay := service.NewRelayService(reg, moderator, cfg.Relay.Welcome)

	// --- WS Server ---
	wsServer := ws.NewServer(relay, cfg.PingEvery(), cfg.Relay.MaxMessageSize)

	// --- HTTP ---
	handler := httpx.NewHandler(relay)
	router := httpx.NewRouter(handler, wsServer, cfg.HTTP.StaticDir)
	httpSrv := &http.Server{
		Addr:        cfg.HTTP.Addr,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
