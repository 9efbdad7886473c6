package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hakikicode/SmartDesign/handlers"
	"github.com/hakikicode/SmartDesign/pkg/appenv"
	"github.com/hakikicode/SmartDesign/repository"
	"github.com/hakikicode/SmartDesign/websocket"

	"github.com/gin-gonic/gin"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := appenv.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	// Set Gin to release mode in production
	if os.Getenv("GIN_MODE") == "release" || appenv.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Configure trusted proxies for correct client IP handling in production
	var trustedProxies []string
	if raw := os.Getenv("TRUSTED_PROXIES"); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				trustedProxies = append(trustedProxies, p)
			}
		}
	}

	// The log lives only in process memory and is lost on restart.
	updatesRepo := repository.NewUpdatesRepository()
	hub := websocket.NewHub()

	r, err := handlers.NewRouter(handlers.RouterDeps{
		Repo:             updatesRepo,
		Hub:              hub,
		MaxMessageLength: cfg.MaxMessageLength,
		TrustedProxies:   trustedProxies,
	})
	if err != nil {
		log.Fatalf("Invalid TRUSTED_PROXIES: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("update service listening", "addr", srv.Addr, "env", appenv.Current())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed: ", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "err", err)
	}
	slog.Info("update service stopped", "updates", updatesRepo.Len())
}
