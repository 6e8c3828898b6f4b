package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tourneyhub/tourney-client/infrastructure/config"
	"github.com/tourneyhub/tourney-client/infrastructure/service/jwt"
	"github.com/tourneyhub/tourney-client/infrastructure/service/logger"
	"github.com/tourneyhub/tourney-client/internal/fakebackend"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	structuredLogger := logger.NewStructuredLogger(logger.LoggerConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "devbackend",
	})

	backend, err := fakebackend.New(fakebackend.Options{
		Tokens: jwt.SignerConfig{
			AccessSecret:    cfg.DevBackend.JWTSecret,
			RefreshSecret:   cfg.DevBackend.RefreshSecret,
			AccessTokenTTL:  cfg.DevBackend.AccessTokenTTL,
			RefreshTokenTTL: cfg.DevBackend.RefreshTokenTTL,
		},
		Logger: structuredLogger,
	})
	if err != nil {
		log.Fatalf("Failed to initialize backend: %v", err)
	}

	if cfg.DevBackend.SeedEmail != "" {
		admin, err := backend.SeedUser(cfg.DevBackend.SeedEmail, cfg.DevBackend.SeedPassword, "admin")
		if err != nil {
			log.Fatalf("Failed to seed admin user: %v", err)
		}
		structuredLogger.Info(ctx, "Seeded admin user", map[string]interface{}{
			"email":   admin.Email,
			"user_id": admin.ID,
		})
	}

	server := &http.Server{
		Addr:         cfg.DevBackend.Addr(),
		Handler:      backend.Router(fakebackend.RouterOptions{AllowUserIDHeader: cfg.DevMode}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		structuredLogger.Info(ctx, "Starting development backend", map[string]interface{}{
			"addr":              server.Addr,
			"access_token_ttl":  cfg.DevBackend.AccessTokenTTL.String(),
			"user_id_header_on": cfg.DevMode,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			structuredLogger.Error(ctx, "Server failed to start", err, map[string]interface{}{
				"addr": server.Addr,
			})
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	structuredLogger.Info(ctx, "Shutting down server...", map[string]interface{}{})

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		structuredLogger.Error(ctx, "Server forced to shutdown", err, map[string]interface{}{})
	}
	structuredLogger.Info(ctx, "Server exited", map[string]interface{}{})
}
