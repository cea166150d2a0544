package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/LusX0117/itemsharing/api"
	"github.com/LusX0117/itemsharing/auth"
	"github.com/LusX0117/itemsharing/config"
	"github.com/LusX0117/itemsharing/policy"
	"github.com/LusX0117/itemsharing/storage"
	"github.com/LusX0117/itemsharing/store"
)

func main() {
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	log.Info().
		Int("port", cfg.HTTPPort).
		Str("database", cfg.DatabaseURL).
		Str("media_dir", cfg.MediaDir).
		Msg("starting itemsharing server")

	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer db.Close()

	ctx := context.Background()
	admin := store.SeedAdmin{
		Phone:    cfg.AdminPhone,
		Nickname: cfg.AdminNickname,
		Password: cfg.AdminPassword,
	}
	if err := store.Seed(ctx, db, auth.HashPassword, admin); err != nil {
		log.Fatal().Err(err).Msg("failed to seed database")
	}

	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize policy engine")
	}

	media, err := storage.NewMediaStore(cfg.MediaDir, cfg.MediaBaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize media store")
	}

	h := api.NewHandler(db, policyEngine, media, log)

	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	h.RegisterRoutes(e)
	e.Static(cfg.MediaBaseURL, cfg.MediaDir)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	log.Info().Int("port", cfg.HTTPPort).Msg("API started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown gracefully")
	}

	log.Info().Msg("server stopped")
}
