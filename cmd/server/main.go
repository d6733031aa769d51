package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"realsociety/internal/ai"
	"realsociety/internal/app"
	"realsociety/internal/config"
	"realsociety/internal/server"
	"realsociety/internal/storage"
	"realsociety/internal/store"
	"realsociety/internal/token"
	"realsociety/internal/util"
	"realsociety/internal/youtube"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		util.Fatal("failed to load config", "error", err)
	}
	logger := util.InitLogger(cfg.LogLevel, "realsociety")

	ttl, err := config.ParseTokenTTL(cfg.JWTTTL)
	if err != nil {
		util.Fatal("failed to parse token TTL", "error", err)
	}
	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		jwtSecret = "dev-secret-change-me"
		logger.Warn("JWT_SECRET not set, using insecure development secret")
	}
	issuer, err := token.NewIssuer(jwtSecret, ttl)
	if err != nil {
		util.Fatal("failed to init token issuer", "error", err)
	}

	var dataStore store.Store
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory store; data will not survive restarts")
		dataStore = store.NewMemoryStore()
	} else {
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			util.Fatal("failed to init postgres store", "error", err)
		}
	}

	var assistant *ai.Assistant
	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGeminiClient(cfg.GeminiAPIKey, "", "")
		if err != nil {
			util.Fatal("failed to init gemini client", "error", err)
		}
		assistant = ai.NewAssistant(gemini)
	} else {
		logger.Warn("GEMINI_API_KEY not set, assistant replies are mocked")
		assistant = ai.NewAssistant(&ai.MockProvider{})
	}

	var photos storage.ObjectStore
	if cfg.MinioEndpoint != "" {
		photos, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			util.Fatal("failed to init photo storage", "error", err)
		}
	} else {
		logger.Warn("MINIO_ENDPOINT not set, profile photo uploads disabled")
	}

	appCore, err := app.New(app.Config{
		Store:     dataStore,
		Tokens:    issuer,
		Assistant: assistant,
		Videos:    youtube.NewClient(cfg.YouTubeAPIKey),
		Photos:    photos,
	})
	if err != nil {
		util.Fatal("failed to init app", "error", err)
	}

	httpServer, err := server.New(server.Config{
		App:                   appCore,
		Tokens:                issuer,
		RedisAddr:             cfg.RedisAddr,
		RedisPassword:         cfg.RedisPassword,
		SignupRateLimitPerMin: cfg.SignupRateLimitPerMin,
		LoginRateLimitPerMin:  cfg.LoginRateLimitPerMin,
		AIRateLimitPerMin:     cfg.AIRateLimitPerMin,
		MaxPhotoUploadBytes:   cfg.MaxPhotoUploadBytes,
		TrustedProxies:        cfg.TrustedProxyCIDRs,
	})
	if err != nil {
		util.Fatal("failed to init server", "error", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := group.Wait(); err != nil {
		util.Fatal("server error", "error", err)
	}
}
