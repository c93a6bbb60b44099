package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/app"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/config"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/settings"
	logpkg "github.com/kailas-cloud/chatnoir-retrieve/internal/logger"
	chiTransport "github.com/kailas-cloud/chatnoir-retrieve/internal/transport/chi"
	healthuc "github.com/kailas-cloud/chatnoir-retrieve/internal/usecase/health"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting chatnoir-retrieve API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.Strings("cache_addrs", cfg.Cache.Addrs),
	)

	ctx := context.Background()
	stack, err := app.NewStack(ctx, cfg, nil, logger)
	if err != nil {
		logger.Fatal("Failed to build retrieval stack", zap.Error(err))
	}
	defer stack.Close()

	base, err := cfg.Settings()
	if err != nil {
		logger.Fatal("Invalid retrieval settings", zap.Error(err))
	}
	defaultRetriever, err := stack.Retriever(base)
	if err != nil {
		logger.Fatal("Failed to create retriever", zap.Error(err))
	}
	logger.Info("Retriever ready",
		zap.Strings("indices", base.Indices.Strings()),
		zap.String("features", base.Features.String()),
		zap.String("endpoint", base.Endpoint()),
		zap.String("config_hash", defaultRetriever.Hash()),
	)

	// The cache store is only a health dependency when one is configured.
	var cachePinger healthuc.StorePinger
	if stack.Store != nil {
		cachePinger = stack.Store
	}
	healthSvc := healthuc.New(stack.Client, cachePinger)

	build := func(s settings.Settings) (chiTransport.Retriever, error) {
		return stack.Retriever(s)
	}
	server := chiTransport.NewServer(defaultRetriever, build, healthSvc, logger)
	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{APIKeys: cfg.Auth.APIKeys}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
