package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/boardblitz/boardblitz/internal/api"
	"github.com/boardblitz/boardblitz/internal/config"
	"github.com/boardblitz/boardblitz/internal/factory"
	"github.com/boardblitz/boardblitz/internal/services/auth"
	"github.com/boardblitz/boardblitz/internal/services/session"
	redisstorage "github.com/boardblitz/boardblitz/internal/storage/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	sessionCfg := session.DefaultConfig()
	sessionCfg.ClaimAfter = cfg.ClaimAfter
	sessionCfg.ForfeitAfter = cfg.ForfeitAfter
	sessionCfg.SweepInterval = cfg.SweepInterval

	factoryCfg := factory.Config{
		Logger:        logger,
		StorageType:   cfg.StorageType,
		SQLitePath:    cfg.SQLitePath,
		SessionConfig: sessionCfg,
		AuthConfig:    auth.Config{SessionDuration: cfg.SessionDuration},
	}

	if cfg.StorageType == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		factoryCfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := app.Store.Close(); err != nil {
			logger.Warn("error closing store", slog.Any("error", err))
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		AuthService: app.AuthService,
		Coordinator: app.Coordinator,
		Store:       app.Store,
		WSHandler:   app.WSHandler,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Host
	serverConfig.Port = cfg.Port
	server := api.NewServer(router, serverConfig, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go app.Sweeper.Run(ctx)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}
