package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/crm/internal/api/http"
	"github.com/spec-kit/crm/internal/api/http/handlers"
	"github.com/spec-kit/crm/internal/app"
	"github.com/spec-kit/crm/internal/auth"
	"github.com/spec-kit/crm/internal/config"
	"github.com/spec-kit/crm/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	core, err := app.NewCore(cfg, logger)
	if err != nil {
		logger.Fatal("failed to build core", zap.Error(err))
	}
	repos, infra, err := app.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect storage", zap.Error(err))
	}
	defer infra.Close()

	services := core.Services(repos)

	deps := map[string]handlers.Pinger{"postgres": infra.Postgres}
	if infra.Redis != nil {
		deps["redis"] = infra.Redis
	}

	server := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(server, logger, core.Metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(server, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Auth:           handlers.NewAuthHandler(services.Auth),
		Clients:        handlers.NewClientsHandler(services.Clients),
		Records:        handlers.NewRecordsHandler(services.Contracts, services.Events, services.Collaborators),
		Metrics:        handlers.NewMetricsHandler(core.Metrics),
		AuthMiddleware: auth.NewMiddleware(services.Guard),
	})

	go func() {
		if err := server.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = server.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
