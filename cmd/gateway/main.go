package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Dr-Olami/APAFlow/internal/config"
	"github.com/Dr-Olami/APAFlow/internal/dispatch"
	"github.com/Dr-Olami/APAFlow/internal/gateway"
	"github.com/Dr-Olami/APAFlow/internal/market"
	"github.com/Dr-Olami/APAFlow/internal/server"
	"github.com/Dr-Olami/APAFlow/internal/storage"
	"github.com/Dr-Olami/APAFlow/internal/storage/sqlite"
	"github.com/Dr-Olami/APAFlow/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "apaflow.yaml", "path to config file")
	flag.Parse()

	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracer("apaflow-gateway", logger)
	if err != nil {
		logger.Error("failed to init telemetry", slog.String("error", err.Error()))
		os.Exit(1)
	}

	catalog, err := market.NewCatalog(cfg.Market.DefaultRegion)
	if err != nil {
		logger.Error("failed to build market catalog", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var audit storage.AuditStore
	if cfg.Storage.Path != "" {
		store, err := sqlite.New(cfg.Storage.Path)
		if err != nil {
			logger.Error("failed to open audit store", slog.String("error", err.Error()))
			os.Exit(1)
		}
		audit = store
	}

	policy := dispatch.DefaultRetryPolicy()
	if cfg.Backend.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.Backend.MaxAttempts
	}
	dispatcher := dispatch.New(cfg.Backend.BaseURL,
		dispatch.WithCredential(cfg.Backend.APIKey),
		dispatch.WithRetryPolicy(policy),
		dispatch.WithLogger(logger))

	opts := []gateway.Option{
		gateway.WithCatalog(catalog),
		gateway.WithDispatcher(dispatcher),
		gateway.WithLogger(logger),
	}
	if audit != nil {
		opts = append(opts, gateway.WithAuditStore(audit))
	}
	gw, err := gateway.New(opts...)
	if err != nil {
		logger.Error("failed to build gateway", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv := server.New(cfg.Server.Port, logger)
	server.NewHandler(gw, audit, logger).Register(srv.Router)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	logger.Info("gateway started",
		slog.Int("port", cfg.Server.Port),
		slog.String("backend", cfg.Backend.BaseURL),
		slog.String("default_region", catalog.DefaultRegion()))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("server failed", slog.String("error", err.Error()))
	case sig := <-stop:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", slog.String("error", err.Error()))
	}
	if audit != nil {
		if err := audit.Close(); err != nil {
			logger.Error("audit store close failed", slog.String("error", err.Error()))
		}
	}
	if err := shutdownTracer(ctx); err != nil {
		logger.Error("tracer shutdown failed", slog.String("error", err.Error()))
	}
}
