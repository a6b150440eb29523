package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"jeonsevault-wallet/internal/adapter/delivery/http"
	handler "jeonsevault-wallet/internal/adapter/handler/http"
	"jeonsevault-wallet/internal/adapter/rpc"
	"jeonsevault-wallet/internal/adapter/storage/chaintable"
	"jeonsevault-wallet/internal/adapter/storage/memory"
	"jeonsevault-wallet/internal/application"
	"jeonsevault-wallet/internal/config"
	"jeonsevault-wallet/internal/logger"
	"jeonsevault-wallet/internal/metrics"
	"jeonsevault-wallet/internal/query"
	"jeonsevault-wallet/internal/registry"
)

func main() {
	// --- Configuration ---
	cfgPath := "configs"
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration from %s: %v", cfgPath, err)
	}

	// --- Logger ---
	appLogger, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to setup logger: %v", err)
	}
	defer appLogger.Sync()
	appLogger.Info("Logger initialized", zap.Any("config", cfg.Logger))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Wallet configuration ---
	specs, err := chaintable.NewRepository(appLogger).Specs()
	if err != nil {
		appLogger.Fatal("Failed to load chain table", zap.Error(err))
	}
	wallet, substitutions := registry.ResolveConfig(cfg.WalletEnv(), specs)
	for _, sub := range substitutions {
		appLogger.Warn("Wallet configuration incomplete, using fallback",
			zap.String("field", sub.Field),
			zap.String("fallback", sub.Fallback),
			zap.String("reason", sub.Reason),
		)
	}
	appLogger.Info("Wallet configuration resolved",
		zap.Int("chains", len(wallet.Chains())),
		zap.Int("connectors", len(wallet.Connectors())),
		zap.String("storageKey", wallet.StorageKey()),
	)

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := metrics.NewPrometheusRecorder(reg)
	if err != nil {
		appLogger.Fatal("Failed to register metrics", zap.Error(err))
	}

	// --- Dependency Injection (Manual) ---
	appLogger.Info("Initializing dependencies...")

	store := memory.NewQueryStore(cfg.Query, appLogger)
	cache := query.NewCache(store, cfg.Query, recorder, appLogger)
	defer cache.Close()

	provider, err := application.NewSessionProvider(wallet, cache, recorder, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create session provider", zap.Error(err))
	}

	rpcClient := rpc.NewClient(cfg.Checker.GetTimeout(), appLogger)
	rpcChecker := rpc.NewChecker(rpcClient, appLogger)
	chainService := application.NewChainService(rootCtx, wallet, cache, rpcClient, rpcChecker, appLogger, cfg.Checker)

	chainHandler := handler.NewChainHandler(chainService, cfg.Server.RequestTimeout, appLogger)
	sessionHandler := handler.NewSessionHandler(provider, appLogger)

	// --- HTTP Router & Server ---
	appLogger.Info("Setting up HTTP router...")
	r := router.New()
	http.RegisterRoutes(r, provider, chainHandler, sessionHandler, reg, appLogger)

	server := &fasthttp.Server{
		Handler: http.LoggingMiddleware(appLogger, r.Handler),
		Name:    cfg.App.Name,
	}

	serverAddr := ":" + cfg.Server.Port
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("address", serverAddr))
		if err := server.ListenAndServe(serverAddr); err != nil {
			appLogger.Error("HTTP server stopped", zap.Error(err))
			stop()
		}
	}()

	<-rootCtx.Done()
	appLogger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(); err != nil {
		appLogger.Error("Failed to shut down HTTP server", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
