package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"

	"github.com/ssm-official/tinyswap/internal/infrastructure/aggregator"
	"github.com/ssm-official/tinyswap/internal/infrastructure/configloader"
	"github.com/ssm-official/tinyswap/internal/infrastructure/network/client"
	networkdefinition "github.com/ssm-official/tinyswap/internal/infrastructure/network/definition"
	"github.com/ssm-official/tinyswap/internal/infrastructure/restapi"
	"github.com/ssm-official/tinyswap/internal/infrastructure/tokenstore"
	"github.com/ssm-official/tinyswap/internal/pkg/logger"
	"github.com/ssm-official/tinyswap/internal/pkg/metrics"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	zapLogger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer zapLogger.Sync()

	// Route slog (and the port.Logger adapter on top of it) through the zap
	// core so the whole service logs in one format.
	slogHandler := zapslog.NewHandler(zapLogger.Core())
	slog.SetDefault(slog.New(slogHandler))
	logger.SetHandler(slogHandler)
	portLogger := logger.NewSlogAdapter()

	cfgPath := getEnv("CONFIG_PATH", "config/config.yaml")
	cfg, err := configloader.Load(cfgPath)
	if err != nil {
		zapLogger.Fatal("Failed to load configuration", zap.String("path", cfgPath), zap.Error(err))
	}
	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

	metrics.MustRegisterMetrics()

	tokenStore := tokenstore.NewFileTokenStore(
		cfg.TokenStore.Directory,
		time.Duration(cfg.TokenStore.CacheTTLMinutes)*time.Minute,
		portLogger,
	)
	registry := networkdefinition.NewRegistry(portLogger, tokenStore, cfg.Networks)
	quoteClient := aggregator.NewClient(cfg.Aggregator, cfg.Fee, registry, zapLogger)
	zapLogger.Info("Aggregator client initialized", zap.Int("networks", len(registry.AllNetworks())))

	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))
	router.Use(restapi.ZapLoggerMiddleware(zapLogger))
	router.Use(gin.Recovery())

	var executeHandler *restapi.ExecuteHandler
	if cfg.Wallet.PrivateKey != "" {
		walletProvider := client.NewEVMWalletProvider(cfg, zapLogger)
		executeHandler = restapi.NewExecuteHandler(quoteClient, registry, walletProvider, cfg, portLogger)
		zapLogger.Info("Headless swap execution enabled")
	} else {
		zapLogger.Info("No wallet key configured; serving price and quote endpoints only")
	}

	restapi.SetupRouter(router,
		restapi.NewSwapHandler(quoteClient, cfg, portLogger),
		restapi.NewTokenHandler(registry, tokenStore, portLogger),
		executeHandler,
	)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zapLogger.Info("Server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exiting")
}
