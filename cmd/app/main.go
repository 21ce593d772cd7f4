package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smm-reseller/internal/config"
	"smm-reseller/internal/infra/adapters/smm"
	"smm-reseller/internal/infra/api"
	pg "smm-reseller/internal/infra/db/postgres"
	"smm-reseller/internal/infra/i18n"
	"smm-reseller/internal/infra/logging"
	"smm-reseller/internal/infra/metrics"
	red "smm-reseller/internal/infra/redis"
	"smm-reseller/internal/infra/sched"
	"smm-reseller/internal/infra/security"
	"smm-reseller/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, verbose)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.PoolSize)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	providerRepo := pg.NewProviderRepo(pool)
	serviceRepo := pg.NewServiceRepoCacheDecorator(pg.NewServiceRepo(pool), redisClient, cfg.Redis.CacheTTL)
	keyRepo := pg.NewKeyRepo(pool)
	orderRepo := pg.NewOrderRepo(pool)
	activityRepo := pg.NewActivityLogRepo(pool)
	sessionRepo := pg.NewAdminSessionRepo(pool)
	userRepo := pg.NewUserRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Upstream panel client ----
	panelClient := smm.NewPanelClient(cfg.Sync.RequestTimeout)

	// ---- Use cases ----
	tokenManager := security.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	orderUC := usecase.NewOrderUseCase(keyRepo, serviceRepo, orderRepo, activityRepo, txManager, logger)
	keyUC := usecase.NewKeyUseCase(keyRepo, serviceRepo, activityRepo, logger)
	catalogUC := usecase.NewCatalogUseCase(providerRepo, serviceRepo, activityRepo, panelClient, txManager, logger)
	sessionUC := usecase.NewSessionUseCase(sessionRepo, activityRepo, cfg.Admin, logger)
	userUC := usecase.NewUserUseCase(userRepo, tokenManager, logger)

	// ---- HTTP server ----
	translator, err := i18n.NewTranslator(i18n.LocalesFS, cfg.I18n.Language)
	if err != nil {
		log.Fatalf("i18n: %v", err)
	}
	srv := api.NewServer(orderUC, keyUC, catalogUC, sessionUC, userUC, rateLimiter, translator, cfg, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Order reconciler ----
	reconciler := sched.NewOrderReconciler(orderRepo, serviceRepo, providerRepo, activityRepo, panelClient, cfg.Reconciler, logger)
	go reconciler.Run(ctx)

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
}
