package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/farmlinkgh/wallet-backend/internal/api"
	"github.com/farmlinkgh/wallet-backend/internal/api/handlers"
	"github.com/farmlinkgh/wallet-backend/internal/config"
	"github.com/farmlinkgh/wallet-backend/internal/db"
	"github.com/farmlinkgh/wallet-backend/internal/events"
	eventskafka "github.com/farmlinkgh/wallet-backend/internal/events/kafka"
	"github.com/farmlinkgh/wallet-backend/internal/gateway"
	"github.com/farmlinkgh/wallet-backend/internal/logger"
	"github.com/farmlinkgh/wallet-backend/internal/metrics"
	"github.com/farmlinkgh/wallet-backend/internal/notify"
	"github.com/farmlinkgh/wallet-backend/internal/reconcile"
	"github.com/farmlinkgh/wallet-backend/internal/repository/postgres"
	"github.com/farmlinkgh/wallet-backend/internal/services"
	"github.com/farmlinkgh/wallet-backend/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if os.Getenv("APP_MIGRATE") == "true" {
		if err := db.RunMigrations(ctx, pool); err != nil {
			log.Error("migrations", "err", err)
			os.Exit(1)
		}
	}

	repos := postgres.NewRepositories(pool)
	wp := worker.NewPool(4)
	defer wp.Stop()

	hub := notify.NewHub()

	var pub events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := eventskafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		pub = kp
	}

	gw := gateway.NewHTTPGateway(cfg.GatewayURL, cfg.GatewaySecret)

	walletSvc := services.NewWalletService(repos.Transactions, repos.LinkedAccounts, repos.AuditLogs, gw, wp, log)
	settlementSvc := services.NewSettlementService(repos.Transactions, repos.AuditLogs, hub, pub, wp, log)
	reconcileSvc := services.NewReconcileService(repos.Transactions, repos.AuditLogs, settlementSvc,
		reconcile.NewHTTPExtractor(cfg.ExtractorURL), log)

	metrics.Init()
	r := api.NewRouter(api.RouterDeps{
		Cfg:       cfg,
		Wallet:    handlers.NewWalletHandler(walletSvc, hub),
		Webhook:   handlers.NewWebhookHandler(settlementSvc, log),
		Reconcile: handlers.NewReconcileHandler(reconcileSvc, settlementSvc),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
