// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal services packages.
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

	"golang.org/x/sync/errgroup"

	"pointsd/internal/auditlog"
	auditmetrics "pointsd/internal/auditlog/metrics"
	auditstore "pointsd/internal/auditlog/store"
	ledgermetrics "pointsd/internal/ledger/metrics"
	"pointsd/internal/ledger/ports"
	"pointsd/internal/ledger/service"
	ledgerstore "pointsd/internal/ledger/store"
	"pointsd/internal/namecache"
	"pointsd/internal/platform/config"
	"pointsd/internal/platform/httpserver"
	"pointsd/internal/platform/logger"
	"pointsd/internal/platform/postgres"
	platformredis "pointsd/internal/platform/redis"
	httptransport "pointsd/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	var (
		balanceStore ports.BalanceStore
		auditStore   auditlog.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		balanceStore = ledgerstore.NewPostgres(db)
		auditStore = auditstore.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		balanceStore = ledgerstore.NewMemory()
		auditStore = auditstore.NewMemory()
		log.Warn("no database configured, using in-memory stores")
	}

	var names namecache.Cache = namecache.NewMemory(cfg.Redis.NameCacheTTL)
	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		names = namecache.NewRedis(redisClient.Client, cfg.Redis.NameCacheTTL)
		log.Info("using redis display name cache")
	}

	auditSvc, err := auditlog.New(auditStore,
		auditlog.Config{
			Enabled:    cfg.Audit.Enabled,
			MaxLog:     cfg.Audit.MaxLog,
			Retention:  auditlog.RetentionMode(cfg.Audit.RetentionMode),
			AllowedOps: cfg.Audit.AllowedOps,
		},
		auditlog.WithLogger(log),
		auditlog.WithMetrics(auditmetrics.New()),
	)
	if err != nil {
		return err
	}
	publisher := auditlog.NewPublisher(auditSvc, 256, log)

	ledgerSvc, err := service.New(balanceStore, publisher,
		service.WithLogger(log),
		service.WithMetrics(ledgermetrics.New()),
		service.WithInitialBalance(int64(cfg.Ledger.InitialBalance)),
	)
	if err != nil {
		return err
	}

	handler := httptransport.NewHandler(ledgerSvc, auditSvc, names, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := publisher.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		log.Info("starting pointsd", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
