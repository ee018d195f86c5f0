// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gatepass/internal/config"
	"gatepass/internal/domain/ports/adapter"
	"gatepass/internal/domain/ports/repository"
	enc "gatepass/internal/infra/adapters/encoder"
	pg "gatepass/internal/infra/db/postgres"
	"gatepass/internal/infra/logging"
	"gatepass/internal/infra/metrics"
	red "gatepass/internal/infra/redis"
	"gatepass/internal/infra/sched"
	"gatepass/internal/infra/web"
	"gatepass/internal/infra/worker"
	"gatepass/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, noop encoder)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Runtime.Dev {
		log.Printf("[DEV MODE] Enabled")
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 15*time.Second)

	// ---- Repositories ----
	var passRepo repository.PassRepository = pg.NewPassRepo(pool)
	eventRepo := pg.NewScanEventRepo(pool)

	// ---- Redis cache (optional) ----
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer redisClient.Close()
		passRepo = pg.NewPassRepoCacheDecorator(passRepo, redisClient, cfg.Redis.TTL)
		logger.Info().Str("url", cfg.Redis.URL).Msg("pass cache enabled")
	}

	// ---- Encoder (HTTP service -> noop fallback) ----
	var encoder adapter.Encoder
	if cfg.Encoder.Endpoint != "" && !cfg.Runtime.Dev {
		encoder, err = enc.NewHTTPEncoder(cfg.Encoder.Endpoint)
		if err != nil {
			log.Fatalf("encoder: %v", err)
		}
	} else {
		encoder = enc.NewNoopEncoder()
	}
	logger.Info().Str("encoder", encoder.Name()).Msg("image encoder selected")

	style := adapter.EncodeStyle{
		Foreground: cfg.Encoder.Foreground,
		Background: cfg.Encoder.Background,
		Size:       cfg.Encoder.Size,
	}

	// ---- Async scan audit pool ----
	auditPool := worker.NewPool(4)
	auditPool.Start(ctx)
	defer auditPool.Stop()

	// ---- Use cases ----
	passUC := usecase.NewPassUseCase(passRepo, eventRepo, pg.NewTxManager(pool), encoder, cfg.Server.ScanURLBase, style, logger)
	redeemUC := usecase.NewRedeemUseCase(passRepo, eventRepo, cfg.Location(), auditPool, logger)

	// ---- Cleanup worker ----
	cleanup := sched.NewCleanupWorker(cfg.Cleanup.Interval, cfg.Cleanup.Retention, passRepo, logger)
	go func() { _ = cleanup.Run(ctx) }()

	// ---- HTTP server ----
	srv := web.NewServer(passUC, redeemUC, cfg.Server.AdminAPIKey, cfg.Server.ScannerJWTSecret, cfg.Runtime.Dev, logger)
	go func() {
		if err := srv.Start(cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
		logger.Info().Msg("shutdown requested")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
}
