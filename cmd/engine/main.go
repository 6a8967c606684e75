// Package main provides the entry point for the arbitrage and hedge engine.
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

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/arb-hedger/internal/api"
	"github.com/yourusername/arb-hedger/internal/arbitrage"
	"github.com/yourusername/arb-hedger/internal/budget"
	"github.com/yourusername/arb-hedger/internal/config"
	"github.com/yourusername/arb-hedger/internal/database"
	"github.com/yourusername/arb-hedger/internal/eligibility"
	"github.com/yourusername/arb-hedger/internal/health"
	"github.com/yourusername/arb-hedger/internal/hedge"
	"github.com/yourusername/arb-hedger/internal/logger"
	"github.com/yourusername/arb-hedger/internal/metrics"
	"github.com/yourusername/arb-hedger/internal/provider"
	"github.com/yourusername/arb-hedger/internal/publisher"
	"github.com/yourusername/arb-hedger/internal/repository"
	"github.com/yourusername/arb-hedger/internal/scheduler"
	"github.com/yourusername/arb-hedger/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to configuration file")
	flag.Parse()

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Secrets.Enabled {
		sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := config.LoadSecretsFromAWS(sctx, cfg, cfg.Secrets.Region, cfg.Secrets.Name)
		cancel()
		if err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := config.ValidateEnvironment(cfg); err != nil {
		log.Fatalf("Invalid environment: %v", err)
	}

	appLog := logger.New(cfg.App.LogLevel, cfg.App.Environment, os.Stdout)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"provider":    cfg.Provider.Mode,
		"version":     Version,
	}).Info("Arb hedger engine starting")

	if err := run(cfg, appLog); err != nil {
		appLog.WithError(err).Fatal("Engine stopped with error")
	}
	appLog.Info("Engine stopped")
}

func run(cfg *config.Config, appLog *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Initialize(ctx, cfg, appLog)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	repos, err := repository.NewRepositories(db)
	if err != nil {
		return err
	}

	odds, err := provider.New(cfg.Provider, appLog)
	if err != nil {
		return fmt.Errorf("provider: %w", err)
	}
	if cfg.IsSimulated() {
		appLog.Warn("Running with the simulated provider; all output is labelled simulated")
	}

	cacheTTL := seconds(cfg.Eligibility.CacheTTLSeconds)
	registry := eligibility.NewRegistry(cfg.Eligibility.Jurisdictions)
	filter := eligibility.NewFilter(registry, eligibility.NewTTLCache(cacheTTL, nil), appLog)
	tracker := budget.NewTracker(budgetConfig(cfg.Budget))
	audit := logger.NewAuditLogger(appLog)

	hub := api.NewHub(cfg.API.AllowedOrigins, appLog)
	publishers := service.Publishers{hub}
	if cfg.Redis.Enabled {
		client, err := publisher.NewRedisClient(ctx, cfg.Redis.URL, cfg.Redis.Password)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer func(c *redis.Client) { _ = c.Close() }(client)
		publishers = append(publishers, publisher.NewStreamPublisher(client, cfg.Redis.Stream, appLog))
	}

	ingestion := service.NewIngestionService(odds, filter, repos.Quote, repos.Market, tracker, ingestionConfig(cfg), appLog)
	arb := service.NewArbitrageService(arbitrage.NewDetector(detectorConfig(cfg.Arbitrage)), filter,
		repos.Quote, repos.Market, repos.Opportunity, publishers, arbitrageConfig(cfg), appLog)
	hedges := service.NewHedgeService(hedge.NewCalculator(hedgeConfig(cfg.Hedge)),
		repos.UserBet, repos.Market, repos.Quote, repos.Hedge, cfg.Arbitrage.QuoteMaxAge(), appLog)
	cleanup := service.NewCleanupService(repos.Opportunity, repos.Hedge, repos.Quote, cfg.Schedule.QuoteRetention(), appLog)
	bets := service.NewBetService(repos.UserBet, hedges, audit, appLog)
	scans := service.NewScanService(filter, ingestion, arb, odds, eligibility.NewTTLCache(cacheTTL, nil), audit, appLog)

	sched := scheduler.NewScheduler(repos.JobRun, audit, appLog)
	if err := scheduler.RegisterEngineJobs(sched, scheduler.Services{
		Ingestion: ingestion,
		Arbitrage: arb,
		Hedge:     hedges,
		Cleanup:   cleanup,
	}, cfg.Schedule); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	healthSrv := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Port:        cfg.Health.Port,
		GRPCPort:    cfg.Health.GRPCPort,
		Logger:      appLog,
		DB:          db,
		Credits:     tracker,
	})
	if err := healthSrv.Start(ctx); err != nil {
		return fmt.Errorf("health: %w", err)
	}

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		startMetricsServer(ctx, cfg.Metrics, appLog)
	}

	if cfg.API.Enabled {
		apiSrv := api.NewServer(api.Config{
			Port:           cfg.API.Port,
			AllowedOrigins: cfg.API.AllowedOrigins,
		}, api.Deps{
			Scans:         scans,
			Opportunities: arb,
			Jobs:          sched,
			Bets:          bets,
			Eligibility:   filter,
			Hub:           hub,
		}, appLog)
		if err := apiSrv.Start(ctx); err != nil {
			return fmt.Errorf("api: %w", err)
		}
	}

	if err := sched.Start(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	healthSrv.SetReady(true)
	appLog.Info("Engine ready")

	<-ctx.Done()
	appLog.Info("Shutdown signal received")
	healthSrv.SetReady(false)
	sched.Stop()
	return nil
}

func startMetricsServer(ctx context.Context, cfg config.MetricsConfig, appLog *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, metrics.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		appLog.WithField("port", cfg.Port).Info("Metrics server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.WithError(err).Error("Metrics server error")
		}
	}()
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()
}
