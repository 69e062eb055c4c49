// Command server runs the campaign management API: launch, stats, and
// tracking detail endpoints.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/Infifrontend/SOAR-AI-V1/internal/api"
	"github.com/Infifrontend/SOAR-AI-V1/internal/campaign"
	"github.com/Infifrontend/SOAR-AI-V1/internal/config"
	"github.com/Infifrontend/SOAR-AI-V1/internal/mailing"
	"github.com/Infifrontend/SOAR-AI-V1/internal/metrics"
	"github.com/Infifrontend/SOAR-AI-V1/internal/pkg/logger"
	"github.com/Infifrontend/SOAR-AI-V1/internal/repository/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err.Error())
		os.Exit(1)
	}

	metrics.Init()

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		logger.Error("failed to open database", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		logger.Error("database unreachable", "error", err.Error())
		os.Exit(1)
	}

	var cache *redis.Client
	if cfg.Redis.Enabled {
		cache = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := cache.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis unreachable, stats caching disabled", "error", err.Error())
			cache = nil
		}
	}

	transport, err := buildTransport(cfg)
	if err != nil {
		logger.Error("failed to initialize mail transport", "error", err.Error())
		os.Exit(1)
	}

	campaignRepo := postgres.NewCampaignRepo(db)
	trackingRepo := postgres.NewTrackingRepo(db)
	leadRepo := postgres.NewLeadRepo(db)

	dispatcher := mailing.NewDispatcher(mailing.DispatcherConfig{
		BatchSize:      cfg.Dispatch.BatchSize,
		RatePerSecond:  cfg.Dispatch.RatePerSecond,
		SendTimeout:    cfg.Mail.Timeout(),
		LogDir:         cfg.Dispatch.LogDir,
		FromEmail:      cfg.Mail.FromEmail,
		FromName:       cfg.Mail.FromName,
		DefaultCTA:     cfg.Dispatch.DefaultCTA,
		DefaultCTALink: cfg.Dispatch.DefaultCTALink,
	}, mailing.NewTemplateService(), trackingRepo, transport, cfg.Tracking.BaseURL)

	svc := campaign.NewService(campaignRepo, trackingRepo, leadRepo, dispatcher, cache)

	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.SetupRoutes(api.NewHandlers(svc)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("campaign server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("listen failed", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down campaign server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err.Error())
	}
}

func buildTransport(cfg *config.Config) (mailing.Transport, error) {
	switch cfg.Mail.Provider {
	case "ses":
		return mailing.NewSESTransport(context.Background(), cfg.Mail.SESRegion,
			os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY"))
	default:
		return mailing.NewSMTPTransport(cfg.Mail.SMTPHost, cfg.Mail.SMTPPort,
			cfg.Mail.SMTPUser, cfg.Mail.SMTPPassword), nil
	}
}
