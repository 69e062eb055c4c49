// Command tracking runs the public tracking server hit by mail clients:
// open beacons and click redirects.
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

	"github.com/Infifrontend/SOAR-AI-V1/internal/campaign"
	"github.com/Infifrontend/SOAR-AI-V1/internal/config"
	"github.com/Infifrontend/SOAR-AI-V1/internal/metrics"
	"github.com/Infifrontend/SOAR-AI-V1/internal/pkg/logger"
	"github.com/Infifrontend/SOAR-AI-V1/internal/repository/postgres"
	"github.com/Infifrontend/SOAR-AI-V1/internal/tracking"
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
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
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

	campaignRepo := postgres.NewCampaignRepo(db)
	trackingRepo := postgres.NewTrackingRepo(db)

	// The refresher resyncs campaign counters after each ingested event.
	// No dispatcher here; the tracking server never sends mail.
	refresher := campaign.NewService(campaignRepo, trackingRepo, nil, nil, cache)
	svc := tracking.NewService(trackingRepo, refresher)
	handler := tracking.NewHandler(svc, cfg.Tracking.FallbackURL)

	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Tracking.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("tracking server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("listen failed", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down tracking server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err.Error())
	}
}
