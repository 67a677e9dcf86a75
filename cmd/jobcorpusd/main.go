// Package main wires together the job corpus service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/joblens/jobcorpus/internal/api"
	"github.com/joblens/jobcorpus/internal/clock/system"
	"github.com/joblens/jobcorpus/internal/config"
	"github.com/joblens/jobcorpus/internal/corpus"
	"github.com/joblens/jobcorpus/internal/extract"
	"github.com/joblens/jobcorpus/internal/fetcher"
	"github.com/joblens/jobcorpus/internal/ingest"
	"github.com/joblens/jobcorpus/internal/logging"
	"github.com/joblens/jobcorpus/internal/scheduler"
	"github.com/joblens/jobcorpus/internal/store/memory"
	"github.com/joblens/jobcorpus/internal/store/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		store  corpus.Store
		pinger api.Pinger
	)
	if cfg.DB.DSN != "" {
		pgStore, err := postgres.New(ctx, postgres.Config{
			DSN:      cfg.DB.DSN,
			MaxConns: cfg.DB.MaxConns,
			MinConns: cfg.DB.MinConns,
		})
		if err != nil {
			logger.Fatal("postgres init failed", zap.Error(err))
		}
		defer pgStore.Close()
		store = pgStore
		pinger = pgStore
	} else {
		logger.Warn("no db.dsn configured, using in-memory store")
		store = memory.New()
	}

	for _, src := range cfg.Sources {
		company := corpus.Company{
			ID:     src.ID,
			Ticker: src.Ticker,
			Name:   src.Name,
			Source: corpus.SourceConfig{
				URL:       src.URL,
				BaseURL:   src.BaseURL,
				Extractor: src.Extractor,
			},
		}
		if err := store.UpsertCompany(ctx, company); err != nil {
			logger.Fatal("seed company failed", zap.String("company_id", src.ID), zap.Error(err))
		}
	}

	limiter := fetcher.NewDomainLimiter(cfg.Ingest.PerDomainRPS, cfg.Ingest.PerDomainBurst)
	fetch := fetcher.New(fetcher.Config{
		UserAgent:      cfg.HTTP.UserAgent,
		RespectRobots:  cfg.HTTP.RespectRobots,
		Timeout:        cfg.FetchTimeout(),
		MaxRetries:     cfg.HTTP.MaxRetries,
		BackoffInitial: cfg.BackoffInitial(),
		BackoffMax:     cfg.BackoffMax(),
	}, limiter, logger.Named("fetcher"))

	runner := ingest.NewRunner(store, fetch, extract.NewRegistry(), system.New(), logger.Named("ingest"))

	sched := scheduler.New(runner, store, cfg.Ingest.Schedule, cfg.Ingest.Concurrency, logger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		logger.Fatal("scheduler start failed", zap.Error(err))
	}
	defer sched.Stop()

	apiServer := api.NewServer(store, runner, pinger, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
