// Package main wires together the SEO analysis service.
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

	"github.com/seoscout/seoscout/internal/agents"
	"github.com/seoscout/seoscout/internal/analyzer"
	"github.com/seoscout/seoscout/internal/api"
	"github.com/seoscout/seoscout/internal/clock/system"
	"github.com/seoscout/seoscout/internal/collector"
	"github.com/seoscout/seoscout/internal/config"
	"github.com/seoscout/seoscout/internal/history"
	historymemory "github.com/seoscout/seoscout/internal/history/memory"
	historypostgres "github.com/seoscout/seoscout/internal/history/postgres"
	historysqlite "github.com/seoscout/seoscout/internal/history/sqlite"
	"github.com/seoscout/seoscout/internal/id/uuid"
	"github.com/seoscout/seoscout/internal/keepalive"
	"github.com/seoscout/seoscout/internal/llm"
	"github.com/seoscout/seoscout/internal/logging"
	"github.com/seoscout/seoscout/internal/metrics"
	"github.com/seoscout/seoscout/internal/report"
	"github.com/seoscout/seoscout/internal/seo"
	"github.com/seoscout/seoscout/internal/tasks"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()
	clock := system.New()
	idGen := uuid.New()

	store, err := openHistoryStore(ctx, cfg, clock)
	if err != nil {
		logger.Fatal("open history store failed", zap.Error(err))
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Error("close history store failed", zap.Error(closeErr))
		}
	}()

	fetcher := collector.NewFetcher(collector.FetcherConfig{
		UserAgent: cfg.Collector.UserAgent,
		Timeout:   cfg.CollectorTimeout(),
	})
	var browser seo.BrowserMetrics
	if cfg.Headless.Enabled {
		chromeBrowser, err := collector.NewBrowser(collector.BrowserConfig{
			UserAgent:         cfg.Collector.UserAgent,
			NavigationTimeout: time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
		})
		if err != nil {
			logger.Warn("headless browser init failed, performance metrics degraded", zap.Error(err))
		} else {
			browser = chromeBrowser
			defer chromeBrowser.Close()
		}
	}
	signalCollector := collector.New(collector.Config{
		UserAgent:    cfg.Collector.UserAgent,
		ProbeTimeout: cfg.ProbeTimeout(),
	}, fetcher, browser, clock, logger.Named("collector"))

	var pipeline analyzer.Pipeline
	if cfg.LLM.APIKey != "" {
		completer := llm.New(llm.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLMTimeout(),
		}, logger.Named("llm"))
		pipeline = agents.NewOrchestrator(completer, clock, logger.Named("agents"))
	} else {
		logger.Info("no llm api key configured, ai analysis falls back to heuristics")
	}

	analysisService := analyzer.New(signalCollector, pipeline, clock, logger.Named("analyzer"))

	registry := tasks.NewRegistry(tasks.Config{
		MaxTasks:         cfg.Tasks.MaxTasks,
		ProgressInterval: cfg.ProgressInterval(),
		OnEvict:          metrics.ObserveTaskEvicted,
	}, idGen, clock, logger.Named("tasks"))

	renderer, err := report.NewRenderer(clock)
	if err != nil {
		logger.Fatal("build report renderer failed", zap.Error(err))
	}
	files, err := report.NewFileStore(cfg.Reports.Dir)
	if err != nil {
		logger.Fatal("open reports directory failed", zap.Error(err))
	}

	apiServer := api.NewServer(registry, store, analysisService, renderer, files, idGen, clock, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	pinger := keepalive.New(cfg.KeepAlive.ExternalURL, cfg.KeepAliveInterval(), logger.Named("keepalive"))
	if pinger.Enabled() {
		go pinger.Run(ctx)
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

func openHistoryStore(ctx context.Context, cfg config.Config, clock seo.Clock) (history.Store, error) {
	switch cfg.History.Driver {
	case "sqlite":
		return historysqlite.Open(ctx, cfg.History.DSN, clock)
	case "postgres":
		return historypostgres.Open(ctx, historypostgres.Config{DSN: cfg.History.DSN})
	case "memory":
		return historymemory.New(), nil
	default:
		return nil, fmt.Errorf("unknown history driver %q", cfg.History.Driver)
	}
}
