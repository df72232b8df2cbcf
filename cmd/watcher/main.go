// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/examtrace/internal/config"
	"github.com/examtrace/internal/logger"
	"github.com/examtrace/internal/oracle"
	"github.com/examtrace/internal/pipeline"
	"github.com/examtrace/internal/queue"
	"github.com/examtrace/internal/report"
	"github.com/examtrace/internal/store"
	"github.com/examtrace/internal/watch"
	"github.com/examtrace/internal/worker"
)

var (
	configPath = flag.String("config", "", "Config file path (default: ~/.examtrace/config.yaml)")
	watchDirs  = flag.String("watch", "", "Comma-separated directories to watch (overrides config)")
	workers    = flag.Int("workers", 0, "Number of extraction workers (overrides config)")
	webPort    = flag.Int("port", 0, "Web status server port (overrides config)")
	logFile    = flag.String("log", "watcher.log", "Log file path")
)

func main() {
	flag.Parse()

	// Best effort: local .env for OPENAI_API_KEY / REDIS_ADDR.
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment from .env")
	}

	appLogger, err := logger.Init(*logFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer appLogger.Close()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	var dirs []string
	if *watchDirs != "" {
		for _, d := range strings.Split(*watchDirs, ",") {
			if d = strings.TrimSpace(d); d != "" {
				dirs = append(dirs, d)
			}
		}
	}
	config.ApplyCLIFlags(cfg, dirs, *workers, *webPort)

	logger.Printf("Starting watcher id=%s, paths=%v, workers=%d", cfg.WatcherID, cfg.WatchPaths, cfg.Workers)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Prefer Redis so queued jobs survive restarts; fall back to the
	// in-memory queue for single-process setups without Redis.
	var jobQueue queue.Queue
	redisClient, err := config.NewRedisClient(ctx)
	if err != nil {
		logger.Warnf("failed to connect to Redis (%v), using in-memory job queue", err)
		jobQueue = queue.NewMemoryQueue(0)
	} else {
		defer redisClient.Close()
		jobQueue, err = queue.NewRedisQueue(redisClient, "")
		if err != nil {
			logger.Fatalf("failed to create Redis queue: %v", err)
		}
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		logger.Fatalf("failed to open database: %v", err)
	}
	defer st.Close()

	var o oracle.Oracle
	if os.Getenv("OPENAI_API_KEY") != "" {
		o = oracle.NewOpenAIOracle(cfg.Oracle.Model)
		logger.Printf("Verification oracle enabled, model=%s", cfg.Oracle.Model)
	} else {
		logger.Warnf("OPENAI_API_KEY not set, running extraction-only")
	}

	broadcaster := watch.NewBroadcaster()
	handler := &worker.ExtractHandler{
		Pipeline: pipeline.New(cfg.Profile, o, cfg.Oracle.Concurrency),
		Store:    st,
		Reports:  report.NewWriter(cfg.ReportDir),
		Notify: func(result *pipeline.Result) {
			watch.NotifyResult(broadcaster, result)
		},
	}

	go func() {
		if err := worker.StartWorkers(ctx, jobQueue, handler.Handle, cfg.Workers); err != nil {
			logger.Errorf("worker pool stopped: %v", err)
		}
	}()

	manager := watch.NewManager(cfg.WatchPaths, jobQueue, broadcaster)
	if err := manager.Start(); err != nil {
		logger.Fatalf("failed to start file watcher: %v", err)
	}
	defer manager.Stop()

	webServer := watch.NewWebServer(cfg.WebServer.Port, manager, broadcaster, st)
	httpServer := &http.Server{
		Addr:    webServer.Address(),
		Handler: webServer.Handler(),
	}
	go func() {
		logger.Printf("Status server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("status server failed: %v", err)
		}
	}()

	waitForShutdown(cancel, httpServer)
}

func waitForShutdown(cancel context.CancelFunc, httpServer *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logger.Printf("Received signal %v, shutting down", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("status server shutdown failed: %v", err)
	}
}
