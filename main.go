package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flipscan/config"
	"flipscan/scanner"
	"flipscan/scraper"
	"flipscan/scraper/ebay"
	"flipscan/scraper/mercari"
	"flipscan/server"
	"flipscan/services"
	"flipscan/storage"
	"flipscan/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLogger()

	logger.Info("[main] Starting FlipScan arbitrage engine")

	archiver, err := newArchiver(cfg, logger)
	if err != nil {
		logger.Error("[main] Storage init failed: %v", err)
		os.Exit(1)
	}
	if archiver != nil {
		defer archiver.Close()
	}

	retry := &utils.RetryConfig{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   2 * time.Second,
		Logger:      logger,
	}
	limiter := utils.NewRateLimiter(time.Duration(cfg.RateLimitMs) * time.Millisecond)

	marketplaces := []scraper.Marketplace{
		ebay.New(logger, retry, limiter, cfg.FetchTimeout),
		mercari.New(logger, retry, limiter, cfg.FetchTimeout, cfg.ChromeBin),
	}

	// The matching pass is CPU-bound; no inter-job delay.
	pool := utils.NewWorkerPool(cfg.MaxConcurrency, 0)
	synth := services.NewSynthesizer(pool, logger)

	coordinator := scanner.NewCoordinator(synth, marketplaces, archiver, logger, scanner.Options{
		CacheTTL:         cfg.CacheTTL,
		ScanDeadline:     cfg.ScanDeadline,
		PollInterval:     cfg.PollInterval,
		MinProfit:        cfg.MinProfit,
		MinProfitPercent: cfg.MinProfitPercent,
	})

	srv := server.New(coordinator, logger, "./")
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()
	logger.Info("[main] Listening on %s", cfg.HTTPAddr)
	logger.Info("[main] API docs at http://localhost%s/", cfg.HTTPAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("[main] Shutting down on %s", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("[main] Shutdown: %v", err)
		}
	case err := <-errCh:
		logger.Error("[main] Server error: %v", err)
		os.Exit(1)
	}
}

// newArchiver builds the opportunity archive backend the config selects, or
// nil when archiving is disabled.
func newArchiver(cfg *config.Config, logger *utils.Logger) (storage.OpportunityWriter, error) {
	switch cfg.StorageBackend {
	case "postgres":
		logger.Info("[main] Archiving opportunities to PostgreSQL at %s:%s", cfg.PostgresHost, cfg.PostgresPort)
		return storage.NewPostgresWriter(cfg.DSN())
	case "sqlite":
		logger.Info("[main] Archiving opportunities to SQLite at %s", cfg.SQLitePath)
		return storage.NewSQLiteWriter(cfg.SQLitePath)
	case "csv":
		logger.Info("[main] Archiving opportunities to CSV at %s", cfg.CSVOutputPath)
		return storage.NewCSVWriter(cfg.CSVOutputPath)
	case "none", "":
		logger.Info("[main] Opportunity archiving disabled")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
