package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/applyflow/applyflow/internal/model"
	"github.com/applyflow/applyflow/internal/runner"
	"github.com/applyflow/applyflow/internal/store"
)

var (
	runOnce   bool
	runDryRun bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the application pipeline",
	Long:  "Search for postings and process each one through scoring, gating, optimization, and submission. Runs as a daemon unless --once is given.",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runOnce, "once", false, "run one batch and exit")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "run one batch against an in-memory store, persisting nothing")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"keywords", cfg.Search.Keywords,
		"location", cfg.Search.Location,
		"min_score", cfg.Matching.MinimumMatchScore,
		"max_per_day", cfg.Application.MaxPerDay,
		"interval", cfg.Run.Interval.String(),
	)

	var st model.Store
	if runDryRun {
		logger.Info("dry-run mode enabled, nothing will be persisted")
		st = store.NewMemStore()
	} else {
		sqlStore, err := store.NewSQLiteStore(dbPath)
		if err != nil {
			logger.Error("failed to open store", "error", err)
			os.Exit(1)
		}
		defer sqlStore.Close()
		st = sqlStore
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: 30 * time.Second}

	orch, err := setupOrchestrator(ctx, cfg, st, httpClient, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	src, err := setupSource(cfg, logger)
	if err != nil {
		logger.Error("failed to build posting source", "error", err)
		os.Exit(1)
	}
	n := setupNotifier(cfg, st, httpClient, logger)

	query := model.SearchQuery{
		Keywords:   cfg.Search.Keywords,
		Location:   cfg.Search.Location,
		MaxResults: cfg.Search.MaxResults,
	}
	r := runner.New(src, orch, st, n, query,
		cfg.Cache.PostingTTL, cfg.Run.Concurrency, cfg.Run.Interval, logger)

	if runOnce || runDryRun {
		if err := r.RunOnce(ctx); err != nil {
			logger.Error("batch failed", "error", err)
			os.Exit(1)
		}
		logger.Info("batch complete")
		return nil
	}

	if err := r.Run(ctx); err != nil {
		logger.Error("runner error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
