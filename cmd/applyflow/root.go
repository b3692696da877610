package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/applyflow/applyflow/internal/config"
	"github.com/applyflow/applyflow/internal/gate"
	"github.com/applyflow/applyflow/internal/model"
	"github.com/applyflow/applyflow/internal/notifier"
	"github.com/applyflow/applyflow/internal/optimize"
	"github.com/applyflow/applyflow/internal/orchestrator"
	"github.com/applyflow/applyflow/internal/profile"
	"github.com/applyflow/applyflow/internal/scorer"
	"github.com/applyflow/applyflow/internal/source"
	"github.com/applyflow/applyflow/internal/submit"
)

const dbPath = "applyflow.db"

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "applyflow",
	Short: "Match job postings to your resume and orchestrate applications",
	Long:  "Applyflow scores job postings against your resume, gates them through threshold and quota policy, and drives each eligible application through optimization and submission.",
	// Default to `run` so that `applyflow` with no args runs the daemon.
	RunE: runRun,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: APPLYFLOW_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > APPLYFLOW_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("APPLYFLOW_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, st model.Store, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, st, httpClient, logger)
	default:
		return notifier.NewLogNotifier(st, logger)
	}
}

func setupSource(cfg *config.Config, logger *slog.Logger) (model.PostingSource, error) {
	switch cfg.Source.Type {
	case "file":
		return source.NewFileSource(cfg.Source.Path, logger), nil
	default:
		return nil, fmt.Errorf("unsupported source type %q", cfg.Source.Type)
	}
}

// setupOptimizer builds the optimizer chain from the primary and fallback
// provider configs. Disabled or unconfigured optimization yields a no-op
// optimizer that submits the resume unmodified.
func setupOptimizer(ctx context.Context, cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Optimizer {
	if !cfg.Optimization.Enabled {
		return optimize.NewNop()
	}

	var chain []model.Optimizer
	for _, pc := range []config.ProviderConfig{cfg.Optimization.Primary, cfg.Optimization.Fallback} {
		provider, err := setupProvider(ctx, pc, httpClient)
		if err != nil {
			logger.Warn("skipping optimization provider", "provider", pc.Provider, "error", err)
			continue
		}
		if provider == nil {
			continue
		}
		chain = append(chain, optimize.NewService(provider, cfg.Optimization.Timeout, logger))
	}

	switch len(chain) {
	case 0:
		logger.Warn("optimization enabled but no usable provider, submitting unmodified resumes")
		return optimize.NewNop()
	case 1:
		return chain[0]
	default:
		return optimize.NewFallback(logger, chain...)
	}
}

func setupProvider(ctx context.Context, pc config.ProviderConfig, httpClient *http.Client) (optimize.TextProvider, error) {
	switch pc.Provider {
	case "":
		return nil, nil
	case "gemini":
		return optimize.NewGeminiProvider(ctx, pc.APIKey, pc.Model)
	case "openai":
		baseURL := pc.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		mdl := pc.Model
		if mdl == "" {
			mdl = "gpt-4o-mini"
		}
		return optimize.NewOpenAIProvider(baseURL, pc.APIKey, mdl, httpClient), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", pc.Provider)
	}
}

// setupChannel builds the submission channel stack: the built-in channel
// wrapped with pacing, wrapped with retry. Retry sits outermost so every
// attempt waits for the pacer.
func setupChannel(cfg *config.Config, logger *slog.Logger) model.SubmissionChannel {
	var base model.SubmissionChannel
	switch cfg.Submission.Channel {
	default: // "log" is the only built-in channel
		base = submit.NewLogChannel(logger)
	}

	paced := submit.NewPacedSubmitter(base, submit.NewPacer(cfg.Submission.MinDelay))
	return submit.NewRetrySubmitter(paced, cfg.Submission.MaxAttempts, cfg.Submission.BaseDelay, logger)
}

// setupOrchestrator reads the resume files and wires the full pipeline
// around the given store.
func setupOrchestrator(ctx context.Context, cfg *config.Config, st model.Store, httpClient *http.Client, logger *slog.Logger) (*orchestrator.Orchestrator, error) {
	resumeText, err := os.ReadFile(cfg.Resume.File)
	if err != nil {
		return nil, fmt.Errorf("reading resume: %w", err)
	}

	var coverLetter string
	if cfg.Resume.CoverLetterFile != "" {
		data, err := os.ReadFile(cfg.Resume.CoverLetterFile)
		if err != nil {
			return nil, fmt.Errorf("reading cover letter: %w", err)
		}
		coverLetter = string(data)
	}

	builder := profile.NewBuilder()
	bundle := orchestrator.NewResumeBundle(builder, string(resumeText), coverLetter)
	scr := scorer.New(cfg.Matching.ExperienceGapYears)
	g := gate.New(cfg.Matching.MinimumMatchScore, cfg.Application.MaxPerDay, cfg.Application.ReapplyCooldown)
	opt := setupOptimizer(ctx, cfg, httpClient, logger)
	ch := setupChannel(cfg, logger)

	return orchestrator.New(st, builder, scr, g, opt, ch, bundle,
		cfg.Optimization.Level, cfg.Matching.MustHaves, logger), nil
}
