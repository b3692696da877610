package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/applyflow/applyflow/internal/model"
)

// Config is the root configuration for the applyflow pipeline.
type Config struct {
	Search       SearchConfig
	Resume       ResumeConfig
	Matching     MatchingConfig
	Application  ApplicationConfig
	Cache        CacheConfig
	Submission   SubmissionConfig
	Optimization OptimizationConfig
	Notification NotificationConfig
	Run          RunConfig
	Source       SourceConfig
}

// SearchConfig describes the posting search issued each run.
type SearchConfig struct {
	Keywords   []string `yaml:"keywords"`
	Location   string   `yaml:"location"`
	MaxResults int      `yaml:"max_results"`
}

// ResumeConfig points at the plain-text resume and optional cover letter.
type ResumeConfig struct {
	File            string `yaml:"file"`
	CoverLetterFile string `yaml:"cover_letter_file"`
}

// MatchingConfig controls the scorer and eligibility threshold.
type MatchingConfig struct {
	MinimumMatchScore  float64  `yaml:"minimum_match_score"`
	ExperienceGapYears int      `yaml:"experience_gap_years"`
	MustHaves          []string `yaml:"must_haves"`
}

// ApplicationConfig controls quota and re-application policy.
type ApplicationConfig struct {
	MaxPerDay       int
	ReapplyCooldown time.Duration // zero disables the cool-down entirely
}

// CacheConfig controls posting cache eviction.
type CacheConfig struct {
	PostingTTL time.Duration
}

// SubmissionConfig controls the submission channel and its retry policy.
type SubmissionConfig struct {
	Channel     string // "log" is the only built-in channel
	MinDelay    time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
}

// ProviderConfig identifies one optimization provider.
type ProviderConfig struct {
	Provider string `yaml:"provider"` // "gemini" or "openai"
	BaseURL  string `yaml:"base_url"` // openai-compatible endpoints only
	APIKey   string `yaml:"api_key"`  // expanded from env var by Load
	Model    string `yaml:"model"`
}

// OptimizationConfig controls the resume optimization service.
type OptimizationConfig struct {
	Enabled  bool
	Level    model.OptimizeLevel
	Timeout  time.Duration
	Primary  ProviderConfig
	Fallback ProviderConfig
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// RunConfig controls daemon mode.
type RunConfig struct {
	Interval    time.Duration
	Concurrency int
}

// SourceConfig selects the posting source.
type SourceConfig struct {
	Type string `yaml:"type"` // "file"
	Path string `yaml:"path"`
}

// rawConfig is used for YAML unmarshaling (snake_case fields, durations as
// strings).
type rawConfig struct {
	Search       SearchConfig        `yaml:"search"`
	Resume       ResumeConfig        `yaml:"resume"`
	Matching     MatchingConfig      `yaml:"matching"`
	Application  rawApplication      `yaml:"application"`
	Cache        rawCache            `yaml:"cache"`
	Submission   rawSubmission       `yaml:"submission"`
	Optimization rawOptimization     `yaml:"optimization"`
	Notification NotificationConfig  `yaml:"notification"`
	Run          rawRun              `yaml:"run"`
	Source       SourceConfig        `yaml:"source"`
}

type rawApplication struct {
	MaxPerDay       int    `yaml:"max_per_day"`
	ReapplyCooldown string `yaml:"reapply_cooldown"`
}

type rawCache struct {
	PostingTTL string `yaml:"posting_ttl"`
}

type rawSubmission struct {
	Channel     string `yaml:"channel"`
	MinDelay    string `yaml:"min_delay"`
	MaxAttempts int    `yaml:"max_attempts"`
	BaseDelay   string `yaml:"base_delay"`
}

type rawOptimization struct {
	Enabled  bool           `yaml:"enabled"`
	Level    string         `yaml:"level"`
	Timeout  string         `yaml:"timeout"`
	Primary  ProviderConfig `yaml:"primary"`
	Fallback ProviderConfig `yaml:"fallback"`
}

type rawRun struct {
	Interval    string `yaml:"interval"`
	Concurrency int    `yaml:"concurrency"`
}

// Load reads and parses the YAML config file at path, applies defaults,
// validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables (API keys, paths).
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		Search:       raw.Search,
		Resume:       raw.Resume,
		Matching:     raw.Matching,
		Notification: raw.Notification,
		Source:       raw.Source,
	}

	if cfg.Search.MaxResults <= 0 {
		cfg.Search.MaxResults = 25
	}
	if cfg.Matching.MinimumMatchScore == 0 {
		cfg.Matching.MinimumMatchScore = 0.70
	}
	if cfg.Matching.ExperienceGapYears <= 0 {
		cfg.Matching.ExperienceGapYears = 4
	}

	cfg.Application.MaxPerDay = raw.Application.MaxPerDay
	if cfg.Application.MaxPerDay == 0 {
		cfg.Application.MaxPerDay = 10
	}
	cfg.Application.ReapplyCooldown, err = parseDuration(raw.Application.ReapplyCooldown, 30*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("parse application.reapply_cooldown: %w", err)
	}

	cfg.Cache.PostingTTL, err = parseDuration(raw.Cache.PostingTTL, 72*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("parse cache.posting_ttl: %w", err)
	}

	cfg.Submission.Channel = raw.Submission.Channel
	if cfg.Submission.Channel == "" {
		cfg.Submission.Channel = "log"
	}
	cfg.Submission.MaxAttempts = raw.Submission.MaxAttempts
	if cfg.Submission.MaxAttempts <= 0 {
		cfg.Submission.MaxAttempts = 3
	}
	cfg.Submission.MinDelay, err = parseDuration(raw.Submission.MinDelay, 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("parse submission.min_delay: %w", err)
	}
	cfg.Submission.BaseDelay, err = parseDuration(raw.Submission.BaseDelay, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("parse submission.base_delay: %w", err)
	}

	cfg.Optimization.Enabled = raw.Optimization.Enabled
	cfg.Optimization.Primary = raw.Optimization.Primary
	cfg.Optimization.Fallback = raw.Optimization.Fallback
	cfg.Optimization.Level = model.OptimizeLevel(raw.Optimization.Level)
	if cfg.Optimization.Level == "" {
		cfg.Optimization.Level = model.OptimizeModerate
	}
	cfg.Optimization.Timeout, err = parseDuration(raw.Optimization.Timeout, 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("parse optimization.timeout: %w", err)
	}

	cfg.Run.Concurrency = raw.Run.Concurrency
	if cfg.Run.Concurrency <= 0 {
		cfg.Run.Concurrency = 4
	}
	cfg.Run.Interval, err = parseDuration(raw.Run.Interval, 30*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("parse run.interval: %w", err)
	}

	if cfg.Source.Type == "" {
		cfg.Source.Type = "file"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", raw, err)
	}
	return d, nil
}

func validate(cfg *Config) error {
	if cfg.Matching.MinimumMatchScore < 0 || cfg.Matching.MinimumMatchScore > 1 {
		return fmt.Errorf("matching.minimum_match_score must be in [0,1], got %v", cfg.Matching.MinimumMatchScore)
	}
	if cfg.Application.MaxPerDay < 0 {
		return fmt.Errorf("application.max_per_day must not be negative, got %d", cfg.Application.MaxPerDay)
	}
	if cfg.Resume.File == "" {
		return fmt.Errorf("resume.file is required")
	}

	switch level := cfg.Optimization.Level; level {
	case model.OptimizeLight, model.OptimizeModerate, model.OptimizeAggressive:
	default:
		return fmt.Errorf("optimization.level must be light, moderate, or aggressive, got %q", level)
	}
	if cfg.Optimization.Enabled {
		if cfg.Optimization.Primary.APIKey == "" && cfg.Optimization.Fallback.APIKey == "" {
			return fmt.Errorf("optimization.enabled requires an api_key on primary or fallback")
		}
	}

	if cfg.Notification.Type == "slack" {
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	}

	if cfg.Source.Type == "file" && cfg.Source.Path == "" {
		return fmt.Errorf("source.path is required when source.type is \"file\"")
	}

	if cfg.Run.Interval <= 0 {
		return fmt.Errorf("run.interval must be positive, got %v", cfg.Run.Interval)
	}
	return nil
}
