// Package config handles application configuration from environment variables
// and the YAML source catalog.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"newspipe/internal/model"
)

// SummarizerKind selects which summarization backend to build.
type SummarizerKind string

// Supported summarizer kinds.
const (
	SummarizerLocal  SummarizerKind = "local"
	SummarizerRemote SummarizerKind = "remote"
)

// Config holds the application configuration.
type Config struct {
	DatabasePath    string
	SourcesPath     string
	LogLevel        string
	Summarizer      SummarizerKind
	CohereAPIKey    string
	CohereModel     string
	ContentAPIURL   string
	ContentAPIToken string
	FetchDelay      time.Duration
	RunInterval     time.Duration
	ItemsPerSource  int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	contentURL := os.Getenv("CONTENT_API_URL")
	if contentURL == "" {
		return nil, fmt.Errorf("CONTENT_API_URL is required")
	}

	cfg := &Config{
		DatabasePath:    envOrDefault("DATABASE_PATH", "./data/news.db"),
		SourcesPath:     envOrDefault("SOURCES_PATH", "./sources.yaml"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		Summarizer:      SummarizerKind(envOrDefault("SUMMARIZER", string(SummarizerLocal))),
		CohereAPIKey:    os.Getenv("COHERE_API_KEY"),
		CohereModel:     envOrDefault("COHERE_MODEL", "command-r"),
		ContentAPIURL:   contentURL,
		ContentAPIToken: os.Getenv("CONTENT_API_TOKEN"),
	}

	if cfg.Summarizer != SummarizerLocal && cfg.Summarizer != SummarizerRemote {
		return nil, fmt.Errorf("invalid SUMMARIZER %q, use: local, remote", cfg.Summarizer)
	}

	var err error
	if cfg.FetchDelay, err = envDuration("FETCH_DELAY", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.RunInterval, err = envDuration("RUN_INTERVAL", 6*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ItemsPerSource, err = envInt("ITEMS_PER_SOURCE", 5); err != nil {
		return nil, err
	}
	if cfg.ItemsPerSource < 1 {
		return nil, fmt.Errorf("ITEMS_PER_SOURCE must be at least 1")
	}

	return cfg, nil
}

// LoadSources reads the YAML source catalog from path.
func LoadSources(path string) ([]model.SourceSpec, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var doc struct {
		Sources []model.SourceSpec `yaml:"sources"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}
	if len(doc.Sources) == 0 {
		return nil, fmt.Errorf("sources file %s defines no sources", path)
	}

	for i, s := range doc.Sources {
		if s.Name == "" {
			return nil, fmt.Errorf("source %d: name is required", i)
		}
		switch s.Adapter {
		case model.AdapterSelector, model.AdapterJSONLD:
			if s.BaseURL == "" || s.LinkSelector == "" {
				return nil, fmt.Errorf("source %s: base_url and link_selector are required", s.Name)
			}
		case model.AdapterFeed:
			if s.FeedURL == "" {
				return nil, fmt.Errorf("source %s: feed_url is required", s.Name)
			}
		default:
			return nil, fmt.Errorf("source %s: unknown adapter %q", s.Name, s.Adapter)
		}
	}

	return doc.Sources, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func envInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}
