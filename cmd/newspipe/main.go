package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"newspipe/internal/config"
	"newspipe/internal/content"
	"newspipe/internal/pipeline"
	"newspipe/internal/scheduler"
	"newspipe/internal/scraper"
	"newspipe/internal/storage"
	"newspipe/internal/summarizer"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	specs, err := config.LoadSources(cfg.SourcesPath)
	if err != nil {
		log.Error("load sources", "path", cfg.SourcesPath, "error", err)
		os.Exit(1)
	}

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		log.Error("open seen store", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	summ, err := newSummarizer(cfg)
	if err != nil {
		log.Error("create summarizer", "error", err)
		os.Exit(1)
	}

	contentAPI := content.NewClient(cfg.ContentAPIURL, cfg.ContentAPIToken)
	p := pipeline.New(store, contentAPI, summ, cfg.FetchDelay, log)

	registry := scraper.NewRegistry()
	httpClient := &http.Client{Timeout: 60 * time.Second}
	var order []string
	for _, spec := range specs {
		src, err := registry.Build(spec, httpClient)
		if err != nil {
			log.Error("build source", "source", spec.Name, "error", err)
			os.Exit(1)
		}
		p.AddSource(pipeline.Entry{Source: src, Quota: spec.Quota})
		order = append(order, spec.Name)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting ingestion",
		"sources", len(order),
		"interval", cfg.RunInterval,
		"summarizer", cfg.Summarizer,
	)

	sched := scheduler.New(p, order, cfg.ItemsPerSource, cfg.RunInterval, log)
	sched.Run(ctx)

	log.Info("ingestion stopped")
}

func newSummarizer(cfg *config.Config) (summarizer.Summarizer, error) {
	if cfg.Summarizer == config.SummarizerRemote {
		return summarizer.NewRemote(cfg.CohereAPIKey, cfg.CohereModel)
	}
	return summarizer.NewLocal(), nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
