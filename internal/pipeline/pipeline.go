// Package pipeline orchestrates a full ingestion run: list candidates per
// source, filter against the seen set, fetch details under a rate limit,
// summarize long bodies, and persist the results.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"newspipe/internal/content"
	"newspipe/internal/model"
	"newspipe/internal/ratelimit"
	"newspipe/internal/scraper"
	"newspipe/internal/storage"
	"newspipe/internal/summarizer"
)

// Entry pairs a built source with its per-run quota. A zero quota falls back
// to the run-wide default.
type Entry struct {
	Source scraper.Source
	Quota  int
}

// Pipeline drives the end-to-end ingestion sequence. It processes sources
// and candidates strictly in order, one at a time.
type Pipeline struct {
	store      storage.SeenStore
	contentAPI content.Store
	summ       summarizer.Summarizer
	sources    map[string]Entry
	fetchDelay time.Duration
	log        *slog.Logger
}

// New wires a pipeline. fetchDelay is the pause between detail fetches
// against one source.
func New(store storage.SeenStore, contentAPI content.Store, summ summarizer.Summarizer, fetchDelay time.Duration, log *slog.Logger) *Pipeline {
	return &Pipeline{
		store:      store,
		contentAPI: contentAPI,
		summ:       summ,
		sources:    map[string]Entry{},
		fetchDelay: fetchDelay,
		log:        log,
	}
}

// AddSource registers a source under its name.
func (p *Pipeline) AddSource(e Entry) {
	p.sources[e.Source.Name()] = e
}

// Run executes one ingestion pass over the named sources, in the given
// order. Per-item and per-source failures are logged and skipped; Run only
// returns an error when the run itself cannot proceed (seen set unavailable
// or context cancelled).
func (p *Pipeline) Run(ctx context.Context, sources []string, itemsPerSource int) error {
	seen, err := p.store.LoadSeenTitles(ctx)
	if err != nil {
		return err
	}
	p.log.Info("run started", "sources", len(sources), "seen_titles", len(seen))

	for _, name := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		entry, ok := p.sources[name]
		if !ok {
			p.log.Error("unknown source, skipping", "source", name)
			continue
		}

		quota := entry.Quota
		if quota <= 0 {
			quota = itemsPerSource
		}

		if err := p.runSource(ctx, entry.Source, seen, quota); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			// Source-level failures never abort the run.
			p.log.Error("source failed", "source", name, "error", err)
		}
	}

	p.log.Info("run finished")
	return nil
}

// runSource processes one source up to quota successfully fetched items.
// The seen map doubles as the within-run dedup set: titles processed here
// are added to it so a later source cannot process the same title twice.
func (p *Pipeline) runSource(ctx context.Context, src scraper.Source, seen map[string]struct{}, quota int) error {
	log := p.log.With("source", src.Name())

	candidates, err := src.ListCandidates(ctx)
	if err != nil {
		return err
	}
	log.Info("listed candidates", "count", len(candidates))

	limiter := ratelimit.New(p.fetchDelay)
	fetched := 0
	for _, cand := range candidates {
		if fetched >= quota {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, ok := seen[cand.Title]; ok {
			log.Debug("skipping seen title", "title", cand.Title)
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		item, err := src.FetchDetail(ctx, cand)
		if err != nil {
			p.handleFetchFailure(ctx, log, cand, err)
			continue
		}
		fetched++
		log.Info("fetched article", "title", cand.Title)

		if err := p.finishItem(ctx, log, src.Name(), item); err == nil {
			seen[cand.Title] = struct{}{}
		}
	}
	return nil
}

// handleFetchFailure applies the failure-recording policy for detail
// fetches. Transport failures leave no record so the item is retried next
// run; extraction and parse failures are markup problems that will not
// self-heal, so they are recorded as failed.
func (p *Pipeline) handleFetchFailure(ctx context.Context, log *slog.Logger, cand model.CandidateLink, err error) {
	var fetchErr *scraper.FetchError
	if errors.As(err, &fetchErr) {
		log.Error("fetch failed, will retry next run", "title", cand.Title, "url", cand.URL, "error", err)
		return
	}

	log.Error("extraction failed", "title", cand.Title, "url", cand.URL, "error", err)
	p.recordOutcome(ctx, log, cand.Title, false)
}

// finishItem summarizes (when needed) and persists one fetched item,
// recording the outcome either way.
func (p *Pipeline) finishItem(ctx context.Context, log *slog.Logger, sourceName string, item model.NewsItem) error {
	if summarizer.NeedsSummary(item.Highlights) {
		summary, err := p.summ.Summarize(ctx, item.Highlights)
		if err != nil {
			// Never persist raw text in place of a failed summary.
			log.Error("summarization failed", "title", item.Title, "error", err)
			p.recordOutcome(ctx, log, item.Title, false)
			return err
		}
		item.Highlights = summary
		log.Info("summarized article", "title", item.Title)
	}

	if err := p.contentAPI.Create(ctx, content.NewRecord(item, sourceName)); err != nil {
		log.Error("persist failed", "title", item.Title, "error", err)
		p.recordOutcome(ctx, log, item.Title, false)
		return err
	}

	p.recordOutcome(ctx, log, item.Title, true)
	log.Info("persisted article", "title", item.Title)
	return nil
}

// recordOutcome writes the seen-store row for a title. A failure to record
// is logged but never escalated; the worst case is a retried item.
func (p *Pipeline) recordOutcome(ctx context.Context, log *slog.Logger, title string, status bool) {
	if err := p.store.Record(ctx, title, status); err != nil {
		log.Error("record outcome failed", "title", title, "status", status, "error", err)
	}
}
