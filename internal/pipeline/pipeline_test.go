package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"newspipe/internal/content"
	"newspipe/internal/model"
	"newspipe/internal/scraper"
	"newspipe/internal/storage"
)

type fakeSource struct {
	name       string
	candidates []model.CandidateLink
	listErr    error
	detailErr  map[string]error
	body       map[string]string
	fetched    []string
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) ListCandidates(_ context.Context) ([]model.CandidateLink, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.candidates, nil
}

func (f *fakeSource) FetchDetail(_ context.Context, link model.CandidateLink) (model.NewsItem, error) {
	f.fetched = append(f.fetched, link.Title)
	if err, ok := f.detailErr[link.Title]; ok {
		return model.NewsItem{}, err
	}
	body := f.body[link.Title]
	if body == "" {
		body = "Body of " + link.Title
	}
	return model.NewsItem{Title: link.Title, PostURL: link.URL, Highlights: body}, nil
}

type fakeSummarizer struct {
	calls []string
	err   error
}

func (f *fakeSummarizer) Summarize(_ context.Context, text string) (string, error) {
	f.calls = append(f.calls, text)
	if f.err != nil {
		return "", f.err
	}
	return "summary: " + text[:20], nil
}

type fakeContentStore struct {
	created []content.Record
	failFor map[string]error
}

func (f *fakeContentStore) Create(_ context.Context, rec content.Record) error {
	if err, ok := f.failFor[rec.Title]; ok {
		return err
	}
	f.created = append(f.created, rec)
	return nil
}

func newTestStore(t *testing.T) *storage.SQLite {
	t.Helper()
	s, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type outcome struct {
	Title  string
	Status bool
}

// recordingStore delegates to a real store while capturing every outcome the
// pipeline records, so tests can distinguish "no row" from "status=false".
type recordingStore struct {
	storage.SeenStore
	outcomes []outcome
}

func (r *recordingStore) Record(ctx context.Context, title string, status bool) error {
	r.outcomes = append(r.outcomes, outcome{Title: title, Status: status})
	return r.SeenStore.Record(ctx, title, status)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPipeline(t *testing.T, store storage.SeenStore, cs content.Store, srcs ...*fakeSource) *Pipeline {
	t.Helper()
	p := New(store, cs, &fakeSummarizer{}, 0, discardLogger())
	for _, s := range srcs {
		p.AddSource(Entry{Source: s})
	}
	return p
}

func candidates(titles ...string) []model.CandidateLink {
	links := make([]model.CandidateLink, len(titles))
	for i, title := range titles {
		links[i] = model.CandidateLink{Title: title, URL: "https://src.example.com/" + title}
	}
	return links
}

func createdTitles(cs *fakeContentStore) []string {
	var titles []string
	for _, rec := range cs.created {
		titles = append(titles, rec.Title)
	}
	return titles
}

func TestRunSkipsSeenAndRespectsQuota(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	if err := store.Record(ctx, "T1", true); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	src := &fakeSource{name: "A", candidates: candidates("T1", "T2", "T3")}
	cs := &fakeContentStore{}
	p := newTestPipeline(t, store, cs, src)
	p.AddSource(Entry{Source: src, Quota: 2})

	if err := p.Run(ctx, []string{"A"}, 5); err != nil {
		t.Fatalf("run: %v", err)
	}

	if diff := cmp.Diff([]string{"T2", "T3"}, src.fetched); diff != "" {
		t.Errorf("fetched mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"T2", "T3"}, createdTitles(cs)); diff != "" {
		t.Errorf("persisted mismatch (-want +got):\n%s", diff)
	}

	seen, err := store.LoadSeenTitles(ctx)
	if err != nil {
		t.Fatalf("load seen: %v", err)
	}
	want := map[string]struct{}{"T1": {}, "T2": {}, "T3": {}}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("seen set mismatch (-want +got):\n%s", diff)
	}
}

func TestRunQuotaCountsFetchedNotExamined(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	for _, title := range []string{"S1", "S2", "S3"} {
		if err := store.Record(ctx, title, true); err != nil {
			t.Fatalf("seed store: %v", err)
		}
	}

	// Three seen candidates come first; quota 2 must still reach N1 and N2.
	src := &fakeSource{name: "A", candidates: candidates("S1", "S2", "S3", "N1", "N2", "N3")}
	cs := &fakeContentStore{}
	p := newTestPipeline(t, store, cs, src)
	p.AddSource(Entry{Source: src, Quota: 2})

	if err := p.Run(ctx, []string{"A"}, 5); err != nil {
		t.Fatalf("run: %v", err)
	}
	if diff := cmp.Diff([]string{"N1", "N2"}, src.fetched); diff != "" {
		t.Errorf("fetched mismatch (-want +got):\n%s", diff)
	}
}

func TestRunTransportFailureLeavesNoRecord(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	src := &fakeSource{
		name:       "A",
		candidates: candidates("T1", "T2", "T3"),
		detailErr: map[string]error{
			"T2": &scraper.FetchError{URL: "https://src.example.com/T2", Status: 503},
		},
	}
	cs := &fakeContentStore{}
	rec := &recordingStore{SeenStore: store}
	p := newTestPipeline(t, rec, cs, src)

	if err := p.Run(ctx, []string{"A"}, 5); err != nil {
		t.Fatalf("run: %v", err)
	}

	// T3 is still attempted after T2's failure.
	if diff := cmp.Diff([]string{"T1", "T2", "T3"}, src.fetched); diff != "" {
		t.Errorf("fetched mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"T1", "T3"}, createdTitles(cs)); diff != "" {
		t.Errorf("persisted mismatch (-want +got):\n%s", diff)
	}

	// No outcome at all for T2: transient failures are retried next run.
	want := []outcome{{Title: "T1", Status: true}, {Title: "T3", Status: true}}
	if diff := cmp.Diff(want, rec.outcomes); diff != "" {
		t.Errorf("outcomes mismatch (-want +got):\n%s", diff)
	}
}

func TestRunExtractionFailureRecordsFalse(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	src := &fakeSource{
		name:       "A",
		candidates: candidates("T1"),
		detailErr: map[string]error{
			"T1": &scraper.ExtractionError{URL: "https://src.example.com/T1", Reason: "no highlights"},
		},
	}
	cs := &fakeContentStore{}
	rec := &recordingStore{SeenStore: store}
	p := newTestPipeline(t, rec, cs, src)

	if err := p.Run(ctx, []string{"A"}, 5); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []outcome{{Title: "T1", Status: false}}
	if diff := cmp.Diff(want, rec.outcomes); diff != "" {
		t.Errorf("outcomes mismatch (-want +got):\n%s", diff)
	}
	seen, err := store.LoadSeenTitles(ctx)
	if err != nil {
		t.Fatalf("load seen: %v", err)
	}
	if _, ok := seen["T1"]; ok {
		t.Error("failed item must not enter the seen set")
	}
}

func TestRunSummarizationThreshold(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	short := strings.Repeat("s", 500)
	long := strings.Repeat("l", 501)
	src := &fakeSource{
		name:       "A",
		candidates: candidates("Short", "Long"),
		body:       map[string]string{"Short": short, "Long": long},
	}
	cs := &fakeContentStore{}
	summ := &fakeSummarizer{}
	p := New(store, cs, summ, 0, discardLogger())
	p.AddSource(Entry{Source: src})

	if err := p.Run(ctx, []string{"A"}, 5); err != nil {
		t.Fatalf("run: %v", err)
	}

	if diff := cmp.Diff([]string{long}, summ.calls); diff != "" {
		t.Errorf("summarizer calls mismatch (-want +got):\n%s", diff)
	}
	want := []content.Record{
		{Title: "Short", Content: short, PostURL: "https://src.example.com/Short", NewsSource: "A"},
		{Title: "Long", Content: "summary: " + long[:20], PostURL: "https://src.example.com/Long", NewsSource: "A"},
	}
	if diff := cmp.Diff(want, cs.created); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestRunSummarizationFailureRecordsFalse(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	src := &fakeSource{
		name:       "A",
		candidates: candidates("Long"),
		body:       map[string]string{"Long": strings.Repeat("l", 600)},
	}
	cs := &fakeContentStore{}
	summ := &fakeSummarizer{err: errors.New("backend down")}
	rec := &recordingStore{SeenStore: store}
	p := New(rec, cs, summ, 0, discardLogger())
	p.AddSource(Entry{Source: src})

	if err := p.Run(ctx, []string{"A"}, 5); err != nil {
		t.Fatalf("run: %v", err)
	}

	// Raw text must never be persisted in place of a failed summary.
	if len(cs.created) != 0 {
		t.Errorf("expected nothing persisted, got %v", createdTitles(cs))
	}
	want := []outcome{{Title: "Long", Status: false}}
	if diff := cmp.Diff(want, rec.outcomes); diff != "" {
		t.Errorf("outcomes mismatch (-want +got):\n%s", diff)
	}
}

func TestRunPersistFailureRecordsFalse(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	src := &fakeSource{name: "A", candidates: candidates("T1", "T2")}
	cs := &fakeContentStore{failFor: map[string]error{"T1": errors.New("validation failed")}}
	rec := &recordingStore{SeenStore: store}
	p := newTestPipeline(t, rec, cs, src)

	if err := p.Run(ctx, []string{"A"}, 5); err != nil {
		t.Fatalf("run: %v", err)
	}

	if diff := cmp.Diff([]string{"T2"}, createdTitles(cs)); diff != "" {
		t.Errorf("persisted mismatch (-want +got):\n%s", diff)
	}
	want := []outcome{{Title: "T1", Status: false}, {Title: "T2", Status: true}}
	if diff := cmp.Diff(want, rec.outcomes); diff != "" {
		t.Errorf("outcomes mismatch (-want +got):\n%s", diff)
	}
	seen, err := store.LoadSeenTitles(ctx)
	if err != nil {
		t.Fatalf("load seen: %v", err)
	}
	if _, ok := seen["T1"]; ok {
		t.Error("failed persist must not enter the seen set")
	}
}

func TestRunSourceFailureIsIsolated(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	broken := &fakeSource{name: "A", listErr: &scraper.FetchError{URL: "https://a.example.com", Status: 500}}
	healthy := &fakeSource{name: "B", candidates: candidates("B1")}
	cs := &fakeContentStore{}
	p := newTestPipeline(t, store, cs, broken, healthy)

	if err := p.Run(ctx, []string{"A", "B"}, 5); err != nil {
		t.Fatalf("run: %v", err)
	}
	if diff := cmp.Diff([]string{"B1"}, createdTitles(cs)); diff != "" {
		t.Errorf("persisted mismatch (-want +got):\n%s", diff)
	}
}

func TestRunUnknownSourceIsSkipped(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	src := &fakeSource{name: "B", candidates: candidates("B1")}
	cs := &fakeContentStore{}
	p := newTestPipeline(t, store, cs, src)

	if err := p.Run(ctx, []string{"nope", "B"}, 5); err != nil {
		t.Fatalf("run: %v", err)
	}
	if diff := cmp.Diff([]string{"B1"}, createdTitles(cs)); diff != "" {
		t.Errorf("persisted mismatch (-want +got):\n%s", diff)
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	store := newTestStore(t)
	src := &fakeSource{name: "A", candidates: candidates("T1")}
	p := newTestPipeline(t, store, &fakeContentStore{}, src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Run(ctx, []string{"A"}, 5); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(src.fetched) != 0 {
		t.Errorf("no fetches expected after cancellation, got %v", src.fetched)
	}
}

func TestRunSecondPassIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	src := &fakeSource{name: "A", candidates: candidates("T1", "T2")}
	cs := &fakeContentStore{}
	p := newTestPipeline(t, store, cs, src)

	if err := p.Run(ctx, []string{"A"}, 5); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := p.Run(ctx, []string{"A"}, 5); err != nil {
		t.Fatalf("second run: %v", err)
	}

	// Second run sees both titles as processed and fetches nothing new.
	if diff := cmp.Diff([]string{"T1", "T2"}, src.fetched); diff != "" {
		t.Errorf("fetched mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"T1", "T2"}, createdTitles(cs)); diff != "" {
		t.Errorf("persisted mismatch (-want +got):\n%s", diff)
	}
}
