// Package scraper discovers article candidates on news sites and extracts
// full article details. Each site is served by one of three adapters:
// CSS-selector scraping, JSON-LD metadata, or an RSS/Atom feed.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"newspipe/internal/model"
)

const (
	userAgent   = "newspipe/1.0"
	maxBodySize = 5 * 1024 * 1024
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Source lists article candidates and fetches their full details.
type Source interface {
	// Name identifies the source in logs and the content store.
	Name() string

	// ListCandidates fetches the listing page and returns title+URL pairs
	// in page order. Titles are returned verbatim.
	ListCandidates(ctx context.Context) ([]model.CandidateLink, error)

	// FetchDetail downloads one article page and extracts its details.
	FetchDetail(ctx context.Context, link model.CandidateLink) (model.NewsItem, error)
}

// Registry maps adapter kinds to source constructors.
type Registry struct {
	builders map[model.AdapterKind]Builder
}

// Builder constructs a Source from its catalog entry.
type Builder func(spec model.SourceSpec, client HTTPClient) (Source, error)

// NewRegistry builds a registry with the built-in adapters registered.
func NewRegistry() *Registry {
	r := &Registry{builders: map[model.AdapterKind]Builder{}}
	r.Register(model.AdapterSelector, newSelectorSource)
	r.Register(model.AdapterJSONLD, newJSONLDSource)
	r.Register(model.AdapterFeed, newFeedSource)
	return r
}

// Register adds or replaces an adapter builder.
func (r *Registry) Register(kind model.AdapterKind, b Builder) {
	r.builders[kind] = b
}

// Build resolves the adapter for spec and constructs the source.
func (r *Registry) Build(spec model.SourceSpec, client HTTPClient) (Source, error) {
	b, ok := r.builders[spec.Adapter]
	if !ok {
		return nil, fmt.Errorf("adapter %q is not registered", spec.Adapter)
	}
	return b(spec, client)
}

// fetchBody downloads pageURL and returns the response body, capped at
// maxBodySize. Transport and non-200 failures come back as *FetchError.
func fetchBody(ctx context.Context, client HTTPClient, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: pageURL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

// fetchDocument downloads pageURL and parses it as HTML.
func fetchDocument(ctx context.Context, client HTTPClient, pageURL string) (*goquery.Document, error) {
	body, err := fetchBody(ctx, client, pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, &ParseError{URL: pageURL, Err: err}
	}
	return doc, nil
}

// resolveURL makes href absolute against base. Already-absolute links pass
// through unchanged.
func resolveURL(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}
