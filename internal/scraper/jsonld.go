package scraper

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"newspipe/internal/model"
)

// jsonldSource scrapes sites that embed article metadata as JSON-LD script
// blocks. The listing page is still selector-driven; only the detail page
// switches to structured data.
type jsonldSource struct {
	spec   model.SourceSpec
	client HTTPClient
}

func newJSONLDSource(spec model.SourceSpec, client HTTPClient) (Source, error) {
	return &jsonldSource{spec: spec, client: client}, nil
}

func (s *jsonldSource) Name() string { return s.spec.Name }

func (s *jsonldSource) ListCandidates(ctx context.Context) ([]model.CandidateLink, error) {
	doc, err := fetchDocument(ctx, s.client, s.listingURL())
	if err != nil {
		return nil, err
	}
	return extractCandidates(doc, s.spec), nil
}

func (s *jsonldSource) FetchDetail(ctx context.Context, link model.CandidateLink) (model.NewsItem, error) {
	doc, err := fetchDocument(ctx, s.client, link.URL)
	if err != nil {
		return model.NewsItem{}, err
	}

	meta, ok := findArticleMeta(doc)
	if !ok {
		return model.NewsItem{}, &ExtractionError{URL: link.URL, Reason: "no article JSON-LD block found"}
	}

	return model.NewsItem{
		Title:      link.Title,
		PostURL:    link.URL,
		ImageURL:   meta.imageURL(),
		Highlights: meta.ArticleBody,
	}, nil
}

func (s *jsonldSource) listingURL() string {
	if s.spec.ListingURL != "" {
		return s.spec.ListingURL
	}
	return s.spec.BaseURL
}

// articleMeta is the subset of schema.org NewsArticle fields we consume.
// Image appears in the wild as a string, a list of strings, or an
// ImageObject, so it is decoded lazily.
type articleMeta struct {
	Headline    string          `json:"headline"`
	ArticleBody string          `json:"articleBody"`
	Image       json.RawMessage `json:"image"`
}

func (m articleMeta) imageURL() string {
	if len(m.Image) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(m.Image, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(m.Image, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(m.Image, &obj); err == nil {
		return obj.URL
	}
	return ""
}

// findArticleMeta walks every JSON-LD script block and returns the first one
// that carries both a headline and an article body. Blocks that fail to
// decode are skipped rather than failing the whole page.
func findArticleMeta(doc *goquery.Document) (articleMeta, bool) {
	var (
		meta  articleMeta
		found bool
	)
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var m articleMeta
		if err := json.Unmarshal([]byte(sel.Text()), &m); err != nil {
			return true
		}
		if strings.TrimSpace(m.Headline) == "" || strings.TrimSpace(m.ArticleBody) == "" {
			return true
		}
		meta = m
		found = true
		return false
	})
	return meta, found
}
