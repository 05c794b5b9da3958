package scraper

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"newspipe/internal/model"
)

// highlightSeparator joins individual highlight bullets into one body,
// preserving the bullet boundaries for downstream rendering.
const highlightSeparator = "<br>"

// selectorSource scrapes sites whose listing and article markup is
// addressable with plain CSS selectors.
type selectorSource struct {
	spec   model.SourceSpec
	client HTTPClient
}

func newSelectorSource(spec model.SourceSpec, client HTTPClient) (Source, error) {
	return &selectorSource{spec: spec, client: client}, nil
}

func (s *selectorSource) Name() string { return s.spec.Name }

func (s *selectorSource) ListCandidates(ctx context.Context) ([]model.CandidateLink, error) {
	doc, err := fetchDocument(ctx, s.client, s.listingURL())
	if err != nil {
		return nil, err
	}
	return extractCandidates(doc, s.spec), nil
}

func (s *selectorSource) FetchDetail(ctx context.Context, link model.CandidateLink) (model.NewsItem, error) {
	doc, err := fetchDocument(ctx, s.client, link.URL)
	if err != nil {
		return model.NewsItem{}, err
	}

	var parts []string
	doc.Find(s.spec.HighlightSelector).Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) == 0 {
		return model.NewsItem{}, &ExtractionError{URL: link.URL, Reason: "no highlights found"}
	}

	item := model.NewsItem{
		Title:      link.Title,
		PostURL:    link.URL,
		Highlights: strings.Join(parts, highlightSeparator),
	}
	if s.spec.ImageSelector != "" {
		if src, ok := doc.Find(s.spec.ImageSelector).First().Attr("src"); ok {
			item.ImageURL = resolveURL(s.spec.BaseURL, src)
		}
	}
	return item, nil
}

func (s *selectorSource) listingURL() string {
	if s.spec.ListingURL != "" {
		return s.spec.ListingURL
	}
	return s.spec.BaseURL
}

// extractCandidates pulls title+URL pairs out of a listing document. Anchors
// without a title or href are skipped; relative hrefs are resolved against
// the source base URL.
func extractCandidates(doc *goquery.Document, spec model.SourceSpec) []model.CandidateLink {
	var links []model.CandidateLink
	doc.Find(spec.LinkSelector).Each(func(_ int, sel *goquery.Selection) {
		title := ""
		if spec.TitleAttr != "" {
			title, _ = sel.Attr(spec.TitleAttr)
		}
		if title == "" {
			title = sel.Text()
		}
		title = strings.TrimSpace(title)

		href, _ := sel.Attr("href")
		if title == "" || href == "" {
			return
		}
		links = append(links, model.CandidateLink{
			Title: title,
			URL:   resolveURL(spec.BaseURL, href),
		})
	})
	return links
}
