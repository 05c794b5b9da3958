package scraper

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"

	"newspipe/internal/model"
)

// feedSource lists candidates from an RSS/Atom feed and extracts article
// bodies with readability, so it needs no per-site selectors.
type feedSource struct {
	spec   model.SourceSpec
	client HTTPClient
	parser *gofeed.Parser
}

func newFeedSource(spec model.SourceSpec, client HTTPClient) (Source, error) {
	return &feedSource{
		spec:   spec,
		client: client,
		parser: gofeed.NewParser(),
	}, nil
}

func (s *feedSource) Name() string { return s.spec.Name }

func (s *feedSource) ListCandidates(ctx context.Context) ([]model.CandidateLink, error) {
	body, err := fetchBody(ctx, s.client, s.spec.FeedURL)
	if err != nil {
		return nil, err
	}

	feed, err := s.parser.ParseString(string(body))
	if err != nil {
		return nil, &ParseError{URL: s.spec.FeedURL, Err: err}
	}

	links := make([]model.CandidateLink, 0, len(feed.Items))
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" || item.Link == "" {
			continue
		}
		links = append(links, model.CandidateLink{Title: title, URL: item.Link})
	}
	return links, nil
}

func (s *feedSource) FetchDetail(ctx context.Context, link model.CandidateLink) (model.NewsItem, error) {
	body, err := fetchBody(ctx, s.client, link.URL)
	if err != nil {
		return model.NewsItem{}, err
	}

	pageURL, err := url.Parse(link.URL)
	if err != nil {
		return model.NewsItem{}, &ParseError{URL: link.URL, Err: err}
	}

	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return model.NewsItem{}, &ParseError{URL: link.URL, Err: err}
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return model.NewsItem{}, &ExtractionError{URL: link.URL, Reason: "readability produced no text"}
	}

	return model.NewsItem{
		Title:      link.Title,
		PostURL:    link.URL,
		ImageURL:   article.Image,
		Highlights: text,
	}, nil
}
