// Package model defines the domain types used across the application.
package model

// CandidateLink is a title+URL pair discovered on a source's listing page,
// not yet fetched in full. Title is the dedup key, taken verbatim from the
// source markup.
type CandidateLink struct {
	Title string
	URL   string
}

// NewsItem is a fully extracted article. Highlights holds the article body,
// or the condensed text after summarization. Immutable once constructed.
type NewsItem struct {
	Title      string
	PostURL    string
	ImageURL   string
	Highlights string
}

// AdapterKind selects which scraper implementation serves a source.
type AdapterKind string

// Supported adapter kinds.
const (
	AdapterSelector AdapterKind = "selector"
	AdapterJSONLD   AdapterKind = "jsonld"
	AdapterFeed     AdapterKind = "feed"
)

// SourceSpec describes a single news site: where to list candidates and how
// to extract article details. Selector fields are CSS selectors; which ones
// are required depends on the adapter kind.
type SourceSpec struct {
	Name       string      `yaml:"name"`
	Adapter    AdapterKind `yaml:"adapter"`
	BaseURL    string      `yaml:"base_url"`
	ListingURL string      `yaml:"listing_url"`

	// Listing extraction (selector and jsonld adapters).
	LinkSelector  string `yaml:"link_selector"`
	TitleAttr     string `yaml:"title_attr"`
	ImageSelector string `yaml:"image_selector"`

	// Detail extraction (selector adapter).
	HighlightSelector string `yaml:"highlight_selector"`

	// Feed adapter.
	FeedURL string `yaml:"feed_url"`

	// Quota is the per-run cap on successfully fetched items. Zero falls
	// back to the run-wide default.
	Quota int `yaml:"quota"`
}
