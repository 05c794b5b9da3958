// Package content publishes processed articles to the downstream content API.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"newspipe/internal/model"
)

// Record is the payload shape the content API accepts.
type Record struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	ImageURL   string `json:"image_url,omitempty"`
	PostURL    string `json:"post_url,omitempty"`
	NewsSource string `json:"news_source"`
}

// Store receives fully processed articles.
type Store interface {
	Create(ctx context.Context, rec Record) error
}

// Client talks to the content API over HTTP.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// NewClient creates a reusable HTTP client for the content API.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Create posts one article record. Non-2xx responses are errors.
func (c *Client) Create(ctx context.Context, rec Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("content API returned %s: %s", resp.Status, bytes.TrimSpace(msg))
	}
	return nil
}

// NewRecord builds the API payload from a processed item.
func NewRecord(item model.NewsItem, source string) Record {
	return Record{
		Title:      item.Title,
		Content:    item.Highlights,
		ImageURL:   item.ImageURL,
		PostURL:    item.PostURL,
		NewsSource: source,
	}
}

var _ Store = (*Client)(nil)
