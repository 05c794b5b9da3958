// Package storage defines the persistence interface and its implementations.
package storage

import "context"

// SeenStore is the durable set of previously processed article titles.
type SeenStore interface {
	// LoadSeenTitles returns all titles recorded with status=true.
	LoadSeenTitles(ctx context.Context) (map[string]struct{}, error)

	// Record inserts a (title, status) row. Recording a title that already
	// exists is a silent no-op, whatever the stored status.
	Record(ctx context.Context, title string, status bool) error

	Close() error
}
