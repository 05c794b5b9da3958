// Package summarizer condenses article bodies that are too long to publish
// verbatim. Two backends exist: a local extractive summarizer and a remote
// one backed by the Cohere chat API.
package summarizer

import (
	"context"
	"fmt"
	"unicode/utf8"
)

const (
	// Threshold is the body length in characters above which articles get
	// summarized. Shorter bodies are published as-is.
	Threshold = 500

	// MaxTextLen is the hard cap on summarizer input, in characters.
	MaxTextLen = 4096

	// Target word band for produced summaries.
	MaxWords = 100
	MinWords = 30
)

// Summarizer condenses text into the target word band.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// NeedsSummary reports whether text is long enough to warrant summarizing.
// Length is counted in characters, not bytes, so multibyte scripts are not
// penalized.
func NeedsSummary(text string) bool {
	return utf8.RuneCountInString(text) > Threshold
}

// TextTooLongError reports input that exceeds MaxTextLen characters.
type TextTooLongError struct {
	Length int
	Limit  int
}

func (e *TextTooLongError) Error() string {
	return fmt.Sprintf("text length %d exceeds limit %d", e.Length, e.Limit)
}

// InitError reports a backend that could not be constructed, usually from
// missing credentials. It is fatal at startup.
type InitError struct {
	Backend string
	Err     error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("init %s summarizer: %v", e.Backend, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// Error reports a summarization attempt that failed at runtime. The pipeline
// records the item as failed and moves on.
type Error struct {
	Backend string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s summarizer: %v", e.Backend, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// checkLength validates input length in characters before any work is done.
func checkLength(text string) error {
	if n := utf8.RuneCountInString(text); n > MaxTextLen {
		return &TextTooLongError{Length: n, Limit: MaxTextLen}
	}
	return nil
}
