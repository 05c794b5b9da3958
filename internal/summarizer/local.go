package summarizer

import (
	"context"
	"errors"
	"sort"
	"strings"
	"unicode"
)

// stopwords excluded from frequency scoring.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "had": {}, "have": {}, "he": {},
	"her": {}, "his": {}, "in": {}, "is": {}, "it": {}, "its": {}, "of": {},
	"on": {}, "or": {}, "said": {}, "she": {}, "that": {}, "the": {}, "their": {},
	"they": {}, "this": {}, "to": {}, "was": {}, "were": {}, "will": {},
	"with": {}, "would": {},
}

// Local is an extractive summarizer: it scores sentences by word frequency
// and keeps the highest scoring ones, in original order, until the word
// budget is spent. No network, no model downloads.
type Local struct{}

// NewLocal creates the extractive summarizer.
func NewLocal() *Local { return &Local{} }

func (l *Local) Summarize(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := checkLength(text); err != nil {
		return "", err
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return "", &Error{Backend: "local", Err: errNoSentences}
	}
	if len(sentences) == 1 {
		return sentences[0], nil
	}

	freq := wordFrequencies(text)
	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, s := range sentences {
		var total float64
		words := tokenize(s)
		for _, w := range words {
			total += freq[w]
		}
		ranked[i] = scored{index: i}
		if len(words) > 0 {
			ranked[i].score = total / float64(len(words))
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	// Greedily take the best sentences until the word budget is spent,
	// always keeping at least one.
	picked := map[int]struct{}{}
	wordCount := 0
	for _, r := range ranked {
		n := len(strings.Fields(sentences[r.index]))
		if len(picked) > 0 && wordCount+n > MaxWords {
			if wordCount >= MinWords {
				break
			}
		}
		picked[r.index] = struct{}{}
		wordCount += n
		if wordCount >= MaxWords {
			break
		}
	}

	var out []string
	for i, s := range sentences {
		if _, ok := picked[i]; ok {
			out = append(out, s)
		}
	}
	return strings.Join(out, " "), nil
}

var errNoSentences = errors.New("no sentences in input")

// splitSentences breaks text into trimmed sentences. Highlight separators
// count as boundaries alongside terminal punctuation.
func splitSentences(text string) []string {
	text = strings.ReplaceAll(text, "<br>", ". ")

	var (
		sentences []string
		current   strings.Builder
	)
	flush := func() {
		s := strings.TrimSpace(current.String())
		current.Reset()
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			flush()
		}
	}
	flush()
	return sentences
}

// wordFrequencies returns normalized word frequencies, stopwords excluded.
func wordFrequencies(text string) map[string]float64 {
	counts := map[string]float64{}
	var max float64
	for _, w := range tokenize(text) {
		counts[w]++
		if counts[w] > max {
			max = counts[w]
		}
	}
	if max > 0 {
		for w := range counts {
			counts[w] /= max
		}
	}
	return counts
}

// tokenize lowercases text and returns its words, stopwords excluded.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	words := fields[:0]
	for _, f := range fields {
		if _, skip := stopwords[f]; !skip {
			words = append(words, f)
		}
	}
	return words
}
