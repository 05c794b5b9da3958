package summarizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

// Remote summarizes via the Cohere chat API.
type Remote struct {
	client *cohereclient.Client
	model  string
}

// NewRemote builds the Cohere-backed summarizer. The API key is required.
func NewRemote(apiKey, model string) (*Remote, error) {
	if apiKey == "" {
		return nil, &InitError{Backend: "remote", Err: errors.New("COHERE_API_KEY is not set")}
	}
	if model == "" {
		return nil, &InitError{Backend: "remote", Err: errors.New("model is not set")}
	}

	client := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
	)
	return &Remote{client: client, model: model}, nil
}

func (r *Remote) Summarize(ctx context.Context, text string) (string, error) {
	if err := checkLength(text); err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(
		"Summarize the following news article in %d to %d words. "+
			"Return only the summary, no preamble.\n\n%s",
		MinWords, MaxWords, text,
	)

	resp, err := r.client.Chat(ctx, &cohere.ChatRequest{
		Message: prompt,
		Model:   &r.model,
	})
	if err != nil {
		return "", &Error{Backend: "remote", Err: err}
	}

	summary := strings.TrimSpace(resp.Text)
	if summary == "" {
		return "", &Error{Backend: "remote", Err: errors.New("empty response")}
	}
	return summary, nil
}
