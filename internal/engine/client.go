// Package engine is the HTTP client for the external text-completion
// engine. The pipeline is agnostic to which model answers, provided the
// response carries free text.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type completionRequest struct {
	Prompt string `json:"prompt"`
}

type completionChoice struct {
	GeneratedText string `json:"generated_text"`
}

// Client posts one prompt and returns the raw generated text. The overall
// deadline comes from the caller's context; Timeout here is only a
// safety net for callers that forget one.
type Client struct {
	url  string
	http *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(completionRequest{Prompt: prompt})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion engine returned status %d", resp.StatusCode)
	}

	var choices []completionChoice
	if err := json.NewDecoder(resp.Body).Decode(&choices); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(choices) == 0 {
		return "", fmt.Errorf("completion engine returned no choices")
	}
	return choices[0].GeneratedText, nil
}
