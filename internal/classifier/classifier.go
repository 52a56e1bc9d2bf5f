// Package classifier is a client for a remote three-label sentiment model.
// The model returns a probability for negative, neutral and positive; the
// most probable label wins.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/TobiSchelling/FeedbackLens/internal/feedback"
	"github.com/TobiSchelling/FeedbackLens/internal/sentiment"
)

// ErrNotConfigured is returned by a client without an endpoint URL.
var ErrNotConfigured = errors.New("classifier endpoint not configured")

// Distribution is the model output.
type Distribution struct {
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
	Positive float64 `json:"positive"`
}

// Verdict picks the most probable label. Ties go to the earlier label in
// the order negative, neutral, positive. Score is positive minus negative.
func (d Distribution) Verdict() sentiment.Verdict {
	label, best := feedback.Negative, d.Negative
	if d.Neutral > best {
		label, best = feedback.Neutral, d.Neutral
	}
	if d.Positive > best {
		label, best = feedback.Positive, d.Positive
	}
	return sentiment.Verdict{Label: label, Confidence: best, Score: d.Positive - d.Negative}
}

// Client calls the classifier over HTTP.
type Client struct {
	URL    string
	client *http.Client
}

// NewClient creates a client. A zero timeout means 30 seconds.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{URL: url, client: &http.Client{Timeout: timeout}}
}

// IsConfigured reports whether an endpoint URL is set.
func (c *Client) IsConfigured() bool {
	return c != nil && c.URL != ""
}

// Classify sends text to the model and returns its distribution.
func (c *Client) Classify(ctx context.Context, text string) (Distribution, error) {
	if !c.IsConfigured() {
		return Distribution{}, ErrNotConfigured
	}

	data, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return Distribution{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(data))
	if err != nil {
		return Distribution{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Distribution{}, fmt.Errorf("classifier API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Distribution{}, fmt.Errorf("classifier API returned %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Scores *Distribution `json:"scores"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Distribution{}, fmt.Errorf("decoding response: %w", err)
	}
	if result.Scores == nil {
		return Distribution{}, errors.New("classifier response has no scores")
	}
	return *result.Scores, nil
}
