package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

const userAgent = "FeedbackLens/1.0 (feedback importer)"

// maxPageBytes caps how much of a linked page is read.
const maxPageBytes = 5 << 20

// TextFetcher returns the readable text of a web page.
type TextFetcher interface {
	FetchText(ctx context.Context, pageURL string) (string, error)
}

// PageFetcher fetches pages over HTTP and extracts their main text with
// readability.
type PageFetcher struct {
	client *http.Client
}

// NewPageFetcher creates a fetcher. A zero timeout means 15 seconds.
func NewPageFetcher(timeout time.Duration) *PageFetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &PageFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// FetchText downloads pageURL and returns its extracted text, which may be
// empty if the page has no readable content.
func (f *PageFetcher) FetchText(ctx context.Context, pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parsing url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &httpError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", err
	}

	article, err := readability.FromReader(strings.NewReader(string(body)), parsed)
	if err != nil {
		return "", fmt.Errorf("extracting text: %w", err)
	}
	return strings.Join(strings.Fields(article.TextContent), " "), nil
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return fmt.Sprintf("http %d: %s", e.code, http.StatusText(e.code))
}
