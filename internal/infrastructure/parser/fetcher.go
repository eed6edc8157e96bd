package parser

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsCollector/internal/config"
)

const retryDelay = 500 * time.Millisecond

// FetchError marks a source-level failure: network error, non-2xx response,
// or an unreadable listing page. Item-level problems never produce it.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher downloads listing pages with the configured timeout, user-agent,
// and retry policy shared by all scrapers.
type Fetcher struct {
	client    *http.Client
	userAgent string
	retries   int
}

// NewFetcher wires an HTTP client from the scraping policy; a nil client gets
// a default one with the policy timeout.
func NewFetcher(policy config.ScrapingConfig, client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: policy.Timeout()}
	}
	retries := policy.RetryCount
	if retries < 1 {
		retries = 1
	}
	return &Fetcher{client: client, userAgent: policy.UserAgent, retries: retries}
}

// Document fetches pageURL and parses it as HTML, retrying with a fixed
// small delay before giving up with a *FetchError.
func (f *Fetcher) Document(ctx context.Context, pageURL string) (*goquery.Document, error) {
	var lastErr error
	for attempt := 0; attempt < f.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return nil, &FetchError{URL: pageURL, Err: ctx.Err()}
			}
		}

		doc, err := f.fetchOnce(ctx, pageURL)
		if err == nil {
			return doc, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}
	return nil, &FetchError{URL: pageURL, Err: lastErr}
}

func (f *Fetcher) fetchOnce(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("server returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}
