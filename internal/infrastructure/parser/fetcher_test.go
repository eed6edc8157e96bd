package parser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"NewsCollector/internal/config"
)

func TestDocumentRetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`<html><body><p>ok</p></body></html>`))
	}))
	defer srv.Close()

	f := NewFetcher(config.ScrapingConfig{TimeoutSeconds: 5, RetryCount: 3, UserAgent: "test-agent"}, srv.Client())

	doc, err := f.Document(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Document error after retries: %v", err)
	}
	if got := doc.Find("p").Text(); got != "ok" {
		t.Fatalf("unexpected document body: %q", got)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestDocumentGivesUpAfterRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(config.ScrapingConfig{TimeoutSeconds: 5, RetryCount: 2, UserAgent: "test-agent"}, srv.Client())

	_, err := f.Document(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected an error for a persistent 404")
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if fetchErr.URL != srv.URL {
		t.Fatalf("error should carry the page url, got %s", fetchErr.URL)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestDocumentSetsUserAgent(t *testing.T) {
	t.Parallel()

	var seen atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Header.Get("User-Agent"))
		w.Write([]byte(`<html></html>`))
	}))
	defer srv.Close()

	f := newTestFetcher(srv.Client())
	if _, err := f.Document(context.Background(), srv.URL); err != nil {
		t.Fatalf("Document error: %v", err)
	}
	if got, _ := seen.Load().(string); got != "test-agent" {
		t.Fatalf("expected configured user agent, got %q", got)
	}
}

func TestDocumentHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher(config.ScrapingConfig{TimeoutSeconds: 5, RetryCount: 3, UserAgent: "test-agent"}, srv.Client())
	_, err := f.Document(ctx, srv.URL)
	if err == nil {
		t.Fatal("expected an error with a cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in the chain, got %v", err)
	}
}
