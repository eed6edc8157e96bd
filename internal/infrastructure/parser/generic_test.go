package parser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"NewsCollector/internal/domain"
	"NewsCollector/internal/scraper"
)

const companyNewsHTML = `<!DOCTYPE html>
<html><body>
<div class="press-list">
  <li class="press-item">
    <h3 class="press-title"><a href="/news/1">プロダクトをリリースしました</a></h3>
    <span class="press-date">2025年8月10日</span>
    <p class="press-summary">詳細は  リンク先を
     ご覧ください。</p>
    <img src="/img/news1.png">
  </li>
  <li class="press-item">
    <a href="/news/2"><span class="press-title">全体がリンクのお知らせ</span></a>
    <span class="press-date">coming soon</span>
  </li>
  <li class="press-item">
    <span class="press-date">2025/08/12</span>
  </li>
</div>
</body></html>`

func serveHTML(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(html))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenericExtract(t *testing.T) {
	t.Parallel()

	srv := serveHTML(t, companyNewsHTML)
	s := NewGenericScraper(newTestFetcher(srv.Client()))

	items, err := s.Extract(context.Background(), scraper.Request{
		Source: domain.Source{
			Type: domain.SourceGeneric,
			URL:  srv.URL + "/news",
			Selectors: domain.Selectors{
				Wrapper: "press-list",
				Item:    "press-item",
				Title:   "press-title",
				Date:    "press-date",
				Content: "press-summary",
			},
		},
	})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 items (item without title skipped), got %d", len(items))
	}

	first := items[0]
	if first.Title != "プロダクトをリリースしました" {
		t.Fatalf("unexpected title: %q", first.Title)
	}
	if first.URL != srv.URL+"/news/1" {
		t.Fatalf("relative href not resolved against page: %s", first.URL)
	}
	if first.Content != "詳細は リンク先を ご覧ください。" {
		t.Fatalf("unexpected content: %q", first.Content)
	}
	want := time.Date(2025, 8, 10, 0, 0, 0, 0, jst)
	if !first.PublishedAt.Equal(want) {
		t.Fatalf("expected %v, got %v", want, first.PublishedAt)
	}

	second := items[1]
	if second.URL != srv.URL+"/news/2" {
		t.Fatalf("item-level anchor not used: %s", second.URL)
	}
	if !second.PublishedAt.IsZero() {
		t.Fatalf("unparseable date should stay unset, got %v", second.PublishedAt)
	}
	if second.Content != "" {
		t.Fatalf("missing content should degrade to empty, got %q", second.Content)
	}
}

func TestGenericExtractDefaultSelectors(t *testing.T) {
	t.Parallel()

	srv := serveHTML(t, `<div class="news-list">
		<div class="news-item"><a href="/n/1">お知らせ</a></div>
	</div>`)
	s := NewGenericScraper(newTestFetcher(srv.Client()))

	items, err := s.Extract(context.Background(), scraper.Request{
		Source: domain.Source{Type: domain.SourceGeneric, URL: srv.URL},
	})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item via default selectors, got %d", len(items))
	}
	if items[0].Title != "お知らせ" {
		t.Fatalf("unexpected title: %q", items[0].Title)
	}
}

func TestGenericExtractMissingWrapper(t *testing.T) {
	t.Parallel()

	srv := serveHTML(t, `<div class="totally-different-layout"></div>`)
	s := NewGenericScraper(newTestFetcher(srv.Client()))

	_, err := s.Extract(context.Background(), scraper.Request{
		Source: domain.Source{
			Type:      domain.SourceGeneric,
			URL:       srv.URL,
			Selectors: domain.Selectors{Wrapper: "press-list"},
		},
	})
	if err == nil {
		t.Fatal("expected an error when the wrapper is absent")
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
}
