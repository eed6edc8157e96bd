package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"NewsCollector/internal/config"
	"NewsCollector/internal/domain"
	"NewsCollector/internal/scraper"
)

const prtimesListingHTML = `<!DOCTYPE html>
<html><body>
<article class="list-article">
  <a href="/main/html/rd/p/000000001.000024278.html">
    <img class="list-article_image" src="https://prcdn.example/i/1.jpg">
  </a>
  <h2 class="list-article_title">
    <a href="/main/html/rd/p/000000001.000024278.html">  新サービス
      を開始  </a>
  </h2>
  <time>2025年8月10日 10:30</time>
  <p class="list-article__summary">一文目。 二文目。</p>
</article>
<article class="list-article">
  <h2 class="list-article_title">
    <a href="https://prtimes.jp/main/html/rd/p/000000002.000024278.html">資金調達のお知らせ</a>
  </h2>
  <time>近日公開</time>
</article>
<article class="list-article">
  <h2 class="list-article_title">リンクのないカード</h2>
  <time>2025年8月1日 09:00</time>
</article>
</body></html>`

func newTestFetcher(client *http.Client) *Fetcher {
	return NewFetcher(config.ScrapingConfig{
		TimeoutSeconds: 5,
		RetryCount:     1,
		UserAgent:      "test-agent",
	}, client)
}

func TestPRTimesExtract(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(prtimesListingHTML))
	}))
	defer srv.Close()

	s := NewPRTimesScraper(newTestFetcher(srv.Client()))
	items, err := s.Extract(context.Background(), scraper.Request{
		Source: domain.Source{Type: domain.SourcePRTimes, URL: srv.URL},
	})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 items (card without link skipped), got %d", len(items))
	}

	first := items[0]
	if first.Title != "新サービス を開始" {
		t.Fatalf("unexpected title: %q", first.Title)
	}
	if first.URL != "https://prtimes.jp/main/html/rd/p/000000001.000024278.html" {
		t.Fatalf("relative href not resolved: %s", first.URL)
	}
	if first.Content != "一文目。 二文目。" {
		t.Fatalf("unexpected content: %q", first.Content)
	}
	if first.ImageURL != "https://prcdn.example/i/1.jpg" {
		t.Fatalf("unexpected image: %s", first.ImageURL)
	}
	want := time.Date(2025, 8, 10, 10, 30, 0, 0, jst)
	if !first.PublishedAt.Equal(want) {
		t.Fatalf("expected %v, got %v", want, first.PublishedAt)
	}

	second := items[1]
	if second.URL != "https://prtimes.jp/main/html/rd/p/000000002.000024278.html" {
		t.Fatalf("absolute href rewritten: %s", second.URL)
	}
	if !second.PublishedAt.IsZero() {
		t.Fatalf("unparseable date should stay unset, got %v", second.PublishedAt)
	}
}

func TestParsePRTimesDate(t *testing.T) {
	t.Parallel()

	got := parsePRTimesDate("2025年8月10日 10:30")
	want := time.Date(2025, 8, 10, 10, 30, 0, 0, jst)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if !parsePRTimesDate("8月10日").IsZero() {
		t.Fatal("date without year should not parse")
	}
	if !parsePRTimesDate("").IsZero() {
		t.Fatal("empty text should not parse")
	}
}
