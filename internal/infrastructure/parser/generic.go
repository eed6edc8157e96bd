package parser

import (
	"context"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"NewsCollector/internal/domain"
	"NewsCollector/internal/scraper"
)

const (
	defaultWrapperClass = "news-list"
	defaultItemClass    = "news-item"
)

// GenericScraper extracts news items from arbitrary company pages using the
// class selectors declared in the source definition.
type GenericScraper struct {
	fetcher *Fetcher
}

var _ scraper.Scraper = (*GenericScraper)(nil)

// NewGenericScraper wires the shared fetcher.
func NewGenericScraper(fetcher *Fetcher) *GenericScraper {
	return &GenericScraper{fetcher: fetcher}
}

// Name identifies the strategy inside the registry.
func (g *GenericScraper) Name() domain.SourceType {
	return domain.SourceGeneric
}

// Extract fetches the page and walks the configured item nodes. Nodes
// missing a title or link are skipped; a content selector miss degrades
// that field to empty; an unparseable date leaves PublishedAt unset.
// A missing wrapper is a source-level failure, since it means the page
// no longer matches the declared structure.
func (g *GenericScraper) Extract(ctx context.Context, req scraper.Request) ([]domain.RawItem, error) {
	doc, err := g.fetcher.Document(ctx, req.Source.URL)
	if err != nil {
		return nil, err
	}

	sel := req.Source.Selectors
	wrapper := doc.Find(classSelector(sel.Wrapper, defaultWrapperClass)).First()
	if wrapper.Length() == 0 {
		return nil, &FetchError{
			URL: req.Source.URL,
			Err: fmt.Errorf("articles wrapper %q not found", orDefault(sel.Wrapper, defaultWrapperClass)),
		}
	}

	var items []domain.RawItem
	wrapper.Find(classSelector(sel.Item, defaultItemClass)).Each(func(_ int, node *goquery.Selection) {
		titleElem := node
		if sel.Title != "" {
			titleElem = node.Find("." + sel.Title).First()
		}
		title := cleanText(titleElem.Text())
		href, ok := titleElem.Find("a").First().Attr("href")
		if !ok {
			// Some layouts wrap the whole item in the anchor instead.
			href, ok = node.Find("a").First().Attr("href")
		}
		if title == "" || !ok || href == "" {
			return
		}

		item := domain.RawItem{
			Title: title,
			URL:   absoluteURL(req.Source.URL, href),
		}
		if sel.Date != "" {
			item.PublishedAt = parseListingDate(node.Find("."+sel.Date).First().Text(), jst)
		}
		if sel.Content != "" {
			item.Content = cleanText(node.Find("." + sel.Content).First().Text())
		}
		if src, exists := node.Find("img").First().Attr("src"); exists {
			item.ImageURL = src
		}

		items = append(items, item)
	})

	return items, nil
}

func classSelector(class, fallback string) string {
	return "." + orDefault(class, fallback)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// absoluteURL resolves a possibly relative href against the listing page.
func absoluteURL(base, href string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}
