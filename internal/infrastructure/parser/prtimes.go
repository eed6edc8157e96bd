package parser

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsCollector/internal/domain"
	"NewsCollector/internal/scraper"
)

const prtimesBaseURL = "https://prtimes.jp"

// PRTimes publishes in JST regardless of where the collector runs.
var jst = time.FixedZone("JST", 9*60*60)

var prtimesDateExpr = regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日\s*(\d{1,2}):(\d{2})`)

// PRTimesScraper extracts press releases from a company's PRTimes listing.
type PRTimesScraper struct {
	fetcher *Fetcher
}

var _ scraper.Scraper = (*PRTimesScraper)(nil)

// NewPRTimesScraper wires the shared fetcher.
func NewPRTimesScraper(fetcher *Fetcher) *PRTimesScraper {
	return &PRTimesScraper{fetcher: fetcher}
}

// Name identifies the strategy inside the registry.
func (p *PRTimesScraper) Name() domain.SourceType {
	return domain.SourcePRTimes
}

// Extract fetches the listing page and parses each press-release card.
// Cards missing a title or link are skipped; a missing date leaves
// PublishedAt unset for the normalizer to default.
func (p *PRTimesScraper) Extract(ctx context.Context, req scraper.Request) ([]domain.RawItem, error) {
	doc, err := p.fetcher.Document(ctx, req.Source.URL)
	if err != nil {
		return nil, err
	}

	var items []domain.RawItem
	doc.Find("article.list-article").Each(func(_ int, card *goquery.Selection) {
		link := card.Find("h2.list-article_title a").First()
		title := cleanText(link.Text())
		href, ok := link.Attr("href")
		if title == "" || !ok || href == "" {
			return
		}
		if !strings.HasPrefix(href, "http") {
			href = prtimesBaseURL + href
		}

		item := domain.RawItem{
			Title:       title,
			URL:         href,
			PublishedAt: parsePRTimesDate(card.Find("time").First().Text()),
			Content:     cleanText(card.Find("p.list-article__summary").First().Text()),
		}
		if src, exists := card.Find("img.list-article_image").First().Attr("src"); exists {
			item.ImageURL = src
		}

		items = append(items, item)
	})

	return items, nil
}

// parsePRTimesDate handles the site's "2006年1月2日 15:04" stamp; the zero
// time means no parseable date.
func parsePRTimesDate(text string) time.Time {
	match := prtimesDateExpr.FindStringSubmatch(text)
	if match == nil {
		return time.Time{}
	}

	year, _ := strconv.Atoi(match[1])
	month, _ := strconv.Atoi(match[2])
	day, _ := strconv.Atoi(match[3])
	hour, _ := strconv.Atoi(match[4])
	minute, _ := strconv.Atoi(match[5])

	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, jst)
}
