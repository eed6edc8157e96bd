package usecase

import (
	"fmt"
	"strings"
	"time"

	"NewsCollector/internal/domain"
)

// Normalize converts a raw candidate plus company context into a canonical
// article. It performs no I/O; the only failure is an item without the
// fields that form its identity, which callers count and skip.
func Normalize(src domain.Source, item domain.RawItem, now time.Time) (domain.Article, error) {
	title := collapseWhitespace(item.Title)
	rawURL := strings.TrimSpace(item.URL)

	if rawURL == "" {
		return domain.Article{}, fmt.Errorf("raw item has no url")
	}
	if title == "" {
		return domain.Article{}, fmt.Errorf("raw item has no title")
	}

	publishedAt := item.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = now
	}

	return domain.Article{
		CompanyID:   src.Company.ID,
		Title:       title,
		URL:         rawURL,
		Source:      src.Type,
		PublishedAt: publishedAt,
		Content:     collapseWhitespace(item.Content),
		ImageURL:    strings.TrimSpace(item.ImageURL),
		Status:      domain.StatusActive,
	}, nil
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
