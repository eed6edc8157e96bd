package ports

import (
	"context"
	"errors"
	"time"

	"NewsCollector/internal/domain"
)

// ArticleRepository persists collected articles and answers dedup queries.
// Uniqueness on (company_id, source, url) is enforced by the store itself.
type ArticleRepository interface {
	Exists(ctx context.Context, companyID string, source domain.SourceType, url string) (bool, error)
	Insert(ctx context.Context, article domain.Article) (domain.Article, error)
	MarkDeleted(ctx context.Context, companyID string, source domain.SourceType, url string) error

	TotalCount(ctx context.Context) (int, error)
	CountByCompany(ctx context.Context) (map[string]int, error)
	CountBySource(ctx context.Context) (map[domain.SourceType]int, error)
	Latest(ctx context.Context, limit int) ([]domain.Article, error)
	Recent(ctx context.Context, since time.Time, limit int) ([]domain.Article, error)
	AllByCompany(ctx context.Context, companyID string) ([]domain.Article, error)
}

// ErrDuplicate is returned by Insert when the identity key already exists.
var ErrDuplicate = errors.New("article already exists")

// Notifier delivers best-effort messages to the configured chat channel.
type Notifier interface {
	NotifyNewArticle(ctx context.Context, companyName string, article domain.Article) error
	NotifyRunReport(ctx context.Context, report domain.RunReport) error
	NotifyError(ctx context.Context, message, detail string) error
}

// Scheduler controls when collection runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
