package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"NewsCollector/internal/domain"
	"NewsCollector/internal/ports"
)

const articlesTable = "articles"

// PostgresRepository persists articles into Postgres. The table carries a
// unique index on (company_id, source, url); inserts rely on it as the final
// dedup authority.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ArticleRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Exists reports whether an article with the identity key is stored.
func (r *PostgresRepository) Exists(ctx context.Context, companyID string, source domain.SourceType, url string) (bool, error) {
	query, args, err := r.builder.
		Select("1").
		From(articlesTable).
		Where(sq.Eq{"company_id": companyID, "source": source, "url": url}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query exists: %w", err)
	}
	return true, nil
}

// Insert writes a new article; created_at/updated_at are store-assigned.
// A concurrent writer that wins the identity key surfaces as ErrDuplicate.
func (r *PostgresRepository) Insert(ctx context.Context, article domain.Article) (domain.Article, error) {
	if article.ID == "" {
		article.ID = uuid.New().String()
	}
	if article.Status == "" {
		article.Status = domain.StatusActive
	}

	query, args, err := r.builder.
		Insert(articlesTable).
		Columns("id", "company_id", "title", "url", "source", "published_at", "content", "image_url", "status").
		Values(article.ID, article.CompanyID, article.Title, article.URL, article.Source,
			article.PublishedAt, article.Content, article.ImageURL, article.Status).
		Suffix("ON CONFLICT (company_id, source, url) DO NOTHING RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build insert query: %w", err)
	}

	err = r.db.QueryRowContext(ctx, query, args...).Scan(&article.CreatedAt, &article.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, ports.ErrDuplicate
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("insert article: %w", err)
	}
	return article, nil
}

// MarkDeleted soft-deletes the article behind the identity key. The reverse
// transition is a manual operation outside this pipeline.
func (r *PostgresRepository) MarkDeleted(ctx context.Context, companyID string, source domain.SourceType, url string) error {
	query, args, err := r.builder.
		Update(articlesTable).
		Set("status", domain.StatusDeleted).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"company_id": companyID, "source": source, "url": url}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark deleted: %w", err)
	}
	return nil
}

// TotalCount returns the number of stored articles.
func (r *PostgresRepository) TotalCount(ctx context.Context) (int, error) {
	query, args, err := r.builder.Select("COUNT(*)").From(articlesTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("query count: %w", err)
	}
	return count, nil
}

// CountByCompany returns stored article counts grouped by company.
func (r *PostgresRepository) CountByCompany(ctx context.Context) (map[string]int, error) {
	rows, err := r.groupedCount(ctx, "company_id")
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountBySource returns stored article counts grouped by source tag.
func (r *PostgresRepository) CountBySource(ctx context.Context) (map[domain.SourceType]int, error) {
	rows, err := r.groupedCount(ctx, "source")
	if err != nil {
		return nil, err
	}

	result := make(map[domain.SourceType]int, len(rows))
	for key, count := range rows {
		result[domain.SourceType(key)] = count
	}
	return result, nil
}

func (r *PostgresRepository) groupedCount(ctx context.Context, column string) (map[string]int, error) {
	query, args, err := r.builder.
		Select(column, "COUNT(*)").
		From(articlesTable).
		GroupBy(column).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build grouped count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query grouped count: %w", err)
	}
	defer rows.Close()

	result := map[string]int{}
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("scan grouped count: %w", err)
		}
		result[key] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

// Latest returns the most recently published articles regardless of status.
func (r *PostgresRepository) Latest(ctx context.Context, limit int) ([]domain.Article, error) {
	builder := r.selectArticles().
		OrderBy("published_at DESC").
		Limit(uint64(limit))
	return r.queryArticles(ctx, builder)
}

// Recent returns active articles published since the cutoff, newest first.
func (r *PostgresRepository) Recent(ctx context.Context, since time.Time, limit int) ([]domain.Article, error) {
	builder := r.selectArticles().
		Where(sq.Eq{"status": domain.StatusActive}).
		Where(sq.GtOrEq{"published_at": since}).
		OrderBy("published_at DESC").
		Limit(uint64(limit))
	return r.queryArticles(ctx, builder)
}

// AllByCompany returns the full stored history for one company, newest first.
func (r *PostgresRepository) AllByCompany(ctx context.Context, companyID string) ([]domain.Article, error) {
	builder := r.selectArticles().
		Where(sq.Eq{"company_id": companyID}).
		OrderBy("published_at DESC")
	return r.queryArticles(ctx, builder)
}

func (r *PostgresRepository) selectArticles() sq.SelectBuilder {
	return r.builder.
		Select("id", "company_id", "title", "url", "source", "published_at",
			"content", "image_url", "status", "created_at", "updated_at").
		From(articlesTable)
}

func (r *PostgresRepository) queryArticles(ctx context.Context, builder sq.SelectBuilder) ([]domain.Article, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		var a domain.Article
		var content, imageURL sql.NullString
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.Title, &a.URL, &a.Source,
			&a.PublishedAt, &content, &imageURL, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		a.Content = content.String
		a.ImageURL = imageURL.String
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return articles, nil
}
