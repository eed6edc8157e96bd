package usecase

import (
	"context"
	"errors"
	"fmt"

	"NewsCollector/internal/domain"
	"NewsCollector/internal/ports"
)

// PersistGate decides, per article, whether it is new relative to stored
// state and writes it exactly once. The store's unique index on the identity
// key remains the final authority when two runs race.
type PersistGate struct {
	repo ports.ArticleRepository
}

// NewPersistGate wires the article repository.
func NewPersistGate(repo ports.ArticleRepository) *PersistGate {
	return &PersistGate{repo: repo}
}

// StoreIfNew returns true when the article was inserted, false when the
// identity key already exists. Running the same batch twice produces no
// duplicate rows and no changed content.
func (g *PersistGate) StoreIfNew(ctx context.Context, article domain.Article) (bool, error) {
	exists, err := g.repo.Exists(ctx, article.CompanyID, article.Source, article.URL)
	if err != nil {
		return false, fmt.Errorf("existence check: %w", err)
	}
	if exists {
		return false, nil
	}

	if _, err := g.repo.Insert(ctx, article); err != nil {
		if errors.Is(err, ports.ErrDuplicate) {
			// Lost a benign race with a concurrent writer; the row is there.
			return false, nil
		}
		return false, fmt.Errorf("insert article: %w", err)
	}
	return true, nil
}
