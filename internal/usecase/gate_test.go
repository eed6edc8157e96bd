package usecase

import (
	"context"
	"errors"
	"testing"

	"NewsCollector/internal/domain"
)

func gateArticle() domain.Article {
	return domain.Article{
		CompanyID: "B24000278",
		Source:    domain.SourcePRTimes,
		URL:       "https://prtimes.jp/main/html/rd/p/1.html",
		Title:     "お知らせ",
		Status:    domain.StatusActive,
	}
}

func TestStoreIfNewInserts(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	gate := NewPersistGate(repo)

	stored, err := gate.StoreIfNew(context.Background(), gateArticle())
	if err != nil {
		t.Fatalf("StoreIfNew error: %v", err)
	}
	if !stored {
		t.Fatal("expected the article to be stored")
	}
	if len(repo.stored()) != 1 {
		t.Fatalf("expected 1 article, got %d", len(repo.stored()))
	}
}

func TestStoreIfNewSkipsExisting(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	gate := NewPersistGate(repo)

	if _, err := gate.StoreIfNew(context.Background(), gateArticle()); err != nil {
		t.Fatalf("first StoreIfNew error: %v", err)
	}
	stored, err := gate.StoreIfNew(context.Background(), gateArticle())
	if err != nil {
		t.Fatalf("second StoreIfNew error: %v", err)
	}
	if stored {
		t.Fatal("a known identity key must not be stored again")
	}
	if len(repo.stored()) != 1 {
		t.Fatalf("expected 1 article, got %d", len(repo.stored()))
	}
}

func TestStoreIfNewTreatsInsertRaceAsDuplicate(t *testing.T) {
	t.Parallel()

	// The article appears between Exists and Insert; the unique index wins.
	repo := newMemRepo()
	repo.articles[identityKey("B24000278", domain.SourcePRTimes, gateArticle().URL)] = gateArticle()

	gate := NewPersistGate(&racingRepo{memRepo: repo})

	stored, err := gate.StoreIfNew(context.Background(), gateArticle())
	if err != nil {
		t.Fatalf("a lost insert race must not surface as an error: %v", err)
	}
	if stored {
		t.Fatal("a lost insert race must count as duplicate")
	}
}

// racingRepo reports the article as absent so the gate proceeds to Insert,
// which then collides with the pre-seeded row.
type racingRepo struct {
	*memRepo
}

func (r *racingRepo) Exists(context.Context, string, domain.SourceType, string) (bool, error) {
	return false, nil
}

func TestStoreIfNewPropagatesRepositoryErrors(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	repo.existsErr = errors.New("connection refused")
	gate := NewPersistGate(repo)

	if _, err := gate.StoreIfNew(context.Background(), gateArticle()); err == nil {
		t.Fatal("expected the existence check error to propagate")
	}
}
