package scraper

import (
	"context"
	"fmt"

	"NewsCollector/internal/domain"
)

// Request carries everything a scraper needs to extract one source.
type Request struct {
	Source domain.Source
}

// Scraper captures a single extraction strategy (PRTimes, generic, etc.).
// Extract returns zero or more raw candidates; item-level problems are
// skipped inside the scraper, source-level failures surface as errors.
type Scraper interface {
	Name() domain.SourceType
	Extract(ctx context.Context, req Request) ([]domain.RawItem, error)
}

// Registry keeps a mapping from source-type tags to their implementations.
type Registry struct {
	scrapers map[domain.SourceType]Scraper
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scrapers: map[domain.SourceType]Scraper{}}
}

// Register adds or replaces a scraper implementation.
func (r *Registry) Register(s Scraper) {
	if r.scrapers == nil {
		r.scrapers = map[domain.SourceType]Scraper{}
	}
	r.scrapers[s.Name()] = s
}

// Resolve returns a scraper by tag or an error if it is absent.
func (r *Registry) Resolve(tag domain.SourceType) (Scraper, error) {
	if s, ok := r.scrapers[tag]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("scraper %s is not registered", tag)
}
