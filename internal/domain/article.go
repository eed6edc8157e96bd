package domain

import "time"

// SourceType tags which extractor produced an article.
type SourceType string

const (
	// SourcePRTimes is the PRTimes press-release listing scraper.
	SourcePRTimes SourceType = "prtimes"
	// SourceGeneric is the CSS-selector based homepage scraper.
	SourceGeneric SourceType = "generic_scraper"
)

// ArticleStatus marks whether an article is visible or soft-deleted.
type ArticleStatus string

const (
	StatusActive  ArticleStatus = "active"
	StatusDeleted ArticleStatus = "deleted"
)

// Company identifies a monitored company; immutable within a run.
type Company struct {
	ID          string
	Name        string
	HomepageURL string
}

// Selectors configure the generic scraper's extraction rule.
type Selectors struct {
	Wrapper string
	Item    string
	Title   string
	Date    string
	Content string
}

// Source is one configured (company, extractor type, URL) tuple.
type Source struct {
	Company   Company
	Type      SourceType
	URL       string
	Enabled   bool
	Selectors Selectors
}

// RawItem is an ephemeral extraction candidate; never persisted directly.
// A zero PublishedAt means the listing carried no parseable date.
type RawItem struct {
	Title       string
	URL         string
	PublishedAt time.Time
	Content     string
	ImageURL    string
}

// Article is the canonical persisted record. The (CompanyID, Source, URL)
// triple is the identity key and must be unique in the store.
type Article struct {
	ID          string
	CompanyID   string
	Title       string
	URL         string
	Source      SourceType
	PublishedAt time.Time
	Content     string
	ImageURL    string
	Status      ArticleStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SourceResult aggregates one (company, source) pair's outcome within a run.
type SourceResult struct {
	CompanyID   string
	CompanyName string
	Source      SourceType
	Fetched     int
	New         int
	Duplicate   int
	Failed      int
	Err         string
}

// Succeeded reports whether the pair completed without a source-level error.
func (r SourceResult) Succeeded() bool {
	return r.Err == ""
}

// RunReport is the per-run aggregate returned to the trigger caller.
type RunReport struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []SourceResult
}

// Totals sums fetched/new/duplicate/failed counters across all pairs.
func (r RunReport) Totals() (fetched, newCount, duplicate, failed int) {
	for _, res := range r.Results {
		fetched += res.Fetched
		newCount += res.New
		duplicate += res.Duplicate
		failed += res.Failed
	}
	return fetched, newCount, duplicate, failed
}

// FailedSources returns the results that carry a source-level error.
func (r RunReport) FailedSources() []SourceResult {
	var failed []SourceResult
	for _, res := range r.Results {
		if !res.Succeeded() {
			failed = append(failed, res)
		}
	}
	return failed
}
