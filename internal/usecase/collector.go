package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"NewsCollector/internal/config"
	"NewsCollector/internal/domain"
	"NewsCollector/internal/ports"
	"NewsCollector/internal/scraper"
	"NewsCollector/internal/sources"
)

// CollectorDeps wires all driven adapters into the collection run.
type CollectorDeps struct {
	Config     config.Config
	Registry   *scraper.Registry
	Repository ports.ArticleRepository
	Notifier   ports.Notifier
	Logger     *slog.Logger
	Now        func() time.Time
}

// Collector drives one batch run over all (company, source) pairs: extract,
// normalize, dedup/persist, notify. Failures never cross a pair boundary;
// the collector is the single place that converts them into report entries.
type Collector struct {
	cfg      config.Config
	registry *scraper.Registry
	gate     *PersistGate
	notifier ports.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewCollector constructs the orchestration component.
func NewCollector(deps CollectorDeps) *Collector {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Collector{
		cfg:      deps.Config,
		registry: deps.Registry,
		gate:     NewPersistGate(deps.Repository),
		notifier: deps.Notifier,
		logger:   deps.Logger,
		now:      now,
	}
}

// Run executes one collection batch. It returns an error only when the
// company configuration itself is unusable; any per-source failure lands in
// the report instead. When the run deadline elapses, no new pairs are
// started and the partial report covers the completed work.
func (c *Collector) Run(ctx context.Context) (domain.RunReport, error) {
	report := domain.RunReport{StartedAt: c.now()}

	companies, err := sources.Load(c.cfg)
	if err != nil {
		if c.notifier != nil {
			if nerr := c.notifier.NotifyError(ctx, "ニュース収集処理でクリティカルエラーが発生しました", err.Error()); nerr != nil {
				c.log().Warn("error notification failed", "error", nerr)
			}
		}
		return report, err
	}

	var pairs []domain.Source
	for _, cs := range companies {
		pairs = append(pairs, cs.Sources...)
	}

	runCtx := ctx
	cancel := func() {}
	if deadline := c.cfg.Scraping.Deadline(); deadline > 0 {
		runCtx, cancel = context.WithTimeout(ctx, deadline)
	}
	defer cancel()

	workers := c.cfg.Scraping.MaxConcurrency
	if workers < 1 {
		workers = 1
	}
	if workers > len(pairs) && len(pairs) > 0 {
		workers = len(pairs)
	}

	jobs := make(chan domain.Source)
	results := make(chan domain.SourceResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for src := range jobs {
				if runCtx.Err() != nil {
					// Deadline hit after the pair was queued; do not start it.
					continue
				}
				results <- c.processSource(runCtx, src)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, src := range pairs {
			select {
			case jobs <- src:
			case <-runCtx.Done():
				c.log().Warn("run deadline reached, skipping remaining sources")
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		report.Results = append(report.Results, res)
	}
	report.FinishedAt = c.now()

	fetched, newCount, duplicate, failed := report.Totals()
	c.log().Info("collection run finished",
		"sources", len(report.Results),
		"fetched", fetched,
		"new", newCount,
		"duplicate", duplicate,
		"failed", failed,
		"elapsed", report.FinishedAt.Sub(report.StartedAt).String(),
	)

	if c.notifier != nil {
		if err := c.notifier.NotifyRunReport(ctx, report); err != nil {
			c.log().Warn("run report notification failed", "error", err)
		}
	}

	return report, nil
}

// processSource handles one (company, source) pair end to end.
func (c *Collector) processSource(ctx context.Context, src domain.Source) domain.SourceResult {
	res := domain.SourceResult{
		CompanyID:   src.Company.ID,
		CompanyName: src.Company.Name,
		Source:      src.Type,
	}

	strategy, err := c.registry.Resolve(src.Type)
	if err != nil {
		res.Err = err.Error()
		return res
	}

	items, err := strategy.Extract(ctx, scraper.Request{Source: src})
	if err != nil {
		c.log().Error("extraction failed",
			"company", src.Company.Name, "source", src.Type, "error", err)
		res.Err = err.Error()
		return res
	}
	res.Fetched = len(items)

	for _, item := range items {
		article, err := Normalize(src, item, c.now())
		if err != nil {
			res.Failed++
			c.log().Debug("skipping malformed item",
				"company", src.Company.Name, "source", src.Type, "error", err)
			continue
		}

		stored, err := c.gate.StoreIfNew(ctx, article)
		if err != nil {
			res.Failed++
			c.log().Warn("persistence failed",
				"company", src.Company.Name, "url", article.URL, "error", err)
			continue
		}
		if !stored {
			res.Duplicate++
			continue
		}
		res.New++

		if c.notifier != nil {
			if err := c.notifier.NotifyNewArticle(ctx, src.Company.Name, article); err != nil {
				c.log().Warn("article notification failed",
					"company", src.Company.Name, "url", article.URL, "error", err)
			}
		}
	}

	return res
}

func (c *Collector) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}
