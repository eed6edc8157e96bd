// Package sources turns the company configuration into the ordered list of
// scrape targets a run iterates over.
package sources

import (
	"NewsCollector/internal/config"
	"NewsCollector/internal/domain"
)

// CompanySources pairs a company with its enabled sources, in config order.
type CompanySources struct {
	Company domain.Company
	Sources []domain.Source
}

// Load builds the registry from configuration. Disabled sources are filtered
// here, not downstream. The only fatal case is a malformed company list,
// since without it there is nothing to iterate.
func Load(cfg config.Config) ([]CompanySources, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	result := make([]CompanySources, 0, len(cfg.Companies))
	for _, cc := range cfg.Companies {
		company := domain.Company{
			ID:          cc.ID,
			Name:        cc.Name,
			HomepageURL: cc.HP,
		}

		var srcs []domain.Source
		if cc.HPNews.On() {
			srcs = append(srcs, domain.Source{
				Company: company,
				Type:    domain.SourceGeneric,
				URL:     cc.HPNews.URL,
				Enabled: true,
				Selectors: domain.Selectors{
					Wrapper: cc.HPNews.Selector.ArticlesWrapper,
					Item:    cc.HPNews.Selector.Article,
					Title:   cc.HPNews.Selector.Title,
					Date:    cc.HPNews.Selector.Date,
					Content: cc.HPNews.Selector.Content,
				},
			})
		}
		if cc.PRTimes.On() {
			srcs = append(srcs, domain.Source{
				Company: company,
				Type:    domain.SourcePRTimes,
				URL:     cc.PRTimes.URL,
				Enabled: true,
			})
		}

		result = append(result, CompanySources{Company: company, Sources: srcs})
	}

	return result, nil
}
