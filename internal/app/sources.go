package app

import (
	"log/slog"

	"github.com/alansafahi/soapboxx-versesync/internal/adapter/provider/bibleapi"
	"github.com/alansafahi/soapboxx-versesync/internal/adapter/provider/bolls"
	"github.com/alansafahi/soapboxx-versesync/internal/adapter/provider/bulkjson"
	"github.com/alansafahi/soapboxx-versesync/internal/app/importer"
	"github.com/alansafahi/soapboxx-versesync/internal/config"
	"github.com/alansafahi/soapboxx-versesync/internal/domain"
	"github.com/alansafahi/soapboxx-versesync/internal/normalize"
	"github.com/alansafahi/soapboxx-versesync/internal/ratelimit"
)

// buildSources instantiates the enabled sources in fallback order.
func buildSources(cfg config.SourcesConfig, logger *slog.Logger) []importer.Source {
	sources := make([]importer.Source, 0, len(cfg.Order))
	for _, id := range cfg.Order {
		sc, _ := cfg.Source(id)
		switch id {
		case config.SourceBulkJSON:
			sources = append(sources, bulkjson.NewProvider(sc.BaseURL, nil, sc.Timeout, logger))
		case config.SourceBibleAPI:
			if sc.BaseURL != "" {
				sources = append(sources, bibleapi.NewProviderWithURL(sc.BaseURL, sc.Timeout, logger))
			} else {
				sources = append(sources, bibleapi.NewProvider(sc.Timeout, logger))
			}
		case config.SourceBolls:
			if sc.BaseURL != "" {
				sources = append(sources, bolls.NewProviderWithURL(sc.BaseURL, sc.Timeout, logger))
			} else {
				sources = append(sources, bolls.NewProvider(sc.Timeout, logger))
			}
		}
	}
	return sources
}

// buildPolicies maps each enabled source to its pacing policy.
func buildPolicies(cfg config.SourcesConfig) map[string]ratelimit.Policy {
	policies := make(map[string]ratelimit.Policy, len(cfg.Order))
	for _, id := range cfg.Order {
		sc, _ := cfg.Source(id)
		policies[id] = ratelimit.Policy{BaseDelay: sc.BaseDelay, CeilingDelay: sc.CeilingDelay}
	}
	return policies
}

// buildRules flattens configured category rules. No rules configured means
// the built-in table.
func buildRules(rules []config.CategoryRule) []normalize.Rule {
	if len(rules) == 0 {
		return nil
	}
	var out []normalize.Rule
	for _, r := range rules {
		// Validate has already rejected unknown categories.
		cat, _ := domain.ParseCategory(r.Category)
		for _, kw := range r.Keywords {
			out = append(out, normalize.Rule{Keyword: kw, Category: cat})
		}
	}
	return out
}
