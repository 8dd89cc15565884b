// Package lookup orchestrates search, candidate matching, detail page
// extraction and caching into complete company records.
package lookup

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/company-registry-scraper/internal/registry"
	"github.com/JakeFAU/company-registry-scraper/internal/search"
)

// Searcher returns raw upstream candidates for a query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]search.Candidate, error)
	BaseURL() string
}

// PageExtractor turns a detail page body into partial fields.
type PageExtractor interface {
	ExtractHTML(ctx context.Context, pageURL string, body []byte) (registry.Fields, error)
}

// Pipeline builds records from live upstream data. It never touches the cache.
type Pipeline struct {
	searcher  Searcher
	fetcher   registry.Fetcher
	extractor PageExtractor
	logger    *zap.Logger
}

// NewPipeline wires the live lookup path.
func NewPipeline(searcher Searcher, fetcher registry.Fetcher, extractor PageExtractor, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		searcher:  searcher,
		fetcher:   fetcher,
		extractor: extractor,
		logger:    logger.Named("pipeline"),
	}
}

// Lookup resolves id to a single record. It returns registry.ErrNotFound when
// no candidate carries exactly that identifier.
func (p *Pipeline) Lookup(ctx context.Context, id registry.Identifier) (registry.CompanyRecord, error) {
	candidates, err := p.searcher.Search(ctx, id.Value)
	if err != nil {
		return registry.CompanyRecord{}, fmt.Errorf("lookup %s: %w", id, err)
	}

	var (
		match search.Candidate
		ok    bool
	)
	switch id.Kind {
	case registry.KindTaxID:
		match, ok = search.MatchTaxID(candidates, id.Value)
	case registry.KindRegistrationNumber:
		match, ok = search.MatchRegistrationNumber(candidates, id.Value)
	default:
		return registry.CompanyRecord{}, fmt.Errorf("lookup %s: unsupported identifier kind", id)
	}
	if !ok {
		return registry.CompanyRecord{}, fmt.Errorf("lookup %s: %w", id, registry.ErrNotFound)
	}

	rec := match.Record(p.searcher.BaseURL())
	p.enrich(ctx, &rec)
	return rec, nil
}

// ByTaxID resolves a record by taxpayer identifier.
func (p *Pipeline) ByTaxID(ctx context.Context, taxID string) (registry.CompanyRecord, error) {
	return p.Lookup(ctx, registry.Identifier{Kind: registry.KindTaxID, Value: taxID})
}

// ByRegistrationNumber resolves a record by state registration number.
func (p *Pipeline) ByRegistrationNumber(ctx context.Context, number string) (registry.CompanyRecord, error) {
	return p.Lookup(ctx, registry.Identifier{Kind: registry.KindRegistrationNumber, Value: number})
}

// enrich fetches the detail page and merges extracted fields into rec. A
// failed fetch leaves the summary data in place and marks rec incomplete.
func (p *Pipeline) enrich(ctx context.Context, rec *registry.CompanyRecord) {
	if rec.URL == "" {
		p.logger.Debug("candidate has no detail page", zap.String("tax_id", rec.TaxID))
		return
	}

	resp, err := p.fetcher.Fetch(ctx, registry.FetchRequest{URL: rec.URL, Kind: registry.FetchPage})
	if err != nil {
		p.logger.Warn("detail page fetch failed",
			zap.String("tax_id", rec.TaxID),
			zap.String("url", rec.URL),
			zap.Error(err),
		)
		rec.Incomplete = true
		return
	}

	fields, err := p.extractor.ExtractHTML(ctx, resp.URL, resp.Body)
	if err != nil {
		p.logger.Warn("detail page unreadable",
			zap.String("tax_id", rec.TaxID),
			zap.String("url", resp.URL),
			zap.Error(err),
		)
		rec.Incomplete = true
		return
	}
	if resp.URL != "" {
		fields.SetString(registry.FieldURL, resp.URL)
	}
	registry.Merge(rec, fields)
}

// Search returns the summary projection of every candidate for query, in
// upstream order. No detail pages are fetched.
func (p *Pipeline) Search(ctx context.Context, query string) ([]registry.SearchResult, error) {
	candidates, err := p.searcher.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	base := p.searcher.BaseURL()
	results := make([]registry.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, c.Summary(base))
	}
	return results, nil
}
