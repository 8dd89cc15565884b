// Package search talks to the upstream search endpoint and selects exact
// identifier matches from its candidate lists.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/company-registry-scraper/internal/registry"
)

// Config locates the search endpoint.
type Config struct {
	BaseURL string
	Path    string
	Action  string
}

// Adapter calls the upstream JSON search endpoint.
type Adapter struct {
	fetcher  registry.Fetcher
	endpoint string
	action   string
	baseURL  string
	logger   *zap.Logger
}

type searchResponse struct {
	LegalEntities []Candidate `json:"ul"`
	Entrepreneurs []Candidate `json:"ip"`
}

// NewAdapter builds an Adapter on top of fetcher.
func NewAdapter(fetcher registry.Fetcher, cfg Config, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	path := cfg.Path
	if path == "" {
		path = "/ajax.php"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	action := cfg.Action
	if action == "" {
		action = "search"
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	return &Adapter{
		fetcher:  fetcher,
		endpoint: base + path,
		action:   action,
		baseURL:  base,
		logger:   logger.Named("search"),
	}
}

// BaseURL is the site root detail paths are resolved against.
func (a *Adapter) BaseURL() string {
	return a.baseURL
}

// Search sends one throttled request and returns legal entities followed by
// individual entrepreneurs, each list in upstream order.
func (a *Adapter) Search(ctx context.Context, query string) ([]Candidate, error) {
	resp, err := a.fetcher.Fetch(ctx, registry.FetchRequest{
		URL:   a.endpoint,
		Query: url.Values{"query": {query}, "action": {a.action}},
		Kind:  registry.FetchSearch,
	})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	var payload searchResponse
	body := bytes.TrimSpace(resp.Body)
	if bytes.Equal(body, []byte("[]")) || bytes.Equal(body, []byte("null")) {
		return []Candidate{}, nil
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, &registry.UpstreamError{
			Kind:       registry.FetchSearch,
			URL:        a.endpoint,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("decode search response: %w", err),
		})
	}

	candidates := make([]Candidate, 0, len(payload.LegalEntities)+len(payload.Entrepreneurs))
	candidates = append(candidates, payload.LegalEntities...)
	candidates = append(candidates, payload.Entrepreneurs...)
	a.logger.Debug("search complete",
		zap.String("query", query),
		zap.Int("legal_entities", len(payload.LegalEntities)),
		zap.Int("entrepreneurs", len(payload.Entrepreneurs)),
	)
	return candidates, nil
}
