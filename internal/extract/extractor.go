// Package extract turns a company detail page into partial record fields.
//
// Each Rule reads one region of the page. Rules run concurrently against the
// same parsed document; a rule that errors or panics contributes nothing and
// never affects its siblings.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"runtime/debug"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/company-registry-scraper/internal/metrics"
	"github.com/JakeFAU/company-registry-scraper/internal/registry"
)

// Rule extracts the fields of one page region.
type Rule interface {
	Name() string
	Extract(doc *goquery.Document) (registry.Fields, error)
}

// RuleFunc adapts a function to the Rule interface.
type RuleFunc struct {
	RuleName string
	Fn       func(doc *goquery.Document) (registry.Fields, error)
}

// Name implements Rule.
func (r RuleFunc) Name() string { return r.RuleName }

// Extract implements Rule.
func (r RuleFunc) Extract(doc *goquery.Document) (registry.Fields, error) { return r.Fn(doc) }

// DefaultRules returns the full rule set in page order.
func DefaultRules() []Rule {
	return []Rule{
		RuleFunc{"basic", basicIdentifiers},
		RuleFunc{"leadership", leadership},
		RuleFunc{"sme_registry", smeRegistry},
		RuleFunc{"tax_authority", taxAuthority},
		RuleFunc{"finances", finances},
		RuleFunc{"founders", founders},
		RuleFunc{"enforcement", enforcement},
		RuleFunc{"taxes", taxes},
		RuleFunc{"reliability", reliability},
		RuleFunc{"sections", sectionsOverview},
		RuleFunc{"address_reliability", addressReliability},
	}
}

// Extractor runs a fixed rule set.
type Extractor struct {
	rules  []Rule
	logger *zap.Logger
}

// New builds an Extractor. With no rules it uses DefaultRules.
func New(logger *zap.Logger, rules ...Rule) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Extractor{rules: rules, logger: logger.Named("extract")}
}

// ExtractHTML parses body and runs every rule against it.
func (e *Extractor) ExtractHTML(ctx context.Context, pageURL string, body []byte) (registry.Fields, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", pageURL, err)
	}
	return e.Extract(ctx, pageURL, doc), nil
}

// Extract runs every rule against doc and combines their output in rule
// order. Failed rules are logged and counted, and contribute no fields. Rules
// not yet started when ctx is done are skipped.
func (e *Extractor) Extract(ctx context.Context, pageURL string, doc *goquery.Document) registry.Fields {
	results := make([]registry.Fields, len(e.rules))
	var g errgroup.Group
	for i, rule := range e.rules {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fields, err := runRule(rule, doc)
			if err != nil {
				metrics.ObserveExtractionFailure(rule.Name())
				e.logger.Warn("extraction rule failed",
					zap.String("rule", rule.Name()),
					zap.String("url", pageURL),
					zap.Error(err),
				)
				return nil
			}
			results[i] = fields
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.Debug("extraction stopped early", zap.String("url", pageURL), zap.Error(err))
	}

	combined := registry.NewFields()
	for _, fields := range results {
		combined.Update(fields)
	}
	return combined
}

func runRule(rule Rule, doc *goquery.Document) (fields registry.Fields, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			fields = nil
			err = &registry.ExtractionError{
				Rule: rule.Name(),
				Err:  fmt.Errorf("panic: %v\n%s", rec, debug.Stack()),
			}
		}
	}()
	fields, err = rule.Extract(doc)
	if err != nil {
		return nil, &registry.ExtractionError{Rule: rule.Name(), Err: err}
	}
	return fields, nil
}
