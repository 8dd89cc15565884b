package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/company-registry-scraper/internal/registry"
)

var (
	financeYear    = regexp.MustCompile(`за\s+(\d{4})\s*(?:год|г\.?)`)
	changePercent  = regexp.MustCompile(`([↑↓±]?[+\-]?\d+[\s,.]?\d*\s*%)`)
	stabilityScore = regexp.MustCompile(`(?i)(?:стабильность|устойчивость)[:\s]*(` + word + `)`)
	solvencyScore  = regexp.MustCompile(`(?i)(?:платёжеспособность|платежеспособность)[:\s]*(.+?)(?:\.|$)`)
	efficiency     = regexp.MustCompile(`(?i)эффективность[:\s]*(` + word + `)`)

	proceedingsCount = regexp.MustCompile(`Производств\D*(\d+)`)
	proceedingsSum   = regexp.MustCompile(`[Нн]а сумму\s+(.+?руб\.?)`)
	taxYear          = regexp.MustCompile(`за\s+(\d{4})`)
)

// amount returns the leading "... руб." phrase of s, or s itself when no currency suffix is present.
func amount(s string) string {
	if v, ok := submatch(amountPrefix, s); ok {
		return v
	}
	return s
}

func atoiField(fields registry.Fields, field registry.Field, raw string) error {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%s %q: %w", field, raw, err)
	}
	fields.SetInt(field, n)
	return nil
}

// finances reads the latest reported revenue, profit and the qualitative ratings.
func finances(doc *goquery.Document) (registry.Fields, error) {
	fields := registry.NewFields()
	tile := doc.Find(".finance-tile").First()
	if tile.Length() == 0 {
		return fields, nil
	}
	tileText := text(tile)
	if strings.Contains(strings.ToLower(tileText), "отсутствуют") {
		return fields, nil
	}

	if year, ok := submatch(financeYear, tileText); ok {
		if err := atoiField(fields, registry.FieldRevenueYear, year); err != nil {
			return nil, err
		}
	}

	tile.Find("dt").Each(func(_ int, dt *goquery.Selection) {
		label := text(dt)
		value := text(nextDD(dt))
		if value == "" {
			return
		}
		switch {
		case strings.Contains(label, "Выручка"):
			fields.SetString(registry.FieldRevenue, amount(value))
			if change, ok := submatch(changePercent, value); ok {
				fields.SetString(registry.FieldRevenueChange, change)
			}
		case strings.Contains(label, "Прибыль"):
			fields.SetString(registry.FieldProfit, amount(value))
			if change, ok := submatch(changePercent, value); ok {
				fields.SetString(registry.FieldProfitChange, change)
			}
		}
	})

	if v, ok := submatch(stabilityScore, tileText); ok {
		fields.SetString(registry.FieldFinancialStability, strings.ToUpper(v))
	}
	if v, ok := submatch(solvencyScore, tileText); ok && v != "" {
		fields.SetString(registry.FieldSolvency, v)
	}
	if v, ok := submatch(efficiency, tileText); ok {
		fields.SetString(registry.FieldEfficiency, strings.ToUpper(v))
	}
	return fields, nil
}

// enforcement reads the bailiff proceedings summary.
func enforcement(doc *goquery.Document) (registry.Fields, error) {
	fields := registry.NewFields()
	tile := doc.Find(".fssp-tile").First()
	if tile.Length() == 0 {
		return fields, nil
	}
	tileText := text(tile)
	if containsAny(strings.ToLower(tileText), "не найдена", "отсутствуют") {
		return fields, nil
	}
	if raw, ok := submatch(proceedingsCount, tileText); ok {
		if err := atoiField(fields, registry.FieldEnforcementCount, raw); err != nil {
			return nil, err
		}
	}
	if sum, ok := submatch(proceedingsSum, tileText); ok {
		fields.SetString(registry.FieldEnforcementSum, sum)
	}
	return fields, nil
}

// taxes reads paid taxes and insurance contributions for the reported year.
func taxes(doc *goquery.Document) (registry.Fields, error) {
	fields := registry.NewFields()
	tile := doc.Find(".taxes-tile").First()
	if tile.Length() == 0 {
		return fields, nil
	}
	tileText := text(tile)
	if containsAny(strings.ToLower(tileText), "не найдена", "отсутствуют") {
		return fields, nil
	}

	tile.Find("dt").Each(func(_ int, dt *goquery.Selection) {
		label := text(dt)
		value := text(nextDD(dt))
		if value == "" {
			return
		}
		switch {
		case strings.Contains(label, "Налог"):
			fields.SetString(registry.FieldTaxesSum, value)
		case strings.Contains(label, "Взнос"):
			fields.SetString(registry.FieldContributionsSum, value)
		}
	})

	if year, ok := submatch(taxYear, tileText); ok {
		if err := atoiField(fields, registry.FieldTaxesYear, year); err != nil {
			return nil, err
		}
	}
	return fields, nil
}
