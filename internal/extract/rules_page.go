package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/company-registry-scraper/internal/registry"
)

var (
	founderTaxID    = regexp.MustCompile(`^\d{10,12}$`)
	reliabilityFlag = regexp.MustCompile(`reliability['"]\s*:\s*['"](\w+)['"]`)
)

var reliabilityRatings = map[string]string{
	"positive": "high",
	"normal":   "medium",
	"negative": "low",
}

// sectionTiles lists the overview tiles in page order.
var sectionTiles = []struct {
	class string
	key   registry.SectionKey
}{
	{"arbitr-tile", registry.SectionArbitration},
	{"trademarks-tile", registry.SectionTrademarks},
	{"gz-tile", registry.SectionGovContracts},
	{"inspections-tile", registry.SectionInspections},
	{"branches-tile", registry.SectionBranches},
	{"licenses-tile", registry.SectionLicenses},
	{"leasing-tile", registry.SectionLeasing},
	{"pledge-tile", registry.SectionPledges},
	{"facts-tile", registry.SectionInsolvency},
	{"sou-tile", registry.SectionCourts},
}

var noDataMarkers = []string{"не найден", "отсутствуют", "не обнаружен"}

// founders reads the ownership block.
func founders(doc *goquery.Document) (registry.Fields, error) {
	fields := registry.NewFields()
	var list []registry.Founder
	doc.Find(".founders-tile .founder-item").Each(func(_ int, item *goquery.Selection) {
		title := item.Find(".founder-item__title").First()
		var founder registry.Founder
		if link := title.Find("a").First(); link.Length() > 0 {
			founder.Name = text(link)
			href, _ := link.Attr("href")
			switch {
			case strings.Contains(href, "/person/"):
				founder.Type = registry.FounderPerson
				founder.TaxID = slugTaxID(href)
			case strings.Contains(href, "/id/"):
				founder.Type = registry.FounderOrganization
			}
		} else {
			founder.Name = text(title)
		}
		if founder.Name == "" {
			return
		}

		if dt := findDT(item, "ИНН"); dt.Length() > 0 {
			dd := nextDD(dt)
			taxID := text(dd.Find("span.inn").First())
			if taxID == "" {
				taxID = text(dd)
			}
			if founderTaxID.MatchString(taxID) {
				founder.TaxID = taxID
			}
		}
		if dt := findDT(item, "Доля"); dt.Length() > 0 {
			founder.Share = text(nextDD(dt))
		}
		list = append(list, founder)
	})
	if len(list) > 0 {
		fields.SetFounders(list)
	}
	return fields, nil
}

// reliability reads the counterparty rating embedded in page scripts.
func reliability(doc *goquery.Document) (registry.Fields, error) {
	fields := registry.NewFields()
	doc.Find("script").EachWithBreak(func(_ int, script *goquery.Selection) bool {
		body := script.Text()
		if !strings.Contains(body, "check_counterparty") {
			return true
		}
		if raw, ok := submatch(reliabilityFlag, body); ok {
			rating, known := reliabilityRatings[strings.ToLower(raw)]
			if !known {
				rating = raw
			}
			fields.SetString(registry.FieldReliabilityRating, rating)
		}
		return false
	})
	return fields, nil
}

// sectionsOverview summarizes the presence, count and amount of each overview tile.
func sectionsOverview(doc *goquery.Document) (registry.Fields, error) {
	fields := registry.NewFields()
	sections := make(map[registry.SectionKey]registry.Section)
	for _, tile := range sectionTiles {
		sel := doc.Find(`[class*="` + tile.class + `"]`).First()
		if sel.Length() == 0 {
			continue
		}
		tileText := text(sel)
		if containsAny(strings.ToLower(tileText), noDataMarkers...) {
			sections[tile.key] = registry.Section{Exists: false}
			continue
		}
		section := registry.Section{Exists: true}
		sel.Find("a").EachWithBreak(func(_ int, link *goquery.Selection) bool {
			digits := strings.Join(strings.Fields(link.Text()), "")
			if digits == "" || !isDigits(digits) {
				return true
			}
			if n, err := strconv.Atoi(digits); err == nil {
				section.Count = &n
			}
			return false
		})
		if sum, ok := submatch(forAmount, tileText); ok {
			section.Sum = sum
		}
		sections[tile.key] = section
	}
	if len(sections) > 0 {
		fields.SetSections(sections)
	}
	return fields, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// addressReliability flags pages that warn about an unreliable registered address.
func addressReliability(doc *goquery.Document) (registry.Fields, error) {
	fields := registry.NewFields()
	page := strings.ToLower(doc.Text())
	if strings.Contains(page, "недостоверн") && strings.Contains(page, "адрес") {
		fields.SetBool(registry.FieldAddressUnreliable, true)
	}
	return fields, nil
}
