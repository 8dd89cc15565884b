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
	registeredOn   = regexp.MustCompile(`от\s+(.+)`)
	ceoSince       = regexp.MustCompile(`с\s+(\d+\s+\p{L}+\s+\d{4}\s*г\.?)`)
	ceoOtherOrgs   = regexp.MustCompile(`ещ[её]\s+(\d+)\s+организаци`)
	smeSince       = regexp.MustCompile(`с?\s*(\d[\d.]+\d{4}|\d+\s+\p{L}+\s+\d{4})`)
	authoritySince = regexp.MustCompile(`^(.+?)\s+с\s+(\d+\s+\p{L}+\s+\d{4}\s*г\.?)\s*$`)
	sinceLabel     = regexp.MustCompile(`^с\s+(.+)$`)
)

var classifierIDs = []struct {
	id    string
	field registry.Field
}{
	{"clip_kpp", registry.FieldKPP},
	{"clip_okpo", registry.FieldOKPO},
	{"clip_okato", registry.FieldOKATO},
	{"clip_oktmo", registry.FieldOKTMO},
	{"clip_okfs", registry.FieldOKFS},
	{"clip_okogu", registry.FieldOKOGU},
}

// basicIdentifiers reads the classifier codes, full legal name, legal form and
// the registration number date.
func basicIdentifiers(doc *goquery.Document) (registry.Fields, error) {
	fields := registry.NewFields()
	for _, c := range classifierIDs {
		if v := text(doc.Find("#" + c.id).First()); v != "" {
			fields.SetString(c.field, v)
		}
	}

	fullName := text(doc.Find(`[itemprop="legalName"]`).First())
	if fullName == "" {
		fullName = text(doc.Find("#clip_name-long").First())
	}
	if fullName != "" {
		fields.SetString(registry.FieldFullName, fullName)
	}

	if okopf := doc.Find("#clip_okopf").First(); okopf.Length() > 0 {
		if code := text(okopf); code != "" {
			fields.SetString(registry.FieldOrgFormCode, code)
		}
		form := okopf.ParentsFiltered("dd").First().NextAllFiltered("dd").First()
		if name := text(form.Find("span.chief-title").First()); name != "" {
			fields.SetString(registry.FieldOrgFormName, name)
		}
	}

	if dt := findDT(doc.Selection, "ОГРН"); dt.Length() > 0 {
		followingDDs(dt).EachWithBreak(func(_ int, dd *goquery.Selection) bool {
			if date, ok := submatch(registeredOn, text(dd)); ok {
				fields.SetString(registry.FieldRegistrationNumberDate, date)
				return false
			}
			return true
		})
	}
	return fields, nil
}

// leadership reads the head of the organization row.
func leadership(doc *goquery.Document) (registry.Fields, error) {
	fields := registry.NewFields()
	row := companyRow(doc, "уководител")
	if row.Length() == 0 {
		return fields, nil
	}

	if href, ok := row.Find(`a[href*="/person/"]`).First().Attr("href"); ok {
		if taxID := slugTaxID(href); taxID != "" {
			fields.SetString(registry.FieldCEOTaxID, taxID)
		}
	}
	row.Find("span.chief-title").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		since, ok := submatch(ceoSince, text(span))
		if ok {
			fields.SetString(registry.FieldCEOStartDate, since)
		}
		return !ok
	})
	if raw, ok := submatch(ceoOtherOrgs, text(row)); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("other organizations count %q: %w", raw, err)
		}
		fields.SetInt(registry.FieldCEOOtherCompanies, n)
	}
	return fields, nil
}

// smeRegistry reads the small and medium enterprise register status.
func smeRegistry(doc *goquery.Document) (registry.Fields, error) {
	fields := registry.NewFields()
	var status string
	if row := companyRow(doc, "Реестр МСП"); row.Length() > 0 {
		status = text(row.Find(".company-info__text").First())
	} else if dt := findDT(doc.Selection, "Реестр МСП"); dt.Length() > 0 {
		status = text(nextDD(dt))
	}
	if status == "" || strings.EqualFold(status, "не входит") {
		return fields, nil
	}
	fields.SetString(registry.FieldSMEStatus, status)
	if since, ok := submatch(smeSince, status); ok {
		fields.SetString(registry.FieldSMEDate, since)
	}
	return fields, nil
}

const taxAuthorityMarker = "Налоговый орган"

// taxAuthority reads the registering tax office and its effective date.
func taxAuthority(doc *goquery.Document) (registry.Fields, error) {
	fields := registry.NewFields()
	var raw, date string
	if dt := findDT(doc.Selection, taxAuthorityMarker); dt.Length() > 0 {
		raw = text(nextDD(dt))
	} else {
		raw, date = taxAuthorityFromLabel(doc)
	}
	if raw == "" {
		return fields, nil
	}
	if m := authoritySince.FindStringSubmatch(raw); m != nil {
		fields.SetString(registry.FieldTaxAuthority, m[1])
		fields.SetString(registry.FieldTaxAuthorityDate, m[2])
		return fields, nil
	}
	fields.SetString(registry.FieldTaxAuthority, raw)
	if date != "" {
		fields.SetString(registry.FieldTaxAuthorityDate, date)
	}
	return fields, nil
}

// taxAuthorityFromLabel handles layouts where the label is a bare text node:
// the name is the next non-blank string within the label's container and an
// optional "с <date>" string may follow it.
func taxAuthorityFromLabel(doc *goquery.Document) (name, date string) {
	label := doc.Find("body *").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return ownTextContains(s, taxAuthorityMarker)
	}).First()
	if label.Length() == 0 {
		return "", ""
	}
	strs := strippedStrings(label.Parent())
	for i, s := range strs {
		if !strings.Contains(s, taxAuthorityMarker) || i+1 >= len(strs) {
			continue
		}
		name = strs[i+1]
		if i+2 < len(strs) {
			if since, ok := submatch(sinceLabel, strs[i+2]); ok {
				date = strings.TrimSpace(since)
			}
		}
		return name, date
	}
	return "", ""
}
