// Package registry defines the company record model, lookup identifiers and the
// contracts shared by the fetch, extraction and caching layers.
package registry

import (
	"net/http"
	"net/url"
	"time"
)

// Status describes whether an organization is still operating.
type Status string

const (
	// StatusActive marks an operating organization.
	StatusActive Status = "active"
	// StatusLiquidated marks an organization removed from the register.
	StatusLiquidated Status = "liquidated"
)

// FounderType distinguishes natural persons from legal entities.
type FounderType string

const (
	// FounderPerson is a natural person.
	FounderPerson FounderType = "person"
	// FounderOrganization is another registered organization.
	FounderOrganization FounderType = "organization"
)

// Founder is one entry of the ownership block.
type Founder struct {
	Name  string      `json:"name"`
	Type  FounderType `json:"type,omitempty"`
	TaxID string      `json:"tax_id,omitempty"`
	Share string      `json:"share,omitempty"`
}

// SectionKey names one of the fixed page sections summarized in the overview.
type SectionKey string

// Section keys in page order.
const (
	SectionArbitration  SectionKey = "arbitration"
	SectionTrademarks   SectionKey = "trademarks"
	SectionGovContracts SectionKey = "gov_contracts"
	SectionInspections  SectionKey = "inspections"
	SectionBranches     SectionKey = "branches"
	SectionLicenses     SectionKey = "licenses"
	SectionLeasing      SectionKey = "leasing"
	SectionPledges      SectionKey = "pledges"
	SectionInsolvency   SectionKey = "insolvency"
	SectionCourts       SectionKey = "courts"
)

// Section summarizes a single page section. Count and Sum are only set when Exists is true.
type Section struct {
	Exists bool   `json:"exists"`
	Count  *int   `json:"count,omitempty"`
	Sum    string `json:"sum,omitempty"`
}

// CompanyRecord is the normalized view of one registered organization.
type CompanyRecord struct {
	TaxID                  string `json:"tax_id"`
	RegistrationNumber     string `json:"registration_number,omitempty"`
	RegistrationNumberDate string `json:"registration_number_date,omitempty"`

	Name             string `json:"name,omitempty"`
	FullName         string `json:"full_name,omitempty"`
	Status           Status `json:"status,omitempty"`
	Address          string `json:"address,omitempty"`
	Region           string `json:"region,omitempty"`
	RegistrationDate string `json:"registration_date,omitempty"`
	URL              string `json:"url,omitempty"`

	CEOName           string `json:"ceo_name,omitempty"`
	CEOTitle          string `json:"ceo_title,omitempty"`
	CEOTaxID          string `json:"ceo_tax_id,omitempty"`
	CEOStartDate      string `json:"ceo_start_date,omitempty"`
	CEOOtherCompanies *int   `json:"ceo_other_companies,omitempty"`

	ActivityCode string `json:"activity_code,omitempty"`
	ActivityName string `json:"activity_name,omitempty"`
	KPP          string `json:"kpp,omitempty"`
	OKPO         string `json:"okpo,omitempty"`
	OKATO        string `json:"okato,omitempty"`
	OKTMO        string `json:"oktmo,omitempty"`
	OKFS         string `json:"okfs,omitempty"`
	OKOGU        string `json:"okogu,omitempty"`
	OrgFormCode  string `json:"org_form_code,omitempty"`
	OrgFormName  string `json:"org_form_name,omitempty"`

	SMEStatus         string `json:"sme_status,omitempty"`
	SMEDate           string `json:"sme_date,omitempty"`
	TaxAuthority      string `json:"tax_authority,omitempty"`
	TaxAuthorityDate  string `json:"tax_authority_date,omitempty"`
	AddressUnreliable *bool  `json:"address_unreliable,omitempty"`
	Capital           string `json:"capital,omitempty"`

	Revenue            string `json:"revenue,omitempty"`
	RevenueYear        *int   `json:"revenue_year,omitempty"`
	RevenueChange      string `json:"revenue_change,omitempty"`
	Profit             string `json:"profit,omitempty"`
	ProfitChange       string `json:"profit_change,omitempty"`
	FinancialStability string `json:"financial_stability,omitempty"`
	Solvency           string `json:"solvency,omitempty"`
	Efficiency         string `json:"efficiency,omitempty"`

	Founders []Founder `json:"founders,omitempty"`

	ReliabilityRating string `json:"reliability_rating,omitempty"`

	EnforcementCount *int   `json:"enforcement_count,omitempty"`
	EnforcementSum   string `json:"enforcement_sum,omitempty"`

	TaxesSum         string `json:"taxes_sum,omitempty"`
	TaxesYear        *int   `json:"taxes_year,omitempty"`
	ContributionsSum string `json:"contributions_sum,omitempty"`

	Sections map[SectionKey]Section `json:"sections,omitempty"`

	Cached   bool       `json:"cached"`
	CachedAt *time.Time `json:"cached_at,omitempty"`

	// Incomplete is set when the detail page could not be fetched. Such
	// records are returned to the caller but never written to the cache.
	Incomplete bool `json:"-"`
}

// Summary projects the record onto the lightweight search shape.
func (r CompanyRecord) Summary() SearchResult {
	return SearchResult{
		TaxID:              r.TaxID,
		Name:               r.Name,
		RegistrationNumber: r.RegistrationNumber,
		Address:            r.Address,
		CEOName:            r.CEOName,
		Status:             r.Status,
		URL:                r.URL,
	}
}

// SearchResult is returned by free-text search.
type SearchResult struct {
	TaxID              string `json:"tax_id"`
	Name               string `json:"name,omitempty"`
	RegistrationNumber string `json:"registration_number,omitempty"`
	Address            string `json:"address,omitempty"`
	CEOName            string `json:"ceo_name,omitempty"`
	Status             Status `json:"status,omitempty"`
	URL                string `json:"url,omitempty"`
}

// Stats aggregates cache contents.
type Stats struct {
	TotalCached int64      `json:"total_cached"`
	OldestEntry *time.Time `json:"oldest_entry"`
	NewestEntry *time.Time `json:"newest_entry"`
}

// IdentifierKind selects which registry identifier a lookup uses.
type IdentifierKind string

const (
	// KindTaxID looks up by taxpayer identifier.
	KindTaxID IdentifierKind = "tax_id"
	// KindRegistrationNumber looks up by state registration number.
	KindRegistrationNumber IdentifierKind = "registration_number"
)

// Identifier is a validated lookup key.
type Identifier struct {
	Kind  IdentifierKind
	Value string
}

func (id Identifier) String() string {
	return string(id.Kind) + ":" + id.Value
}

// FetchKind labels outbound requests for timeouts and metrics.
type FetchKind string

const (
	// FetchSearch is a call to the JSON search endpoint.
	FetchSearch FetchKind = "search"
	// FetchPage is a detail page download.
	FetchPage FetchKind = "page"
)

// FetchRequest describes one outbound GET.
type FetchRequest struct {
	URL   string
	Query url.Values
	Kind  FetchKind
}

// FetchResponse captures the upstream reply. URL is the final URL after redirects.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}
