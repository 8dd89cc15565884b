package registry

import "strings"

// Field enumerates every record attribute a summary or extraction source may produce.
type Field string

// Extractable fields.
const (
	FieldName                   Field = "name"
	FieldRegistrationNumber     Field = "registration_number"
	FieldAddress                Field = "address"
	FieldRegion                 Field = "region"
	FieldRegistrationDate       Field = "registration_date"
	FieldURL                    Field = "url"
	FieldCEOName                Field = "ceo_name"
	FieldCEOTitle               Field = "ceo_title"
	FieldActivityCode           Field = "activity_code"
	FieldActivityName           Field = "activity_name"
	FieldCapital                Field = "capital"
	FieldFullName               Field = "full_name"
	FieldRegistrationNumberDate Field = "registration_number_date"
	FieldKPP                    Field = "kpp"
	FieldOKPO                   Field = "okpo"
	FieldOKATO                  Field = "okato"
	FieldOKTMO                  Field = "oktmo"
	FieldOKFS                   Field = "okfs"
	FieldOKOGU                  Field = "okogu"
	FieldOrgFormCode            Field = "org_form_code"
	FieldOrgFormName            Field = "org_form_name"
	FieldCEOTaxID               Field = "ceo_tax_id"
	FieldCEOStartDate           Field = "ceo_start_date"
	FieldCEOOtherCompanies      Field = "ceo_other_companies"
	FieldSMEStatus              Field = "sme_status"
	FieldSMEDate                Field = "sme_date"
	FieldTaxAuthority           Field = "tax_authority"
	FieldTaxAuthorityDate       Field = "tax_authority_date"
	FieldAddressUnreliable      Field = "address_unreliable"
	FieldRevenue                Field = "revenue"
	FieldRevenueYear            Field = "revenue_year"
	FieldRevenueChange          Field = "revenue_change"
	FieldProfit                 Field = "profit"
	FieldProfitChange           Field = "profit_change"
	FieldFinancialStability     Field = "financial_stability"
	FieldSolvency               Field = "solvency"
	FieldEfficiency             Field = "efficiency"
	FieldFounders               Field = "founders"
	FieldReliabilityRating      Field = "reliability_rating"
	FieldEnforcementCount       Field = "enforcement_count"
	FieldEnforcementSum         Field = "enforcement_sum"
	FieldTaxesSum               Field = "taxes_sum"
	FieldTaxesYear              Field = "taxes_year"
	FieldContributionsSum       Field = "contributions_sum"
	FieldSections               Field = "sections"
)

// Fields is a partial extraction result. Values are only written through the
// typed setters so every entry matches the kind its Field binds to.
type Fields map[Field]any

// NewFields returns an empty result set.
func NewFields() Fields {
	return Fields{}
}

// SetString stores a trimmed string value.
func (f Fields) SetString(field Field, value string) {
	f[field] = strings.TrimSpace(value)
}

// SetInt stores an integer value.
func (f Fields) SetInt(field Field, value int) {
	f[field] = value
}

// SetBool stores a boolean flag.
func (f Fields) SetBool(field Field, value bool) {
	f[field] = value
}

// SetFounders stores the ordered founder list.
func (f Fields) SetFounders(founders []Founder) {
	f[FieldFounders] = founders
}

// SetSections stores the sections overview.
func (f Fields) SetSections(sections map[SectionKey]Section) {
	f[FieldSections] = sections
}

// String returns the string stored for field.
func (f Fields) String(field Field) (string, bool) {
	v, ok := f[field].(string)
	return v, ok
}

// Int returns the integer stored for field.
func (f Fields) Int(field Field) (int, bool) {
	v, ok := f[field].(int)
	return v, ok
}

// Bool returns the flag stored for field.
func (f Fields) Bool(field Field) (bool, bool) {
	v, ok := f[field].(bool)
	return v, ok
}

// Founders returns the stored founder list.
func (f Fields) Founders() []Founder {
	v, _ := f[FieldFounders].([]Founder)
	return v
}

// Sections returns the stored sections overview.
func (f Fields) Sections() map[SectionKey]Section {
	v, _ := f[FieldSections].(map[SectionKey]Section)
	return v
}

// Update copies every entry of other into f, replacing existing keys.
func (f Fields) Update(other Fields) {
	for k, v := range other {
		f[k] = v
	}
}
