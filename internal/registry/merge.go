package registry

import "maps"

// MergePolicy decides whether an incoming value may replace the current one.
type MergePolicy int

const (
	// FillForward applies any non-empty incoming value and never erases.
	FillForward MergePolicy = iota
	// PinnedOnceSet keeps the first non-empty value for good.
	PinnedOnceSet
	// AlwaysOverwrite replaces the current value whenever the field is present.
	AlwaysOverwrite
)

func (p MergePolicy) String() string {
	switch p {
	case FillForward:
		return "fill_forward"
	case PinnedOnceSet:
		return "pinned_once_set"
	case AlwaysOverwrite:
		return "always_overwrite"
	default:
		return "unknown"
	}
}

// binding ties a Field to its merge policy and to the record slot it writes.
// target returns one of *string, **int, **bool, *[]Founder or *map[SectionKey]Section.
type binding struct {
	policy MergePolicy
	target func(*CompanyRecord) any
}

var bindings = map[Field]binding{
	FieldName:                   {FillForward, func(r *CompanyRecord) any { return &r.Name }},
	FieldRegistrationNumber:     {FillForward, func(r *CompanyRecord) any { return &r.RegistrationNumber }},
	FieldAddress:                {FillForward, func(r *CompanyRecord) any { return &r.Address }},
	FieldRegion:                 {FillForward, func(r *CompanyRecord) any { return &r.Region }},
	FieldRegistrationDate:       {FillForward, func(r *CompanyRecord) any { return &r.RegistrationDate }},
	FieldURL:                    {AlwaysOverwrite, func(r *CompanyRecord) any { return &r.URL }},
	FieldCEOName:                {FillForward, func(r *CompanyRecord) any { return &r.CEOName }},
	FieldCEOTitle:               {FillForward, func(r *CompanyRecord) any { return &r.CEOTitle }},
	FieldActivityCode:           {FillForward, func(r *CompanyRecord) any { return &r.ActivityCode }},
	FieldActivityName:           {FillForward, func(r *CompanyRecord) any { return &r.ActivityName }},
	FieldCapital:                {FillForward, func(r *CompanyRecord) any { return &r.Capital }},
	FieldFullName:               {FillForward, func(r *CompanyRecord) any { return &r.FullName }},
	FieldRegistrationNumberDate: {FillForward, func(r *CompanyRecord) any { return &r.RegistrationNumberDate }},
	FieldKPP:                    {FillForward, func(r *CompanyRecord) any { return &r.KPP }},
	FieldOKPO:                   {PinnedOnceSet, func(r *CompanyRecord) any { return &r.OKPO }},
	FieldOKATO:                  {FillForward, func(r *CompanyRecord) any { return &r.OKATO }},
	FieldOKTMO:                  {FillForward, func(r *CompanyRecord) any { return &r.OKTMO }},
	FieldOKFS:                   {FillForward, func(r *CompanyRecord) any { return &r.OKFS }},
	FieldOKOGU:                  {FillForward, func(r *CompanyRecord) any { return &r.OKOGU }},
	FieldOrgFormCode:            {FillForward, func(r *CompanyRecord) any { return &r.OrgFormCode }},
	FieldOrgFormName:            {FillForward, func(r *CompanyRecord) any { return &r.OrgFormName }},
	FieldCEOTaxID:               {FillForward, func(r *CompanyRecord) any { return &r.CEOTaxID }},
	FieldCEOStartDate:           {FillForward, func(r *CompanyRecord) any { return &r.CEOStartDate }},
	FieldCEOOtherCompanies:      {FillForward, func(r *CompanyRecord) any { return &r.CEOOtherCompanies }},
	FieldSMEStatus:              {FillForward, func(r *CompanyRecord) any { return &r.SMEStatus }},
	FieldSMEDate:                {FillForward, func(r *CompanyRecord) any { return &r.SMEDate }},
	FieldTaxAuthority:           {FillForward, func(r *CompanyRecord) any { return &r.TaxAuthority }},
	FieldTaxAuthorityDate:       {FillForward, func(r *CompanyRecord) any { return &r.TaxAuthorityDate }},
	FieldAddressUnreliable:      {FillForward, func(r *CompanyRecord) any { return &r.AddressUnreliable }},
	FieldRevenue:                {FillForward, func(r *CompanyRecord) any { return &r.Revenue }},
	FieldRevenueYear:            {FillForward, func(r *CompanyRecord) any { return &r.RevenueYear }},
	FieldRevenueChange:          {FillForward, func(r *CompanyRecord) any { return &r.RevenueChange }},
	FieldProfit:                 {FillForward, func(r *CompanyRecord) any { return &r.Profit }},
	FieldProfitChange:           {FillForward, func(r *CompanyRecord) any { return &r.ProfitChange }},
	FieldFinancialStability:     {FillForward, func(r *CompanyRecord) any { return &r.FinancialStability }},
	FieldSolvency:               {FillForward, func(r *CompanyRecord) any { return &r.Solvency }},
	FieldEfficiency:             {FillForward, func(r *CompanyRecord) any { return &r.Efficiency }},
	FieldFounders:               {FillForward, func(r *CompanyRecord) any { return &r.Founders }},
	FieldReliabilityRating:      {FillForward, func(r *CompanyRecord) any { return &r.ReliabilityRating }},
	FieldEnforcementCount:       {FillForward, func(r *CompanyRecord) any { return &r.EnforcementCount }},
	FieldEnforcementSum:         {FillForward, func(r *CompanyRecord) any { return &r.EnforcementSum }},
	FieldTaxesSum:               {FillForward, func(r *CompanyRecord) any { return &r.TaxesSum }},
	FieldTaxesYear:              {FillForward, func(r *CompanyRecord) any { return &r.TaxesYear }},
	FieldContributionsSum:       {FillForward, func(r *CompanyRecord) any { return &r.ContributionsSum }},
	FieldSections:               {FillForward, func(r *CompanyRecord) any { return &r.Sections }},
}

// PolicyFor returns the merge policy bound to field.
func PolicyFor(field Field) (MergePolicy, bool) {
	b, ok := bindings[field]
	return b.policy, ok
}

// Merge applies fields to rec according to each field's policy. Unknown
// fields and values of the wrong kind are ignored.
func Merge(rec *CompanyRecord, fields Fields) {
	for field, value := range fields {
		b, ok := bindings[field]
		if !ok {
			continue
		}
		switch ptr := b.target(rec).(type) {
		case *string:
			v, ok := value.(string)
			if ok && allowed(b.policy, *ptr == "", v == "") {
				*ptr = v
			}
		case **int:
			v, ok := value.(int)
			if ok && allowed(b.policy, *ptr == nil, false) {
				*ptr = &v
			}
		case **bool:
			v, ok := value.(bool)
			if ok && allowed(b.policy, *ptr == nil, false) {
				*ptr = &v
			}
		case *[]Founder:
			v, ok := value.([]Founder)
			if ok && allowed(b.policy, len(*ptr) == 0, len(v) == 0) {
				*ptr = append([]Founder(nil), v...)
			}
		case *map[SectionKey]Section:
			v, ok := value.(map[SectionKey]Section)
			if ok && allowed(b.policy, len(*ptr) == 0, len(v) == 0) {
				*ptr = maps.Clone(v)
			}
		}
	}
}

func allowed(policy MergePolicy, currentEmpty, incomingEmpty bool) bool {
	switch policy {
	case AlwaysOverwrite:
		return true
	case PinnedOnceSet:
		return currentEmpty && !incomingEmpty
	default:
		return !incomingEmpty
	}
}
