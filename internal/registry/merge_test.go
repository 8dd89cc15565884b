package registry

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeFillForwardKeepsExistingValue(t *testing.T) {
	t.Parallel()

	rec := CompanyRecord{TaxID: "7700000000", Region: "Moscow"}
	incoming := NewFields()
	incoming.SetString(FieldRegion, "")

	Merge(&rec, incoming)
	assert.Equal(t, "Moscow", rec.Region)

	Merge(&rec, NewFields())
	assert.Equal(t, "Moscow", rec.Region)
}

func TestMergeFillForwardPopulatesEmptyValue(t *testing.T) {
	t.Parallel()

	rec := CompanyRecord{TaxID: "7700000000"}
	incoming := NewFields()
	incoming.SetString(FieldRegion, "Moscow")

	Merge(&rec, incoming)
	assert.Equal(t, "Moscow", rec.Region)
}

func TestMergeFillForwardReplacesWithNonEmpty(t *testing.T) {
	t.Parallel()

	rec := CompanyRecord{TaxID: "7700000000", FullName: "short"}
	incoming := NewFields()
	incoming.SetString(FieldFullName, "  Limited Liability Company Acme ")

	Merge(&rec, incoming)
	assert.Equal(t, "Limited Liability Company Acme", rec.FullName)
}

func TestMergePinnedFieldNeverChangesOnceSet(t *testing.T) {
	t.Parallel()

	rec := CompanyRecord{TaxID: "7700000000", OKPO: "12345678"}
	incoming := NewFields()
	incoming.SetString(FieldOKPO, "87654321")

	Merge(&rec, incoming)
	assert.Equal(t, "12345678", rec.OKPO)

	empty := CompanyRecord{TaxID: "7700000000"}
	Merge(&empty, incoming)
	assert.Equal(t, "87654321", empty.OKPO)

	blank := NewFields()
	blank.SetString(FieldOKPO, "")
	Merge(&empty, blank)
	assert.Equal(t, "87654321", empty.OKPO)
}

func TestMergeAlwaysOverwriteURL(t *testing.T) {
	t.Parallel()

	rec := CompanyRecord{TaxID: "7700000000", URL: "https://example.com/id/1"}
	incoming := NewFields()
	incoming.SetString(FieldURL, "https://example.com/id/1-acme")

	Merge(&rec, incoming)
	assert.Equal(t, "https://example.com/id/1-acme", rec.URL)
}

func TestMergeIsIdempotent(t *testing.T) {
	t.Parallel()

	count := 3
	incoming := NewFields()
	incoming.SetString(FieldKPP, "770001001")
	incoming.SetString(FieldOKPO, "11111111")
	incoming.SetInt(FieldRevenueYear, 2023)
	incoming.SetBool(FieldAddressUnreliable, true)
	incoming.SetFounders([]Founder{
		{Name: "Ivanov Ivan", Type: FounderPerson, TaxID: "770000000001", Share: "50%"},
		{Name: "Acme Holding", Type: FounderOrganization},
	})
	incoming.SetSections(map[SectionKey]Section{
		SectionArbitration: {Exists: true, Count: &count},
		SectionLeasing:     {Exists: false},
	})

	once := CompanyRecord{TaxID: "7700000000", Name: "Acme"}
	Merge(&once, incoming)

	twice := CompanyRecord{TaxID: "7700000000", Name: "Acme"}
	Merge(&twice, incoming)
	Merge(&twice, incoming)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("merge not idempotent (-once +twice):\n%s", diff)
	}
	require.Len(t, twice.Founders, 2)
	require.NotNil(t, twice.RevenueYear)
	assert.Equal(t, 2023, *twice.RevenueYear)
}

func TestMergeIgnoresMismatchedKinds(t *testing.T) {
	t.Parallel()

	rec := CompanyRecord{TaxID: "7700000000"}
	Merge(&rec, Fields{FieldRevenueYear: "2023", FieldKPP: 42, Field("unknown"): "x"})

	assert.Nil(t, rec.RevenueYear)
	assert.Empty(t, rec.KPP)
}

func TestMergeCopiesCollections(t *testing.T) {
	t.Parallel()

	founders := []Founder{{Name: "A"}}
	incoming := NewFields()
	incoming.SetFounders(founders)

	rec := CompanyRecord{TaxID: "7700000000"}
	Merge(&rec, incoming)
	founders[0].Name = "B"

	assert.Equal(t, "A", rec.Founders[0].Name)
}

func TestEveryFieldHasBinding(t *testing.T) {
	t.Parallel()

	all := []Field{
		FieldName, FieldRegistrationNumber, FieldAddress, FieldRegion, FieldRegistrationDate,
		FieldURL, FieldCEOName, FieldCEOTitle, FieldActivityCode, FieldActivityName, FieldCapital,
		FieldFullName, FieldRegistrationNumberDate, FieldKPP, FieldOKPO, FieldOKATO, FieldOKTMO,
		FieldOKFS, FieldOKOGU, FieldOrgFormCode, FieldOrgFormName, FieldCEOTaxID, FieldCEOStartDate,
		FieldCEOOtherCompanies, FieldSMEStatus, FieldSMEDate, FieldTaxAuthority, FieldTaxAuthorityDate,
		FieldAddressUnreliable, FieldRevenue, FieldRevenueYear, FieldRevenueChange, FieldProfit,
		FieldProfitChange, FieldFinancialStability, FieldSolvency, FieldEfficiency, FieldFounders,
		FieldReliabilityRating, FieldEnforcementCount, FieldEnforcementSum, FieldTaxesSum,
		FieldTaxesYear, FieldContributionsSum, FieldSections,
	}
	for _, f := range all {
		_, ok := PolicyFor(f)
		assert.True(t, ok, "missing binding for %s", f)
	}
	policy, _ := PolicyFor(FieldOKPO)
	assert.Equal(t, PinnedOnceSet, policy)
	assert.Equal(t, "pinned_once_set", policy.String())
}
