package search

import "strings"

var markerStripper = strings.NewReplacer("!", "", "~", "")

// CleanIdentifier removes the highlight markers the upstream injects into
// identifiers and trims surrounding whitespace.
func CleanIdentifier(raw string) string {
	return strings.TrimSpace(markerStripper.Replace(raw))
}

// MatchTaxID returns the first candidate whose cleaned tax ID equals taxID.
func MatchTaxID(candidates []Candidate, taxID string) (Candidate, bool) {
	for _, c := range candidates {
		if c.TaxID() == taxID {
			return c, true
		}
	}
	return Candidate{}, false
}

// MatchRegistrationNumber returns the first candidate whose cleaned
// registration number, highlighted or raw, equals number.
func MatchRegistrationNumber(candidates []Candidate, number string) (Candidate, bool) {
	for _, c := range candidates {
		if CleanIdentifier(string(c.OGRN)) == number || CleanIdentifier(string(c.RawOGRN)) == number {
			return c, true
		}
	}
	return Candidate{}, false
}
