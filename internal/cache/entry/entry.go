// Package entry converts company records to and from their stored form.
package entry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/JakeFAU/company-registry-scraper/internal/registry"
)

// Encode serializes rec without its cache metadata.
func Encode(rec registry.CompanyRecord) ([]byte, error) {
	rec.Cached = false
	rec.CachedAt = nil
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record %s: %w", rec.TaxID, err)
	}
	return data, nil
}

// Decode restores a stored record and stamps it with the time it was written.
func Decode(data []byte, updatedAt time.Time) (registry.CompanyRecord, error) {
	var rec registry.CompanyRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return registry.CompanyRecord{}, fmt.Errorf("decode record: %w", err)
	}
	stamp := updatedAt.UTC()
	rec.Cached = true
	rec.CachedAt = &stamp
	return rec, nil
}

// Fresh reports whether an entry written at updatedAt is still within ttl at now.
// A non-positive ttl never expires.
func Fresh(updatedAt, now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return true
	}
	return now.Sub(updatedAt) < ttl
}

// Column returns the lookup column for an identifier kind.
func Column(kind registry.IdentifierKind) (string, error) {
	switch kind {
	case registry.KindTaxID:
		return "tax_id", nil
	case registry.KindRegistrationNumber:
		return "registration_number", nil
	default:
		return "", fmt.Errorf("unsupported identifier kind %q", kind)
	}
}
