// Package memory provides a process-local record cache for development and tests.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/JakeFAU/company-registry-scraper/internal/cache/entry"
	"github.com/JakeFAU/company-registry-scraper/internal/registry"
)

type item struct {
	data      []byte
	createdAt time.Time
	updatedAt time.Time
}

// Store keeps encoded records keyed by tax ID, with a registration number index.
type Store struct {
	mu       sync.RWMutex
	byTaxID  map[string]item
	byNumber map[string]string
	ttl      time.Duration
	clock    registry.Clock
}

// NewStore constructs a Store.
func NewStore(ttl time.Duration, clock registry.Clock) *Store {
	return &Store{
		byTaxID:  make(map[string]item),
		byNumber: make(map[string]string),
		ttl:      ttl,
		clock:    clock,
	}
}

// Get returns the stored record for id if it is younger than the TTL.
func (s *Store) Get(_ context.Context, id registry.Identifier) (registry.CompanyRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	taxID := id.Value
	if id.Kind == registry.KindRegistrationNumber {
		var ok bool
		if taxID, ok = s.byNumber[id.Value]; !ok {
			return registry.CompanyRecord{}, false, nil
		}
	}
	it, ok := s.byTaxID[taxID]
	if !ok || !entry.Fresh(it.updatedAt, s.clock.Now(), s.ttl) {
		return registry.CompanyRecord{}, false, nil
	}
	rec, err := entry.Decode(it.data, it.updatedAt)
	if err != nil {
		return registry.CompanyRecord{}, false, err
	}
	return rec, true, nil
}

// Put upserts rec keyed by its tax ID.
func (s *Store) Put(_ context.Context, rec registry.CompanyRecord) error {
	if rec.TaxID == "" {
		return errors.New("record tax id is required")
	}
	data, err := entry.Encode(rec)
	if err != nil {
		return err
	}
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	it, exists := s.byTaxID[rec.TaxID]
	if !exists {
		it.createdAt = now
	}
	it.data = data
	it.updatedAt = now
	s.byTaxID[rec.TaxID] = it
	if rec.RegistrationNumber != "" {
		s.byNumber[rec.RegistrationNumber] = rec.TaxID
	}
	return nil
}

// Stats reports the entry count, the earliest first write and the latest write.
func (s *Store) Stats(_ context.Context) (registry.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := registry.Stats{TotalCached: int64(len(s.byTaxID))}
	for _, it := range s.byTaxID {
		if stats.OldestEntry == nil || it.createdAt.Before(*stats.OldestEntry) {
			stats.OldestEntry = pointerTime(it.createdAt)
		}
		if stats.NewestEntry == nil || it.updatedAt.After(*stats.NewestEntry) {
			stats.NewestEntry = pointerTime(it.updatedAt)
		}
	}
	return stats, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func pointerTime(t time.Time) *time.Time {
	return &t
}
