package registry

import (
	"context"
	"time"
)

// Fetcher issues rate-limited GET requests against the upstream site.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (FetchResponse, error)
}

// Cache persists records with a freshness window.
type Cache interface {
	// Get returns the cached record for id. The boolean is false when the
	// entry is absent or older than the TTL.
	Get(ctx context.Context, id Identifier) (CompanyRecord, bool, error)
	// Put upserts rec keyed by its tax ID.
	Put(ctx context.Context, rec CompanyRecord) error
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator issues request identifiers.
type IDGenerator interface {
	NewID() (string, error)
}
