package cache

import (
	"context"
	"sync"
	"time"

	"github.com/commerce/fulfillment/internal/domain/shipping"
)

// MemoryQuoteCache is an in-process quote cache for tests and
// single-instance development. Expired entries are overwritten on the
// next Put rather than evicted by a background sweep; the engine treats
// stale records as misses either way.
type MemoryQuoteCache struct {
	mu      sync.RWMutex
	records map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	record    shipping.QuoteRecord
	expiresAt time.Time // zero means never
}

// NewMemoryQuoteCache creates an empty in-memory cache.
func NewMemoryQuoteCache() *MemoryQuoteCache {
	return &MemoryQuoteCache{
		records: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns a copy of the stored record, or nil on a miss or after
// the store-level TTL has lapsed.
func (c *MemoryQuoteCache) Get(_ context.Context, key string) (*shipping.QuoteRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.records[key]
	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && !entry.expiresAt.After(c.now()) {
		return nil, nil
	}
	record := entry.record
	return &record, nil
}

// Put upserts the record under its quote key.
func (c *MemoryQuoteCache) Put(_ context.Context, record *shipping.QuoteRecord, ttl time.Duration) error {
	entry := memoryEntry{record: *record}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[record.QuoteKey] = entry
	return nil
}

// Len reports the number of stored records, expired or not.
func (c *MemoryQuoteCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}
