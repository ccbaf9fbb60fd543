package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commerce/fulfillment/internal/domain/shipping"
)

func testRecord(key string) *shipping.QuoteRecord {
	return &shipping.QuoteRecord{
		QuoteKey:  key,
		Rates:     []shipping.Rate{{ID: "rate_1", Carrier: "USPS"}},
		CreatedAt: time.Now(),
	}
}

func TestMemoryQuoteCache(t *testing.T) {
	ctx := context.Background()

	t.Run("miss returns nil without error", func(t *testing.T) {
		c := NewMemoryQuoteCache()
		rec, err := c.Get(ctx, "absent")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("round trip", func(t *testing.T) {
		c := NewMemoryQuoteCache()
		require.NoError(t, c.Put(ctx, testRecord("k1"), time.Hour))

		rec, err := c.Get(ctx, "k1")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, "k1", rec.QuoteKey)
	})

	t.Run("put is an upsert, not an append", func(t *testing.T) {
		c := NewMemoryQuoteCache()
		require.NoError(t, c.Put(ctx, testRecord("k1"), time.Hour))

		updated := testRecord("k1")
		updated.ProviderShipmentID = "shp_new"
		require.NoError(t, c.Put(ctx, updated, time.Hour))

		assert.Equal(t, 1, c.Len())
		rec, err := c.Get(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, "shp_new", rec.ProviderShipmentID)
	})

	t.Run("ttl lapse turns into a miss", func(t *testing.T) {
		c := NewMemoryQuoteCache()
		current := time.Now()
		c.now = func() time.Time { return current }

		require.NoError(t, c.Put(ctx, testRecord("k1"), time.Minute))
		current = current.Add(2 * time.Minute)

		rec, err := c.Get(ctx, "k1")
		require.NoError(t, err)
		assert.Nil(t, rec)
		assert.Equal(t, 1, c.Len(), "expired entries are ignored, not deleted")
	})

	t.Run("non-positive ttl never expires", func(t *testing.T) {
		c := NewMemoryQuoteCache()
		current := time.Now()
		c.now = func() time.Time { return current }

		require.NoError(t, c.Put(ctx, testRecord("k1"), 0))
		current = current.Add(1000 * time.Hour)

		rec, err := c.Get(ctx, "k1")
		require.NoError(t, err)
		assert.NotNil(t, rec)
	})

	t.Run("concurrent writers for the same key are tolerated", func(t *testing.T) {
		c := NewMemoryQuoteCache()
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = c.Put(ctx, testRecord("k1"), time.Hour)
				_, _ = c.Get(ctx, "k1")
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, c.Len())
	})
}
