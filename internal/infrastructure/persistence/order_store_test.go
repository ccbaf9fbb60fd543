package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/commerce/fulfillment/internal/domain/shipping"
	"github.com/commerce/fulfillment/internal/infrastructure/persistence/models"
)

func setupOrderTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.OrderModel{}, &models.ShippingLogModel{})
	require.NoError(t, err)

	return db
}

func seedOrder(t *testing.T, db *gorm.DB, orderID string) {
	t.Helper()
	model := models.OrderModel{ID: orderID, OrderNumber: "1001"}
	model.SetAddress(shipping.Address{
		Name: "Jo Buyer", Line1: "123 Main St", City: "Tampa",
		State: "FL", PostalCode: "33601", Country: "US",
	})
	require.NoError(t, model.SetItems([]shipping.CartItem{{Identifier: "WIDGET-1", Quantity: 2}}))
	require.NoError(t, db.Create(&model).Error)
}

func purchasedResult() shipping.LabelPurchaseResult {
	return shipping.LabelPurchaseResult{
		ShipmentID:     "shp_1",
		TrackerID:      "trk_1",
		LabelURL:       "https://labels.example/shp_1.pdf",
		TrackingNumber: "9400100",
		TrackingURL:    "https://track.example/9400100",
		Carrier:        "USPS",
		Service:        "Priority",
		Cost:           decimal.NewFromFloat(7.33),
		Currency:       "USD",
		PurchasedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestOrderStore_Fulfillment(t *testing.T) {
	db := setupOrderTestDB(t)
	store := NewGormOrderStore(db)
	ctx := context.Background()

	seedOrder(t, db, "order-1")

	t.Run("loads items and address", func(t *testing.T) {
		f, err := store.Fulfillment(ctx, "order-1")
		require.NoError(t, err)
		assert.Equal(t, "1001", f.OrderNumber)
		require.Len(t, f.Items, 1)
		assert.Equal(t, "WIDGET-1", f.Items[0].Identifier)
		assert.Equal(t, "33601", f.ShippingAddress.PostalCode)
		assert.False(t, f.LabelPurchased)
		assert.Nil(t, f.Label)
	})

	t.Run("unknown order maps to the domain error", func(t *testing.T) {
		_, err := store.Fulfillment(ctx, "order-missing")
		assert.ErrorIs(t, err, shipping.ErrOrderNotFound)
	})
}

func TestOrderStore_RecordLabelPurchase(t *testing.T) {
	ctx := context.Background()

	t.Run("persists outcome and round-trips through Fulfillment", func(t *testing.T) {
		db := setupOrderTestDB(t)
		store := NewGormOrderStore(db)
		seedOrder(t, db, "order-1")

		require.NoError(t, store.RecordLabelPurchase(ctx, "order-1", purchasedResult()))

		f, err := store.Fulfillment(ctx, "order-1")
		require.NoError(t, err)
		assert.True(t, f.LabelPurchased)
		require.NotNil(t, f.Label)
		assert.Equal(t, "9400100", f.Label.TrackingNumber)
		assert.True(t, f.Label.Cost.Equal(decimal.NewFromFloat(7.33)))
	})

	t.Run("second write is refused", func(t *testing.T) {
		db := setupOrderTestDB(t)
		store := NewGormOrderStore(db)
		seedOrder(t, db, "order-1")

		require.NoError(t, store.RecordLabelPurchase(ctx, "order-1", purchasedResult()))

		err := store.RecordLabelPurchase(ctx, "order-1", purchasedResult())
		assert.ErrorIs(t, err, shipping.ErrAlreadyPurchased)
	})

	t.Run("unknown order is distinguished from already purchased", func(t *testing.T) {
		db := setupOrderTestDB(t)
		store := NewGormOrderStore(db)

		err := store.RecordLabelPurchase(ctx, "order-missing", purchasedResult())
		assert.ErrorIs(t, err, shipping.ErrOrderNotFound)
		assert.False(t, errors.Is(err, shipping.ErrAlreadyPurchased))
	})

	t.Run("success clears a stale failure marker", func(t *testing.T) {
		db := setupOrderTestDB(t)
		store := NewGormOrderStore(db)
		seedOrder(t, db, "order-1")

		require.NoError(t, store.RecordPurchaseFailure(ctx, "order-1", "provider timeout"))
		require.NoError(t, store.RecordLabelPurchase(ctx, "order-1", purchasedResult()))

		var model models.OrderModel
		require.NoError(t, db.First(&model, "id = ?", "order-1").Error)
		assert.Empty(t, model.LastPurchaseError)
	})
}

func TestOrderStore_RecordPurchaseFailure(t *testing.T) {
	db := setupOrderTestDB(t)
	store := NewGormOrderStore(db)
	ctx := context.Background()

	seedOrder(t, db, "order-1")
	require.NoError(t, store.RecordPurchaseFailure(ctx, "order-1", "no rates returned"))

	var model models.OrderModel
	require.NoError(t, db.First(&model, "id = ?", "order-1").Error)
	assert.Equal(t, "no rates returned", model.LastPurchaseError)
	assert.False(t, model.LabelPurchased)
}

func TestOrderStore_AppendShippingLog(t *testing.T) {
	db := setupOrderTestDB(t)
	store := NewGormOrderStore(db)
	ctx := context.Background()

	seedOrder(t, db, "order-1")
	require.NoError(t, store.AppendShippingLog(ctx, "order-1", "label_purchased", "USPS Priority 9400100"))
	require.NoError(t, store.AppendShippingLog(ctx, "order-1", "packing_slip", "https://forms.example/slip.pdf"))

	var entries []models.ShippingLogModel
	require.NoError(t, db.Where("order_id = ?", "order-1").Order("id").Find(&entries).Error)
	require.Len(t, entries, 2)
	assert.Equal(t, "label_purchased", entries[0].Event)
	assert.Equal(t, "packing_slip", entries[1].Event)
}

func TestOrderStore_ArchiveLabelCopy(t *testing.T) {
	db := setupOrderTestDB(t)
	store := NewGormOrderStore(db)
	ctx := context.Background()

	seedOrder(t, db, "order-1")
	require.NoError(t, store.ArchiveLabelCopy(ctx, "order-1", "s3://labels/orders/order-1/label.pdf"))

	var model models.OrderModel
	require.NoError(t, db.First(&model, "id = ?", "order-1").Error)
	assert.Equal(t, "s3://labels/orders/order-1/label.pdf", model.ArchivedLabelURL)
}
