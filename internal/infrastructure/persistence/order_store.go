package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/commerce/fulfillment/internal/domain/shipping"
	"github.com/commerce/fulfillment/internal/infrastructure/persistence/models"
)

// GormOrderStore implements shipping.OrderStore using GORM.
type GormOrderStore struct {
	db *gorm.DB
}

// NewGormOrderStore creates a new GormOrderStore
func NewGormOrderStore(db *gorm.DB) *GormOrderStore {
	return &GormOrderStore{db: db}
}

// Fulfillment loads the fulfillment slice of an order.
func (r *GormOrderStore) Fulfillment(ctx context.Context, orderID string) (*shipping.OrderFulfillment, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shipping.ErrOrderNotFound
		}
		return nil, err
	}
	return model.ToFulfillment()
}

// RecordLabelPurchase writes the purchase outcome in one guarded
// update: the label fields land only if the order has not already been
// marked purchased, so a racing second attempt loses cleanly.
func (r *GormOrderStore) RecordLabelPurchase(ctx context.Context, orderID string, result shipping.LabelPurchaseResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode label result: %w", err)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		update := tx.Model(&models.OrderModel{}).
			Where("id = ? AND label_purchased = ?", orderID, false).
			Updates(map[string]interface{}{
				"label_purchased":     true,
				"label_json":          string(raw),
				"last_purchase_error": "",
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected > 0 {
			return nil
		}

		var count int64
		if err := tx.Model(&models.OrderModel{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shipping.ErrOrderNotFound
		}
		return shipping.ErrAlreadyPurchased
	})
}

// RecordPurchaseFailure stores the last failed attempt's message.
func (r *GormOrderStore) RecordPurchaseFailure(ctx context.Context, orderID, message string) error {
	return r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("id = ?", orderID).
		Update("last_purchase_error", message).Error
}

// AppendShippingLog appends one entry to the order's shipping log.
func (r *GormOrderStore) AppendShippingLog(ctx context.Context, orderID, event, detail string) error {
	entry := models.ShippingLogModel{OrderID: orderID, Event: event, Detail: detail}
	return r.db.WithContext(ctx).Create(&entry).Error
}

// ArchiveLabelCopy stores the durable mirror URL for the label PDF.
func (r *GormOrderStore) ArchiveLabelCopy(ctx context.Context, orderID, archivedURL string) error {
	return r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("id = ?", orderID).
		Update("archived_label_url", archivedURL).Error
}
