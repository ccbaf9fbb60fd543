package storage

import (
	"context"

	"github.com/commerce/fulfillment/internal/domain/shipping"
)

// NoopLabelArchive is used when no storage bucket is configured.
// Purchases proceed normally; only the durable mirror is skipped.
type NoopLabelArchive struct{}

// NewNoopLabelArchive creates a new NoopLabelArchive
func NewNoopLabelArchive() *NoopLabelArchive {
	return &NoopLabelArchive{}
}

// Ensure NoopLabelArchive implements LabelArchiver
var _ shipping.LabelArchiver = (*NoopLabelArchive)(nil)

// ArchiveLabel reports no stored copy.
func (n *NoopLabelArchive) ArchiveLabel(ctx context.Context, orderID, labelURL string) (string, error) {
	return "", nil
}

// ArchiveTrackingQR reports no stored copy.
func (n *NoopLabelArchive) ArchiveTrackingQR(ctx context.Context, orderID string, png []byte) (string, error) {
	return "", nil
}
