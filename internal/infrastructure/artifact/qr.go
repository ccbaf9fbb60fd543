// Package artifact renders supplementary purchase artifacts.
package artifact

import (
	"errors"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/commerce/fulfillment/internal/domain/shipping"
)

// qrSize is the rendered image's side in pixels. Large enough to scan
// from a printed packing slip.
const qrSize = 256

// Ensure QRGenerator implements the domain port
var _ shipping.QRGenerator = (*QRGenerator)(nil)

// QRGenerator renders tracking URLs as PNG QR codes.
type QRGenerator struct{}

// NewQRGenerator creates a new QRGenerator
func NewQRGenerator() *QRGenerator {
	return &QRGenerator{}
}

// TrackingQR renders the tracking URL as a PNG image.
func (g *QRGenerator) TrackingQR(trackingURL string) ([]byte, error) {
	if trackingURL == "" {
		return nil, errors.New("tracking url is required")
	}
	return qrcode.Encode(trackingURL, qrcode.Medium, qrSize)
}
