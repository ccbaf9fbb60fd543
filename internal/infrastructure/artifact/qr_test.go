package artifact

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackingQR(t *testing.T) {
	gen := NewQRGenerator()

	t.Run("renders a decodable png", func(t *testing.T) {
		data, err := gen.TrackingQR("https://track.example/9400100")
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, qrSize, img.Bounds().Dx())
	})

	t.Run("empty url is rejected", func(t *testing.T) {
		_, err := gen.TrackingQR("")
		assert.Error(t, err)
	})
}
