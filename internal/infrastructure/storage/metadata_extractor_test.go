package storage

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height)), nil))
	return buf.Bytes()
}

func TestExifMetadataExtractor_Extract(t *testing.T) {
	ctx := context.Background()
	extractor := NewExifMetadataExtractor()

	t.Run("reads png dimensions", func(t *testing.T) {
		meta, err := extractor.Extract(ctx, encodePNG(t, 640, 480))

		require.NoError(t, err)
		assert.Equal(t, 640, meta.Width)
		assert.Equal(t, 480, meta.Height)
		assert.Equal(t, "png", meta.Format)
		assert.Nil(t, meta.GPS)
	})

	t.Run("reads jpeg dimensions", func(t *testing.T) {
		meta, err := extractor.Extract(ctx, encodeJPEG(t, 100, 50))

		require.NoError(t, err)
		assert.Equal(t, 100, meta.Width)
		assert.Equal(t, 50, meta.Height)
		assert.Equal(t, "jpeg", meta.Format)
	})

	t.Run("gps is nil without exif tags", func(t *testing.T) {
		meta, err := extractor.Extract(ctx, encodeJPEG(t, 10, 10))

		require.NoError(t, err)
		assert.Nil(t, meta.GPS)
	})

	t.Run("fails on non-image data", func(t *testing.T) {
		_, err := extractor.Extract(ctx, []byte("not an image"))
		assert.Error(t, err)
	})

	t.Run("fails on truncated header", func(t *testing.T) {
		data := encodePNG(t, 10, 10)
		_, err := extractor.Extract(ctx, data[:4])
		assert.Error(t, err)
	})
}

func TestImageThumbnailer(t *testing.T) {
	thumbnailer := NewImageThumbnailer()

	t.Run("downscales large images", func(t *testing.T) {
		thumb, err := thumbnailer.Thumbnail(encodePNG(t, 1600, 1200))

		require.NoError(t, err)
		cfg, format, err := image.DecodeConfig(bytes.NewReader(thumb))
		require.NoError(t, err)
		assert.Equal(t, "jpeg", format)
		assert.LessOrEqual(t, cfg.Width, 320)
		assert.LessOrEqual(t, cfg.Height, 320)
	})

	t.Run("fails on non-image data", func(t *testing.T) {
		_, err := thumbnailer.Thumbnail([]byte("not an image"))
		assert.Error(t, err)
	})
}
