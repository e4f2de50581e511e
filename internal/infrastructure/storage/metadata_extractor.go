package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"

	_ "image/jpeg"
	_ "image/png"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp"

	"github.com/cropsight/cropsight-backend/internal/adapter/storage"
	"github.com/cropsight/cropsight-backend/internal/domain/valueobject"
)

// ExifMetadataExtractor reads dimensions and format from image headers
// and GPS coordinates from EXIF tags. It never mutates the blob.
type ExifMetadataExtractor struct{}

func NewExifMetadataExtractor() *ExifMetadataExtractor {
	return &ExifMetadataExtractor{}
}

func (e *ExifMetadataExtractor) Extract(ctx context.Context, data []byte) (*storage.ImageMetadata, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image header: %w", err)
	}

	meta := &storage.ImageMetadata{
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
		GPS:    extractGPS(data),
	}

	return meta, nil
}

// extractGPS is best-effort: absent or unparsable EXIF yields nil.
func extractGPS(data []byte) *valueobject.Location {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	lat, lng, err := x.LatLong()
	if err != nil {
		return nil
	}

	var altitude *float64
	if tag, err := x.Get(exif.GPSAltitude); err == nil {
		if num, den, err := tag.Rat2(0); err == nil && den != 0 {
			alt := float64(num) / float64(den)
			altitude = &alt
		}
	}

	loc := valueobject.NewLocation(lat, lng, altitude)
	if !loc.IsValid() {
		return nil
	}
	return loc
}
