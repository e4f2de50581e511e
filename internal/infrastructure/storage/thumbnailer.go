package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/disintegration/imaging"
)

const (
	ThumbnailMaxWidth  = 320
	ThumbnailMaxHeight = 320
	ThumbnailQuality   = 80
)

type ImageThumbnailer struct {
	maxWidth  int
	maxHeight int
	quality   int
}

func NewImageThumbnailer() *ImageThumbnailer {
	return &ImageThumbnailer{
		maxWidth:  ThumbnailMaxWidth,
		maxHeight: ThumbnailMaxHeight,
		quality:   ThumbnailQuality,
	}
}

func (t *ImageThumbnailer) Thumbnail(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	thumb := imaging.Fit(img, t.maxWidth, t.maxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: t.quality}); err != nil {
		return nil, fmt.Errorf("encoding thumbnail: %w", err)
	}

	return buf.Bytes(), nil
}
