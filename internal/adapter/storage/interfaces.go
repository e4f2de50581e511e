package storage

import (
	"context"

	"github.com/cropsight/cropsight-backend/internal/domain/valueobject"
)

//go:generate mockgen -source=interfaces.go -destination=../../mocks/storage_mocks.go -package=mocks

// BlobStore persists raw image bytes under opaque handles. Save may
// return a non-durable handle when durable storage is unavailable in
// the current environment.
type BlobStore interface {
	Save(ctx context.Context, data []byte, ownerID int64, category string) (valueobject.BlobHandle, error)
	Read(ctx context.Context, handle valueobject.BlobHandle) ([]byte, error)
	// Delete is idempotent: deleting an unknown or already-deleted
	// handle returns false, never an error.
	Delete(ctx context.Context, handle valueobject.BlobHandle) (bool, error)
}

// ImageMetadata is what can be read from image headers without
// mutating the blob.
type ImageMetadata struct {
	Width  int
	Height int
	Format string
	GPS    *valueobject.Location
}

// MetadataExtractor derives dimensions, format and GPS coordinates
// from image bytes. GPS is best-effort and nil when absent.
type MetadataExtractor interface {
	Extract(ctx context.Context, data []byte) (*ImageMetadata, error)
}
