package repository

import (
	"context"

	"github.com/cropsight/cropsight-backend/internal/domain/entity"
)

//go:generate mockgen -source=interfaces.go -destination=../../mocks/repository_mocks.go -package=mocks

// PhotoRepository persists photo records and enforces the photo status
// state machine. Implementations must serialize concurrent UpdateStatus
// calls for the same id.
type PhotoRepository interface {
	Create(ctx context.Context, photo *entity.Photo) error
	GetByID(ctx context.Context, id int64) (*entity.Photo, error)
	// UpdateStatus transitions the photo to status, atomically setting
	// analysis (completed) or errorReason (failed) alongside it. Illegal
	// transitions fail with domain.ErrInvalidTransition.
	UpdateStatus(ctx context.Context, id int64, status entity.PhotoStatus, analysis *entity.CropAnalysis, errorReason string) (*entity.Photo, error)
	// ListRecent returns the owner's photos newest first, ties broken by
	// id descending.
	ListRecent(ctx context.Context, ownerID int64, limit int) ([]entity.Photo, error)
}
