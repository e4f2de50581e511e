package handler

import (
	"context"

	"github.com/cropsight/cropsight-backend/internal/domain/entity"
	"github.com/cropsight/cropsight-backend/internal/usecase/ingest"
)

//go:generate mockgen -source=interfaces.go -destination=../../mocks/handler_mocks.go -package=mocks

type IngestService interface {
	Ingest(ctx context.Context, input ingest.IngestInput) (*entity.Photo, error)
	Reanalyze(ctx context.Context, photoID int64) (*entity.Photo, error)
}

type PhotoQueryService interface {
	GetByID(ctx context.Context, id int64) (*entity.Photo, error)
	ListRecent(ctx context.Context, ownerID int64, limit int) ([]entity.Photo, error)
}
