package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/cropsight/cropsight-backend/internal/domain"
	"github.com/cropsight/cropsight-backend/internal/domain/entity"
)

// PhotoRepo is an in-memory photo record store for tests and ephemeral
// environments. All operations are safe for concurrent callers; status
// transitions for the same id are serialized by the store mutex, which
// preserves the lifecycle state machine.
type PhotoRepo struct {
	mu     sync.RWMutex
	photos map[int64]*entity.Photo
	nextID int64
}

func NewPhotoRepo() *PhotoRepo {
	return &PhotoRepo{photos: make(map[int64]*entity.Photo)}
}

func (r *PhotoRepo) Create(ctx context.Context, photo *entity.Photo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	photo.ID = r.nextID

	stored := *photo
	r.photos[photo.ID] = &stored
	return nil
}

func (r *PhotoRepo) GetByID(ctx context.Context, id int64) (*entity.Photo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	photo, ok := r.photos[id]
	if !ok {
		return nil, domain.ErrPhotoNotFound
	}

	copied := *photo
	return &copied, nil
}

func (r *PhotoRepo) UpdateStatus(ctx context.Context, id int64, status entity.PhotoStatus, analysis *entity.CropAnalysis, errorReason string) (*entity.Photo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	photo, ok := r.photos[id]
	if !ok {
		return nil, domain.ErrPhotoNotFound
	}

	if !photo.Status.CanTransition(status) {
		return nil, domain.ErrInvalidTransition
	}

	photo.Status = status
	photo.Analysis = analysis
	photo.ErrorReason = errorReason

	copied := *photo
	return &copied, nil
}

func (r *PhotoRepo) ListRecent(ctx context.Context, ownerID int64, limit int) ([]entity.Photo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var photos []entity.Photo
	for _, photo := range r.photos {
		if photo.OwnerID == ownerID {
			photos = append(photos, *photo)
		}
	}

	sort.Slice(photos, func(i, j int) bool {
		if !photos[i].CreatedAt.Equal(photos[j].CreatedAt) {
			return photos[i].CreatedAt.After(photos[j].CreatedAt)
		}
		return photos[i].ID > photos[j].ID
	})

	if len(photos) > limit {
		photos = photos[:limit]
	}
	return photos, nil
}
