package photo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/cropsight/cropsight-backend/internal/domain"
	"github.com/cropsight/cropsight-backend/internal/domain/entity"
	"github.com/cropsight/cropsight-backend/internal/mocks"
)

type stubCache struct {
	stored map[int64][]entity.Photo
}

func newStubCache() *stubCache {
	return &stubCache{stored: make(map[int64][]entity.Photo)}
}

func (c *stubCache) GetRecent(_ context.Context, ownerID int64) ([]entity.Photo, bool) {
	photos, ok := c.stored[ownerID]
	return photos, ok
}

func (c *stubCache) SetRecent(_ context.Context, ownerID int64, photos []entity.Photo) {
	c.stored[ownerID] = photos
}

func TestService_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("returns photo from repository", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockPhotoRepository(ctrl)
		svc := NewService(repo, nil, zap.NewNop())

		repo.EXPECT().GetByID(gomock.Any(), int64(3)).Return(&entity.Photo{ID: 3}, nil)

		photo, err := svc.GetByID(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(3), photo.ID)
	})

	t.Run("propagates not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockPhotoRepository(ctrl)
		svc := NewService(repo, nil, zap.NewNop())

		repo.EXPECT().GetByID(gomock.Any(), int64(404)).Return(nil, domain.ErrPhotoNotFound)

		_, err := svc.GetByID(ctx, 404)
		assert.ErrorIs(t, err, domain.ErrPhotoNotFound)
	})
}

func TestService_ListRecent(t *testing.T) {
	ctx := context.Background()

	t.Run("serves from repository and refreshes cache", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockPhotoRepository(ctrl)
		cache := newStubCache()
		svc := NewService(repo, cache, zap.NewNop())

		fresh := []entity.Photo{{ID: 2, OwnerID: 1}, {ID: 1, OwnerID: 1}}
		repo.EXPECT().ListRecent(gomock.Any(), int64(1), 20).Return(fresh, nil)

		photos, err := svc.ListRecent(ctx, 1, 0)

		require.NoError(t, err)
		assert.Equal(t, fresh, photos)
		assert.Equal(t, fresh, cache.stored[1])
	})

	t.Run("clamps limit to the maximum", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockPhotoRepository(ctrl)
		svc := NewService(repo, nil, zap.NewNop())

		repo.EXPECT().ListRecent(gomock.Any(), int64(1), MaxRecentLimit).Return(nil, nil)

		_, err := svc.ListRecent(ctx, 1, 500)
		require.NoError(t, err)
	})

	t.Run("serves cached copy when repository fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockPhotoRepository(ctrl)
		cache := newStubCache()
		cache.stored[1] = []entity.Photo{{ID: 9, OwnerID: 1}}
		svc := NewService(repo, cache, zap.NewNop())

		repo.EXPECT().ListRecent(gomock.Any(), int64(1), 20).Return(nil, errors.New("db down"))

		photos, err := svc.ListRecent(ctx, 1, 0)

		require.NoError(t, err)
		require.Len(t, photos, 1)
		assert.Equal(t, int64(9), photos[0].ID)
	})

	t.Run("serves demo listing when repository and cache both miss", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockPhotoRepository(ctrl)
		svc := NewService(repo, newStubCache(), zap.NewNop())

		repo.EXPECT().ListRecent(gomock.Any(), int64(1), 20).Return(nil, errors.New("db down"))

		photos, err := svc.ListRecent(ctx, 1, 0)

		require.NoError(t, err)
		require.NotEmpty(t, photos)
		assert.Equal(t, int64(1), photos[0].OwnerID)
		assert.Equal(t, entity.StatusCompleted, photos[0].Status)
		require.NotNil(t, photos[0].Analysis)
		assert.True(t, photos[0].Analysis.IsFallback)
	})

	t.Run("serves demo listing without a cache configured", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockPhotoRepository(ctrl)
		svc := NewService(repo, nil, zap.NewNop())

		repo.EXPECT().ListRecent(gomock.Any(), int64(1), 20).Return(nil, errors.New("db down"))

		photos, err := svc.ListRecent(ctx, 1, 0)

		require.NoError(t, err)
		require.NotEmpty(t, photos)
	})
}
