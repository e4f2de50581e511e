package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cropsight/cropsight-backend/internal/domain"
	"github.com/cropsight/cropsight-backend/internal/domain/entity"
	"github.com/cropsight/cropsight-backend/internal/domain/valueobject"
)

func newPendingPhoto(ownerID int64) *entity.Photo {
	return entity.NewPhoto(ownerID, valueobject.NewBlobHandle("photos/1/x.jpg"), "x.jpg", "image/jpeg", 128)
}

func TestPhotoRepo_Create(t *testing.T) {
	ctx := context.Background()
	repo := NewPhotoRepo()

	t.Run("assigns increasing ids", func(t *testing.T) {
		first := newPendingPhoto(1)
		second := newPendingPhoto(1)

		require.NoError(t, repo.Create(ctx, first))
		require.NoError(t, repo.Create(ctx, second))

		assert.Equal(t, int64(1), first.ID)
		assert.Equal(t, int64(2), second.ID)
	})

	t.Run("stores a copy detached from the caller", func(t *testing.T) {
		photo := newPendingPhoto(1)
		require.NoError(t, repo.Create(ctx, photo))

		photo.OriginalName = "mutated.jpg"

		stored, err := repo.GetByID(ctx, photo.ID)
		require.NoError(t, err)
		assert.Equal(t, "x.jpg", stored.OriginalName)
	})
}

func TestPhotoRepo_GetByID(t *testing.T) {
	ctx := context.Background()
	repo := NewPhotoRepo()

	t.Run("returns not found for unknown id", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 999)
		assert.ErrorIs(t, err, domain.ErrPhotoNotFound)
	})
}

func TestPhotoRepo_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	create := func(t *testing.T, repo *PhotoRepo) int64 {
		t.Helper()
		photo := newPendingPhoto(1)
		require.NoError(t, repo.Create(ctx, photo))
		return photo.ID
	}

	t.Run("walks the full lifecycle", func(t *testing.T) {
		repo := NewPhotoRepo()
		id := create(t, repo)

		updated, err := repo.UpdateStatus(ctx, id, entity.StatusAnalyzing, nil, "")
		require.NoError(t, err)
		assert.Equal(t, entity.StatusAnalyzing, updated.Status)

		analysis := &entity.CropAnalysis{CropName: "Maize", DiseaseName: "rust"}
		updated, err = repo.UpdateStatus(ctx, id, entity.StatusCompleted, analysis, "")
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCompleted, updated.Status)
		require.NotNil(t, updated.Analysis)
		assert.Equal(t, "Maize", updated.Analysis.CropName)
	})

	t.Run("terminal states re-enter pending", func(t *testing.T) {
		repo := NewPhotoRepo()
		id := create(t, repo)

		_, err := repo.UpdateStatus(ctx, id, entity.StatusAnalyzing, nil, "")
		require.NoError(t, err)
		_, err = repo.UpdateStatus(ctx, id, entity.StatusFailed, nil, "boom")
		require.NoError(t, err)

		updated, err := repo.UpdateStatus(ctx, id, entity.StatusPending, nil, "")
		require.NoError(t, err)
		assert.Equal(t, entity.StatusPending, updated.Status)
		assert.Empty(t, updated.ErrorReason)
	})

	t.Run("rejects illegal transitions", func(t *testing.T) {
		repo := NewPhotoRepo()
		id := create(t, repo)

		// pending cannot jump straight to completed, and pending cannot
		// re-enter pending.
		_, err := repo.UpdateStatus(ctx, id, entity.StatusCompleted, nil, "")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)

		_, err = repo.UpdateStatus(ctx, id, entity.StatusPending, nil, "")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("rejects concurrent re-analysis", func(t *testing.T) {
		repo := NewPhotoRepo()
		id := create(t, repo)

		_, err := repo.UpdateStatus(ctx, id, entity.StatusAnalyzing, nil, "")
		require.NoError(t, err)

		_, err = repo.UpdateStatus(ctx, id, entity.StatusPending, nil, "")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("returns not found for unknown id", func(t *testing.T) {
		repo := NewPhotoRepo()

		_, err := repo.UpdateStatus(ctx, 999, entity.StatusAnalyzing, nil, "")
		assert.ErrorIs(t, err, domain.ErrPhotoNotFound)
	})
}

func TestPhotoRepo_ListRecent(t *testing.T) {
	ctx := context.Background()
	repo := NewPhotoRepo()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		photo := newPendingPhoto(1)
		photo.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, photo))
	}
	other := newPendingPhoto(2)
	require.NoError(t, repo.Create(ctx, other))

	t.Run("newest first", func(t *testing.T) {
		photos, err := repo.ListRecent(ctx, 1, 10)

		require.NoError(t, err)
		require.Len(t, photos, 3)
		assert.Equal(t, int64(3), photos[0].ID)
		assert.Equal(t, int64(2), photos[1].ID)
		assert.Equal(t, int64(1), photos[2].ID)
	})

	t.Run("honors the limit", func(t *testing.T) {
		photos, err := repo.ListRecent(ctx, 1, 2)

		require.NoError(t, err)
		assert.Len(t, photos, 2)
	})

	t.Run("filters by owner", func(t *testing.T) {
		photos, err := repo.ListRecent(ctx, 2, 10)

		require.NoError(t, err)
		require.Len(t, photos, 1)
		assert.Equal(t, int64(2), photos[0].OwnerID)
	})

	t.Run("ties broken by id descending", func(t *testing.T) {
		tied := NewPhotoRepo()
		ts := base.Add(time.Hour)
		for i := 0; i < 2; i++ {
			photo := newPendingPhoto(1)
			photo.CreatedAt = ts
			require.NoError(t, tied.Create(ctx, photo))
		}

		photos, err := tied.ListRecent(ctx, 1, 10)
		require.NoError(t, err)
		require.Len(t, photos, 2)
		assert.Greater(t, photos[0].ID, photos[1].ID)
	})
}
