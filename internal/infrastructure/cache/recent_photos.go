package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cropsight/cropsight-backend/internal/domain/entity"
)

const recentPhotosTTL = 15 * time.Minute

// RecentPhotoCache keeps the last successful recent-photo listing per
// owner so the API can stay available when the record store is not.
type RecentPhotoCache struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRecentPhotoCache(client *redis.Client, logger *zap.Logger) *RecentPhotoCache {
	return &RecentPhotoCache{client: client, logger: logger}
}

func (c *RecentPhotoCache) GetRecent(ctx context.Context, ownerID int64) ([]entity.Photo, bool) {
	data, err := c.client.Get(ctx, recentKey(ownerID)).Bytes()
	if err != nil {
		return nil, false
	}

	var photos []entity.Photo
	if err := json.Unmarshal(data, &photos); err != nil {
		c.logger.Warn("corrupt recent-photos cache entry", zap.Int64("owner_id", ownerID), zap.Error(err))
		return nil, false
	}
	return photos, true
}

func (c *RecentPhotoCache) SetRecent(ctx context.Context, ownerID int64, photos []entity.Photo) {
	data, err := json.Marshal(photos)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, recentKey(ownerID), data, recentPhotosTTL).Err(); err != nil {
		c.logger.Debug("recent-photos cache write failed", zap.Int64("owner_id", ownerID), zap.Error(err))
	}
}

func recentKey(ownerID int64) string {
	return fmt.Sprintf("photos:recent:%d", ownerID)
}
