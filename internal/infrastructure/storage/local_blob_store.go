package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cropsight/cropsight-backend/internal/domain"
	"github.com/cropsight/cropsight-backend/internal/domain/valueobject"
)

// LocalBlobStore writes blobs under a root directory. When the root is
// unwritable, as on ephemeral or sandboxed hosts, Save degrades to
// inline base64 handles flagged non-durable instead of failing.
type LocalBlobStore struct {
	root        string
	degraded    bool
	thumbnailer Thumbnailer
	logger      *zap.Logger
}

type Thumbnailer interface {
	Thumbnail(data []byte) ([]byte, error)
}

func NewLocalBlobStore(root string, thumbnailer Thumbnailer, logger *zap.Logger) *LocalBlobStore {
	s := &LocalBlobStore{
		root:        root,
		thumbnailer: thumbnailer,
		logger:      logger,
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		logger.Warn("blob root unwritable, falling back to inline handles",
			zap.String("root", root), zap.Error(err))
		s.degraded = true
		return s
	}

	probe := filepath.Join(root, ".writable")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		logger.Warn("blob root unwritable, falling back to inline handles",
			zap.String("root", root), zap.Error(err))
		s.degraded = true
		return s
	}
	_ = os.Remove(probe)

	return s
}

func (s *LocalBlobStore) Save(ctx context.Context, data []byte, ownerID int64, category string) (valueobject.BlobHandle, error) {
	if s.degraded {
		return inlineHandle(data), nil
	}

	key := fmt.Sprintf("%s/%d/%s%s", category, ownerID, uuid.New().String(), extensionFor(data))
	path := filepath.Join(s.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.logger.Warn("blob directory create failed, storing inline", zap.Error(err))
		return inlineHandle(data), nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.logger.Warn("blob write failed, storing inline", zap.Error(err))
		return inlineHandle(data), nil
	}

	s.writeThumbnail(path, data)

	return valueobject.NewBlobHandle(key), nil
}

func (s *LocalBlobStore) Read(ctx context.Context, handle valueobject.BlobHandle) ([]byte, error) {
	if strings.HasPrefix(handle.Ref, valueobject.InlineHandlePrefix) {
		return decodeInline(handle.Ref)
	}

	path, err := s.resolve(handle.Ref)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrBlobNotFound
		}
		return nil, fmt.Errorf("reading blob: %w", err)
	}
	return data, nil
}

func (s *LocalBlobStore) Delete(ctx context.Context, handle valueobject.BlobHandle) (bool, error) {
	if strings.HasPrefix(handle.Ref, valueobject.InlineHandlePrefix) {
		return false, nil
	}

	path, err := s.resolve(handle.Ref)
	if err != nil {
		return false, nil
	}

	if err := os.Remove(path); err != nil {
		return false, nil
	}
	_ = os.Remove(thumbnailPath(path))

	return true, nil
}

// resolve maps a handle ref onto the root and rejects refs that would
// escape it.
func (s *LocalBlobStore) resolve(ref string) (string, error) {
	path := filepath.Join(s.root, filepath.FromSlash(ref))
	rootAbs, err := filepath.Abs(s.root)
	if err != nil {
		return "", fmt.Errorf("resolving blob root: %w", err)
	}
	pathAbs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving blob path: %w", err)
	}
	if !strings.HasPrefix(pathAbs, rootAbs+string(os.PathSeparator)) {
		return "", domain.ErrBlobNotFound
	}
	return path, nil
}

func (s *LocalBlobStore) writeThumbnail(path string, data []byte) {
	if s.thumbnailer == nil {
		return
	}
	thumb, err := s.thumbnailer.Thumbnail(data)
	if err != nil {
		s.logger.Debug("thumbnail generation failed", zap.Error(err))
		return
	}
	if err := os.WriteFile(thumbnailPath(path), thumb, 0o644); err != nil {
		s.logger.Debug("thumbnail write failed", zap.Error(err))
	}
}

func thumbnailPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".thumb.jpg"
}

func inlineHandle(data []byte) valueobject.BlobHandle {
	ref := valueobject.InlineHandlePrefix + base64.StdEncoding.EncodeToString(data)
	return valueobject.NewInlineBlobHandle(ref)
}

func decodeInline(ref string) ([]byte, error) {
	encoded := strings.TrimPrefix(ref, valueobject.InlineHandlePrefix)
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding inline blob: %w", err)
	}
	return data, nil
}

func extensionFor(data []byte) string {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8:
		return ".jpg"
	case len(data) >= 8 && string(data[1:4]) == "PNG":
		return ".png"
	case len(data) >= 12 && string(data[8:12]) == "WEBP":
		return ".webp"
	}
	return ".bin"
}
