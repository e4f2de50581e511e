package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/cropsight/cropsight-backend/internal/adapter/repository"
	"github.com/cropsight/cropsight-backend/internal/adapter/storage"
	"github.com/cropsight/cropsight-backend/internal/adapter/vision"
	"github.com/cropsight/cropsight-backend/internal/domain"
	"github.com/cropsight/cropsight-backend/internal/domain/entity"
	"github.com/cropsight/cropsight-backend/internal/usecase/report"
)

// CategoryPhoto is the blob category for crop photos. TIFF uploads are
// only accepted for other categories (e.g. scanned documents).
const CategoryPhoto = "photos"

type Config struct {
	MaxSizeBytes             int64
	MaxConcurrentExtractions int64
}

func (c Config) withDefaults() Config {
	if c.MaxSizeBytes <= 0 {
		c.MaxSizeBytes = 20 << 20
	}
	if c.MaxConcurrentExtractions <= 0 {
		c.MaxConcurrentExtractions = 4
	}
	return c
}

// Service orchestrates the ingestion pipeline: validate, store blob,
// extract metadata, persist record, analyze, persist result. Upstream
// analysis failures degrade to a fallback analysis; only local
// persistence failures produce a failed photo.
type Service struct {
	photoRepo  repository.PhotoRepository
	blobs      storage.BlobStore
	metadata   storage.MetadataExtractor
	vision     vision.Client
	logger     *zap.Logger
	cfg        Config
	extractSem *semaphore.Weighted
}

func NewService(
	photoRepo repository.PhotoRepository,
	blobs storage.BlobStore,
	metadata storage.MetadataExtractor,
	visionClient vision.Client,
	logger *zap.Logger,
	cfg Config,
) *Service {
	cfg = cfg.withDefaults()
	return &Service{
		photoRepo:  photoRepo,
		blobs:      blobs,
		metadata:   metadata,
		vision:     visionClient,
		logger:     logger,
		cfg:        cfg,
		extractSem: semaphore.NewWeighted(cfg.MaxConcurrentExtractions),
	}
}

type IngestInput struct {
	OwnerID  int64
	Data     []byte
	Filename string
	MimeType string
	Category string
}

func (s *Service) Ingest(ctx context.Context, input IngestInput) (*entity.Photo, error) {
	if input.Category == "" {
		input.Category = CategoryPhoto
	}

	if err := s.validate(input); err != nil {
		return nil, err
	}

	handle, err := s.blobs.Save(ctx, input.Data, input.OwnerID, input.Category)
	if err != nil {
		return nil, fmt.Errorf("%w: saving blob: %v", domain.ErrStorageUnavailable, err)
	}

	photo := entity.NewPhoto(input.OwnerID, handle, input.Filename, input.MimeType, int64(len(input.Data)))
	s.enrich(ctx, photo, input.Data)

	if err := s.photoRepo.Create(ctx, photo); err != nil {
		// Compensating delete; a leftover blob is tolerated and swept
		// by periodic cleanup.
		if _, derr := s.blobs.Delete(ctx, handle); derr != nil {
			s.logger.Warn("orphan blob cleanup failed", zap.String("ref", handle.Ref), zap.Error(derr))
		}
		return nil, fmt.Errorf("%w: creating photo record: %v", domain.ErrStorageUnavailable, err)
	}

	return s.runAnalysis(ctx, photo.ID, input.Data, input.MimeType)
}

// Reanalyze re-enters the pipeline for an existing photo, from the
// analyzing step, against the stored blob.
func (s *Service) Reanalyze(ctx context.Context, photoID int64) (*entity.Photo, error) {
	photo, err := s.photoRepo.GetByID(ctx, photoID)
	if err != nil {
		return nil, err
	}

	if _, err := s.photoRepo.UpdateStatus(ctx, photo.ID, entity.StatusPending, nil, ""); err != nil {
		return nil, err
	}

	data, err := s.blobs.Read(ctx, photo.BlobRef)
	if err != nil {
		// Unreadable blobs (e.g. inline handles from a previous process)
		// take the fallback path rather than failing the request.
		s.logger.Warn("blob unreadable for re-analysis, degrading to fallback",
			zap.Int64("photo_id", photo.ID), zap.Error(err))
		data = nil
	}

	return s.runAnalysis(ctx, photo.ID, data, photo.MimeType)
}

// validate applies the ingestion rules in a fixed order, reporting the
// first violation: empty file, then size, then type.
func (s *Service) validate(input IngestInput) error {
	if len(input.Data) == 0 {
		return domain.ErrEmptyFile
	}
	if int64(len(input.Data)) > s.cfg.MaxSizeBytes {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", domain.ErrFileTooLarge, len(input.Data), s.cfg.MaxSizeBytes)
	}

	if !s.typeAllowed(input.MimeType, input.Category) {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedType, input.MimeType)
	}
	// The declared type is not trusted on its own; the sniffed content
	// type must be acceptable too.
	sniffed := mimetype.Detect(input.Data).String()
	if !s.typeAllowed(sniffed, input.Category) {
		return fmt.Errorf("%w: content detected as %s", domain.ErrUnsupportedType, sniffed)
	}

	return nil
}

func (s *Service) typeAllowed(mimeType, category string) bool {
	switch normalizeMime(mimeType) {
	case "image/jpeg", "image/png", "image/webp":
		return true
	case "image/tiff":
		return category != CategoryPhoto
	}
	return false
}

func normalizeMime(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mimeType, ";"); i > 0 {
		mimeType = mimeType[:i]
	}
	if mimeType == "image/jpg" {
		return "image/jpeg"
	}
	return mimeType
}

// enrich runs metadata extraction as best-effort enrichment. It is
// CPU-bound, so concurrency is bounded by a semaphore to avoid starving
// other in-flight ingestions.
func (s *Service) enrich(ctx context.Context, photo *entity.Photo, data []byte) {
	if err := s.extractSem.Acquire(ctx, 1); err != nil {
		return
	}
	defer s.extractSem.Release(1)

	meta, err := s.metadata.Extract(ctx, data)
	if err != nil {
		s.logger.Debug("metadata extraction failed", zap.Error(err))
		return
	}

	photo.Width = meta.Width
	photo.Height = meta.Height
	photo.Format = meta.Format
	photo.CaptureLocation = meta.GPS
}

// runAnalysis drives pending -> analyzing -> completed. A nil data
// slice skips the upstream call and synthesizes the fallback directly.
func (s *Service) runAnalysis(ctx context.Context, photoID int64, data []byte, mimeType string) (*entity.Photo, error) {
	if _, err := s.photoRepo.UpdateStatus(ctx, photoID, entity.StatusAnalyzing, nil, ""); err != nil {
		return nil, err
	}

	var diagnosis *vision.Diagnosis
	if data != nil {
		diagnosis = s.analyzeWithRetry(ctx, photoID, data, mimeType)
	}

	analysis := report.Synthesize(diagnosis)

	photo, err := s.photoRepo.UpdateStatus(ctx, photoID, entity.StatusCompleted, &analysis, "")
	if err != nil {
		reason := fmt.Sprintf("persisting analysis: %v", err)
		if _, ferr := s.photoRepo.UpdateStatus(ctx, photoID, entity.StatusFailed, nil, reason); ferr != nil {
			s.logger.Error("marking photo failed", zap.Int64("photo_id", photoID), zap.Error(ferr))
		}
		return nil, fmt.Errorf("completing analysis: %w", err)
	}

	return photo, nil
}

// analyzeWithRetry is the single place that decides when to degrade
// gracefully: transient upstream failures get one retry, everything
// else falls through to the fallback analysis (nil return).
func (s *Service) analyzeWithRetry(ctx context.Context, photoID int64, data []byte, mimeType string) *vision.Diagnosis {
	diagnosis, err := s.vision.Analyze(ctx, data, mimeType)
	if err == nil {
		return diagnosis
	}

	var visionErr *vision.Error
	if errors.As(err, &visionErr) && visionErr.Retryable() {
		s.logger.Warn("vision analysis failed, retrying once",
			zap.Int64("photo_id", photoID), zap.Error(err))
		if diagnosis, err = s.vision.Analyze(ctx, data, mimeType); err == nil {
			return diagnosis
		}
	}

	s.logger.Warn("vision analysis unavailable, using fallback",
		zap.Int64("photo_id", photoID), zap.Error(err))
	return nil
}
