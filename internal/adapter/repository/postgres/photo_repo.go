package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cropsight/cropsight-backend/internal/domain"
	"github.com/cropsight/cropsight-backend/internal/domain/entity"
	"github.com/cropsight/cropsight-backend/internal/domain/valueobject"
)

type PhotoRepo struct {
	pool *pgxpool.Pool
}

func NewPhotoRepo(pool *pgxpool.Pool) *PhotoRepo {
	return &PhotoRepo{pool: pool}
}

const photoColumns = `
	id, owner_id, blob_ref, original_name, mime_type, size_bytes,
	width, height, format, latitude, longitude, altitude,
	status, analysis, error_reason, created_at
`

func (r *PhotoRepo) Create(ctx context.Context, photo *entity.Photo) error {
	query := `
		INSERT INTO photos (
			owner_id, blob_ref, original_name, mime_type, size_bytes,
			width, height, format, latitude, longitude, altitude,
			status, error_reason, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`

	var lat, lng, alt *float64
	if loc := photo.CaptureLocation; loc != nil {
		lat, lng, alt = &loc.Latitude, &loc.Longitude, loc.Altitude
	}

	err := r.pool.QueryRow(ctx, query,
		photo.OwnerID, photo.BlobRef.Ref, photo.OriginalName, photo.MimeType, photo.SizeBytes,
		photo.Width, photo.Height, photo.Format, lat, lng, alt,
		photo.Status, photo.ErrorReason, photo.CreatedAt,
	).Scan(&photo.ID)
	if err != nil {
		return fmt.Errorf("inserting photo: %w", err)
	}
	return nil
}

func (r *PhotoRepo) GetByID(ctx context.Context, id int64) (*entity.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE id = $1`

	photo, err := scanPhoto(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPhotoNotFound
		}
		return nil, fmt.Errorf("querying photo: %w", err)
	}
	return photo, nil
}

// UpdateStatus performs a compare-and-set on the current status: the
// row only updates when the photo is in one of the legal source states
// for the target, which serializes concurrent transitions per id.
func (r *PhotoRepo) UpdateStatus(ctx context.Context, id int64, status entity.PhotoStatus, analysis *entity.CropAnalysis, errorReason string) (*entity.Photo, error) {
	sources := entity.TransitionSources(status)
	if len(sources) == 0 {
		return nil, domain.ErrInvalidTransition
	}
	sourceStrs := make([]string, len(sources))
	for i, s := range sources {
		sourceStrs[i] = string(s)
	}

	var analysisJSON []byte
	if analysis != nil {
		data, err := json.Marshal(analysis)
		if err != nil {
			return nil, fmt.Errorf("marshaling analysis: %w", err)
		}
		analysisJSON = data
	}

	query := `
		UPDATE photos
		SET status = $2, analysis = $3, error_reason = $4
		WHERE id = $1 AND status = ANY($5)
		RETURNING ` + photoColumns

	photo, err := scanPhoto(r.pool.QueryRow(ctx, query, id, status, analysisJSON, errorReason, sourceStrs))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.classifyTransitionFailure(ctx, id)
		}
		return nil, fmt.Errorf("updating photo status: %w", err)
	}
	return photo, nil
}

func (r *PhotoRepo) classifyTransitionFailure(ctx context.Context, id int64) error {
	var current string
	err := r.pool.QueryRow(ctx, `SELECT status FROM photos WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrPhotoNotFound
	}
	if err != nil {
		return fmt.Errorf("querying photo status: %w", err)
	}
	return domain.ErrInvalidTransition
}

func (r *PhotoRepo) ListRecent(ctx context.Context, ownerID int64, limit int) ([]entity.Photo, error) {
	query := `
		SELECT ` + photoColumns + `
		FROM photos
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying photos: %w", err)
	}
	defer rows.Close()

	var photos []entity.Photo
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning photo: %w", err)
		}
		photos = append(photos, *photo)
	}

	return photos, rows.Err()
}

func scanPhoto(row pgx.Row) (*entity.Photo, error) {
	var (
		photo        entity.Photo
		blobRef      string
		status       string
		lat, lng     *float64
		alt          *float64
		analysisJSON []byte
	)

	err := row.Scan(
		&photo.ID, &photo.OwnerID, &blobRef, &photo.OriginalName, &photo.MimeType, &photo.SizeBytes,
		&photo.Width, &photo.Height, &photo.Format, &lat, &lng, &alt,
		&status, &analysisJSON, &photo.ErrorReason, &photo.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	photo.BlobRef = valueobject.ParseBlobHandle(blobRef)
	photo.Status = entity.PhotoStatus(status)

	if lat != nil && lng != nil {
		photo.CaptureLocation = valueobject.NewLocation(*lat, *lng, alt)
	}

	if len(analysisJSON) > 0 {
		var analysis entity.CropAnalysis
		if err := json.Unmarshal(analysisJSON, &analysis); err != nil {
			return nil, fmt.Errorf("unmarshaling analysis: %w", err)
		}
		photo.Analysis = &analysis
	}

	return &photo, nil
}
