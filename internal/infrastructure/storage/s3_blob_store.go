package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cropsight/cropsight-backend/internal/domain"
	"github.com/cropsight/cropsight-backend/internal/domain/valueobject"
	"github.com/cropsight/cropsight-backend/internal/infrastructure/config"
)

// S3BlobStore keeps blobs in an S3 bucket. Handles from this store are
// always durable.
type S3BlobStore struct {
	client      *s3.Client
	bucket      string
	thumbnailer Thumbnailer
	logger      *zap.Logger
}

func NewS3BlobStore(cfg config.S3Config, thumbnailer Thumbnailer, logger *zap.Logger) (*S3BlobStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket not configured")
	}

	opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.Region = cfg.Region
			o.Credentials = credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			)
		},
	}

	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.UsePathStyle
		})
	}

	return &S3BlobStore{
		client:      s3.New(s3.Options{}, opts...),
		bucket:      cfg.Bucket,
		thumbnailer: thumbnailer,
		logger:      logger,
	}, nil
}

func (s *S3BlobStore) Save(ctx context.Context, data []byte, ownerID int64, category string) (valueobject.BlobHandle, error) {
	key := fmt.Sprintf("%s/%d/%s%s", category, ownerID, uuid.New().String(), extensionFor(data))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return valueobject.BlobHandle{}, fmt.Errorf("uploading to s3: %w", err)
	}

	s.putThumbnail(ctx, key, data)

	return valueobject.NewBlobHandle(key), nil
}

func (s *S3BlobStore) Read(ctx context.Context, handle valueobject.BlobHandle) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(handle.Ref),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, domain.ErrBlobNotFound
		}
		return nil, fmt.Errorf("downloading from s3: %w", err)
	}
	defer out.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(out.Body); err != nil {
		return nil, fmt.Errorf("reading s3 object: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *S3BlobStore) Delete(ctx context.Context, handle valueobject.BlobHandle) (bool, error) {
	// DeleteObject succeeds for unknown keys, so check existence first
	// to keep delete idempotency observable.
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(handle.Ref),
	})
	if err != nil {
		return false, nil
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(handle.Ref),
	}); err != nil {
		return false, nil
	}

	_, _ = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(thumbnailKey(handle.Ref)),
	})

	return true, nil
}

func (s *S3BlobStore) putThumbnail(ctx context.Context, key string, data []byte) {
	if s.thumbnailer == nil {
		return
	}
	thumb, err := s.thumbnailer.Thumbnail(data)
	if err != nil {
		s.logger.Debug("thumbnail generation failed", zap.Error(err))
		return
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(thumbnailKey(key)),
		Body:          bytes.NewReader(thumb),
		ContentType:   aws.String("image/jpeg"),
		ContentLength: aws.Int64(int64(len(thumb))),
	})
	if err != nil {
		s.logger.Debug("thumbnail upload failed", zap.Error(err))
	}
}

func thumbnailKey(key string) string {
	if i := strings.LastIndex(key, "."); i > 0 {
		key = key[:i]
	}
	return key + ".thumb.jpg"
}
