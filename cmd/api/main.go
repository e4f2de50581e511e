package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	memoryrepo "github.com/cropsight/cropsight-backend/internal/adapter/repository/memory"
	postgresrepo "github.com/cropsight/cropsight-backend/internal/adapter/repository/postgres"

	"github.com/cropsight/cropsight-backend/internal/adapter/handler"
	"github.com/cropsight/cropsight-backend/internal/adapter/repository"
	storageiface "github.com/cropsight/cropsight-backend/internal/adapter/storage"
	"github.com/cropsight/cropsight-backend/internal/infrastructure/cache"
	"github.com/cropsight/cropsight-backend/internal/infrastructure/config"
	"github.com/cropsight/cropsight-backend/internal/infrastructure/database"
	"github.com/cropsight/cropsight-backend/internal/infrastructure/middleware"
	"github.com/cropsight/cropsight-backend/internal/infrastructure/observability"
	"github.com/cropsight/cropsight-backend/internal/infrastructure/server"
	"github.com/cropsight/cropsight-backend/internal/infrastructure/storage"
	"github.com/cropsight/cropsight-backend/internal/infrastructure/vision"
	"github.com/cropsight/cropsight-backend/internal/usecase/ingest"
	"github.com/cropsight/cropsight-backend/internal/usecase/photo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	photoRepo, cleanup, err := buildPhotoRepo(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize photo repository", zap.Error(err))
	}
	defer cleanup()

	thumbnailer := storage.NewImageThumbnailer()
	blobStore, err := buildBlobStore(cfg, thumbnailer, logger)
	if err != nil {
		logger.Fatal("failed to initialize blob store", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, continuing without it", zap.Error(err))
			redisClient = nil
		}
	}

	var recentCache photo.RecentCache
	if redisClient != nil {
		recentCache = cache.NewRecentPhotoCache(redisClient, logger)
	}

	visionClient := vision.NewHTTPClient(cfg.Vision, logger)
	extractor := storage.NewExifMetadataExtractor()

	ingestSvc := ingest.NewService(photoRepo, blobStore, extractor, visionClient, logger, ingest.Config{
		MaxSizeBytes:             cfg.Upload.MaxSizeBytes,
		MaxConcurrentExtractions: cfg.Upload.MaxExtractions,
	})
	photoSvc := photo.NewService(photoRepo, recentCache, logger)

	photoHandler := handler.NewPhotoHandler(ingestSvc, photoSvc)

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled && redisClient != nil {
		rateLimiter = middleware.NewRateLimiter(redisClient, cfg.RateLimit)
	}

	router := server.NewRouter(server.RouterConfig{
		PhotoHandler: photoHandler,
		RateLimiter:  rateLimiter,
		Logger:       logger,
		Environment:  cfg.Server.Environment,
	})

	srv := server.NewServer(server.ServerConfig{
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.Engine(),
		Logger:       logger,
	})

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func buildPhotoRepo(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.PhotoRepository, func(), error) {
	switch cfg.Repo.Driver {
	case "memory":
		logger.Info("using in-memory photo repository")
		return memoryrepo.NewPhotoRepo(), func() {}, nil
	default:
		pool, err := database.NewPostgresPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := database.RunMigrations(ctx, pool, "migrations"); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return postgresrepo.NewPhotoRepo(pool), pool.Close, nil
	}
}

func buildBlobStore(cfg *config.Config, thumbnailer storage.Thumbnailer, logger *zap.Logger) (storageiface.BlobStore, error) {
	switch cfg.Storage.Driver {
	case "s3":
		return storage.NewS3BlobStore(cfg.S3, thumbnailer, logger)
	default:
		return storage.NewLocalBlobStore(cfg.Storage.LocalPath, thumbnailer, logger), nil
	}
}
