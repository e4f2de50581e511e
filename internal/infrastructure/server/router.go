package server

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/cropsight/cropsight-backend/internal/adapter/handler"
	"github.com/cropsight/cropsight-backend/internal/infrastructure/middleware"
)

type Router struct {
	engine       *gin.Engine
	photoHandler *handler.PhotoHandler
	rateLimiter  *middleware.RateLimiter
	logger       *zap.Logger
}

type RouterConfig struct {
	PhotoHandler *handler.PhotoHandler
	RateLimiter  *middleware.RateLimiter
	Logger       *zap.Logger
	Environment  string
}

func NewRouter(cfg RouterConfig) *Router {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	r := &Router{
		engine:       engine,
		photoHandler: cfg.PhotoHandler,
		rateLimiter:  cfg.RateLimiter,
		logger:       cfg.Logger,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery(r.logger))
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.Logger(r.logger))
	r.engine.Use(middleware.CORS())

	if r.rateLimiter != nil {
		r.engine.Use(r.rateLimiter.Limit())
	}
}

func (r *Router) setupRoutes() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Swagger documentation
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.engine.Group("/api/v1")
	{
		photos := api.Group("/photos")
		{
			photos.POST("", r.photoHandler.Upload)
			photos.GET("/recent", r.photoHandler.Recent)
			photos.GET("/:id", r.photoHandler.Get)
			photos.POST("/:id/reanalyze", r.photoHandler.Reanalyze)
			photos.GET("/:id/report", r.photoHandler.Report)
		}
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
