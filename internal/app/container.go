package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/nekogravitycat/visa-cms-backend/internal/admin"
	"github.com/nekogravitycat/visa-cms-backend/internal/announcement"
	"github.com/nekogravitycat/visa-cms-backend/internal/api"
	"github.com/nekogravitycat/visa-cms-backend/internal/auth"
	"github.com/nekogravitycat/visa-cms-backend/internal/cache"
	"github.com/nekogravitycat/visa-cms-backend/internal/config"
	"github.com/nekogravitycat/visa-cms-backend/internal/image"
	imageHttp "github.com/nekogravitycat/visa-cms-backend/internal/image/http"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/cdn"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/storage"
	"github.com/nekogravitycat/visa-cms-backend/internal/scheduler"
	"github.com/nekogravitycat/visa-cms-backend/internal/testimonial"
	"github.com/nekogravitycat/visa-cms-backend/internal/user"
)

// Container holds the initialized components that are needed externally.
type Container struct {
	Router    *gin.Engine
	Scheduler *cron.Cron

	AnnService   announcement.Service
	ImageService image.Service
	Cache        cache.Cacher
}

// Close releases resources the container opened. The pool is owned by the caller.
func (c *Container) Close() error {
	if c.Cache != nil {
		return c.Cache.Close()
	}
	return nil
}

// NewStorage builds the upload backend selected by STORAGE_DRIVER.
func NewStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	if cfg.StorageDriver == "s3" {
		return storage.NewS3Storage(ctx, storage.S3Options{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	}
	return storage.NewLocalStorage(cfg.StoragePath)
}

// NewCache returns Redis when REDIS_URL is set and an in-process cache otherwise.
func NewCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Cacher, error) {
	if !cfg.UseRedisCache() {
		logger.Info("REDIS_URL not set, using in-memory cache")
		return cache.NewMemoryCache(), nil
	}
	return cache.NewRedisCache(ctx, cfg.RedisURL, cfg.CachePrefix)
}

// NewContainer initializes all modules and returns the container.
func NewContainer(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *zap.Logger) (*Container, error) {
	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTokenTTL)
	resolver := cdn.NewResolver(cfg.CDNHost, cfg.CDNBaseURL)

	store, err := NewStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	mainCache, err := NewCache(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}

	// User Module
	userService := user.NewService(user.NewPgxRepository(pool), passwordHasher, logger.Named("user"))

	// Admin allow-list
	adminService := admin.NewService(admin.NewPgxRepository(pool), cfg.AdminEmails, logger.Named("admin"))

	// Announcement Module
	annService := announcement.NewService(
		announcement.NewPgxRepository(pool),
		announcement.WithCache(mainCache, cfg.MainCacheTTL),
		announcement.WithLogger(logger.Named("announcement")),
	)

	// Testimonial Module
	testimonialService := testimonial.NewService(testimonial.NewPgxRepository(pool), logger.Named("testimonial"))

	// Image Module
	imageService := image.NewService(image.NewRepository(pool), store, resolver, logger.Named("image"))

	// Background jobs
	sched := scheduler.NewScheduler(scheduler.Deps{
		PublishJob:    scheduler.NewPublishJob(annService, logger.Named("scheduler")),
		PublishSpec:   cfg.SchedulerSpec,
		ImageAuditJob: scheduler.NewImageAuditJob(imageService, logger.Named("scheduler")),
	}, logger.Named("scheduler"))

	router := api.NewRouter(api.Config{
		IsProduction:       cfg.IsProduction(),
		ProdOrigins:        cfg.ProdOrigins,
		Logger:             logger.Named("http"),
		UserService:        userService,
		AdminService:       adminService,
		AnnService:         annService,
		TestimonialService: testimonialService,
		ImageService:       imageService,
		Resolver:           resolver,
		Upload:             imageHttp.FileUploadConfig{MaxSizeBytes: cfg.MaxUploadSize},
		JWTManager:         jwtManager,
		DB:                 pool,
	})

	return &Container{
		Router:       router,
		Scheduler:    sched,
		AnnService:   annService,
		ImageService: imageService,
		Cache:        mainCache,
	}, nil
}
