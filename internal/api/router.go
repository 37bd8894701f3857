package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nekogravitycat/visa-cms-backend/internal/admin"
	adminHttp "github.com/nekogravitycat/visa-cms-backend/internal/admin/http"
	"github.com/nekogravitycat/visa-cms-backend/internal/announcement"
	annHttp "github.com/nekogravitycat/visa-cms-backend/internal/announcement/http"
	"github.com/nekogravitycat/visa-cms-backend/internal/auth"
	"github.com/nekogravitycat/visa-cms-backend/internal/image"
	imageHttp "github.com/nekogravitycat/visa-cms-backend/internal/image/http"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/cdn"
	"github.com/nekogravitycat/visa-cms-backend/internal/testimonial"
	testimonialHttp "github.com/nekogravitycat/visa-cms-backend/internal/testimonial/http"
	"github.com/nekogravitycat/visa-cms-backend/internal/user"
	userHttp "github.com/nekogravitycat/visa-cms-backend/internal/user/http"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the services the router exposes.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	Logger       *zap.Logger

	UserService        user.Service
	AdminService       admin.Service
	AnnService         announcement.Service
	TestimonialService testimonial.Service
	ImageService       image.Service
	Resolver           *cdn.Resolver
	Upload             imageHttp.FileUploadConfig
	JWTManager         *auth.JWTManager
	DB                 Pinger
}

var devOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

func allowedOrigins(cfg Config) []string {
	if !cfg.IsProduction {
		return devOrigins
	}
	var origins []string
	for _, o := range strings.Split(cfg.ProdOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// NewRouter initializes the HTTP router engine.
// It assembles middleware (CORS, logging, auth) and registers every module's routes.
func NewRouter(cfg Config) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(RequestLogger(logger), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if origins := allowedOrigins(cfg); len(origins) > 0 {
		corsConfig.AllowOrigins = origins
	} else {
		corsConfig.AllowOriginFunc = func(string) bool { return false }
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.MaxAge = 12 * time.Hour
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", healthz(cfg.DB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	adminMiddleware := admin.RequireAdmin(cfg.AdminService, cfg.UserService)

	userHandler := userHttp.NewHandler(cfg.UserService, cfg.JWTManager, cfg.AdminService)
	adminHandler := adminHttp.NewHandler(cfg.AdminService)
	annHandler := annHttp.NewHandler(cfg.AnnService, cfg.Resolver)
	testimonialHandler := testimonialHttp.NewHandler(cfg.TestimonialService)
	imageHandler := imageHttp.NewHandler(cfg.ImageService, cfg.Resolver, cfg.Upload)

	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware)
		annHttp.RegisterRoutes(v1, annHandler)
		testimonialHttp.RegisterRoutes(v1, testimonialHandler)
		imageHttp.RegisterRoutes(v1, imageHandler)
	}

	adminGroup := v1.Group("/admin", authMiddleware, adminMiddleware)
	{
		userHttp.RegisterAdminRoutes(adminGroup, userHandler)
		adminHttp.RegisterAdminRoutes(adminGroup, adminHandler)
		annHttp.RegisterAdminRoutes(adminGroup, annHandler)
		testimonialHttp.RegisterAdminRoutes(adminGroup, testimonialHandler)
		imageHttp.RegisterAdminRoutes(adminGroup, imageHandler)
	}

	return r
}

func healthz(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
