package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"dev"`
	ProdOrigins string `env:"PROD_ORIGINS"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	DBDSN             string        `env:"DB_DSN,required,notEmpty"`
	DBMaxConns        int           `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"5m"`

	JWTSecret         string        `env:"JWT_SECRET,required,notEmpty"`
	JWTAccessTokenTTL time.Duration `env:"JWT_ACCESS_TOKEN_TTL" envDefault:"15m"`
	BcryptCost        int           `env:"BCRYPT_COST" envDefault:"12"`

	// Emails that are always administrators. More can be added at runtime.
	AdminEmails []string `env:"ADMIN_EMAILS" envSeparator:","`

	// Image CDN used for banner and gallery images.
	CDNHost    string `env:"CDN_HOST" envDefault:"res.cloudinary.com"`
	CDNBaseURL string `env:"CDN_BASE_URL"`

	// Upload storage: "local" or "s3".
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"local"`
	StoragePath   string `env:"STORAGE_PATH" envDefault:"./data/uploads"`
	MaxUploadSize int64  `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"`
	S3Endpoint    string `env:"S3_ENDPOINT"`
	S3Region      string `env:"S3_REGION" envDefault:"ap-southeast-1"`
	S3Bucket      string `env:"S3_BUCKET"`
	S3Prefix      string `env:"S3_PREFIX"`
	S3AccessKey   string `env:"S3_ACCESS_KEY"`
	S3SecretKey   string `env:"S3_SECRET_KEY"`

	// Optional Redis cache for the main announcement.
	RedisURL     string        `env:"REDIS_URL"`
	CachePrefix  string        `env:"CACHE_PREFIX" envDefault:"visa-cms:"`
	MainCacheTTL time.Duration `env:"MAIN_CACHE_TTL" envDefault:"5m"`

	SchedulerSpec string `env:"SCHEDULER_SPEC" envDefault:"0 * * * * *"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`
}

// IsProduction reports whether APP_ENV selects production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == PROD_STRING
}

// UseRedisCache reports whether a Redis URL is configured.
func (c *Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("failed to load .env file: %v", err)
	}
	return Parse()
}

// Parse reads configuration from the current environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	for i, e := range cfg.AdminEmails {
		cfg.AdminEmails[i] = strings.ToLower(strings.TrimSpace(e))
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("invalid BCRYPT_COST: %d is outside 4..31", c.BcryptCost)
	}

	switch c.StorageDriver {
	case "local":
	case "s3":
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
	default:
		return fmt.Errorf("invalid STORAGE_DRIVER %q: must be local or s3", c.StorageDriver)
	}

	if c.CDNBaseURL == "" {
		return errors.New("CDN_BASE_URL is required")
	}

	return nil
}
