package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port string
	Env  string

	DocStore   DocStoreConfig
	DB         DatabaseConfig
	Redis      RedisConfig
	Repository RepositoryConfig
	Images     ImageConfig
	S3         S3Config
	Admin      AdminConfig
	Notify     NotifyConfig
	Shop       ShopConfig
	Analytics  AnalyticsConfig
	Worker     WorkerConfig
}

// DocStoreConfig selects and configures the remote product document.
type DocStoreConfig struct {
	Driver    string // jsonbin, postgres or memory
	URL       string
	MasterKey string
	Name      string // document name for the postgres driver
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// RepositoryConfig tunes the read-modify-write cycle against the document.
type RepositoryConfig struct {
	SerializeWrites bool
	Timeout         time.Duration
}

// ImageConfig selects the image host used when creating products.
type ImageConfig struct {
	Host        string // imgbb or s3
	ImgbbAPIKey string
	ImgbbURL    string
}

// S3Config contains AWS S3 configuration for the s3 image host.
type S3Config struct {
	Region          string
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
}

// AdminConfig holds the fixed admin credential.
type AdminConfig struct {
	Username     string
	PasswordHash string
}

// NotifyConfig configures notification de-duplication.
type NotifyConfig struct {
	DedupWindow time.Duration
}

// ShopConfig contains shop-facing constants.
type ShopConfig struct {
	WhatsAppBaseURL string
}

// AnalyticsConfig contains Plausible API settings.
type AnalyticsConfig struct {
	BaseURL string
	SiteID  string
	APIKey  string
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	SyncInterval time.Duration
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")

	// Document store
	cfg.DocStore = DocStoreConfig{
		Driver:    strings.ToLower(getEnv("DOCSTORE_DRIVER", "jsonbin")),
		URL:       getEnv("DOCSTORE_URL", ""),
		MasterKey: getEnv("DOCSTORE_MASTER_KEY", ""),
		Name:      getEnv("DOCSTORE_NAME", "products"),
	}

	// Database (postgres driver only)
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
		Enabled:  getEnvBool("REDIS_ENABLED", true),
	}

	// Images
	cfg.Images = ImageConfig{
		Host:        strings.ToLower(getEnv("IMAGE_HOST", "imgbb")),
		ImgbbAPIKey: getEnv("IMGBB_API_KEY", ""),
		ImgbbURL:    getEnv("IMGBB_URL", "https://api.imgbb.com/1/upload"),
	}

	cfg.S3 = S3Config{
		Region:          getEnv("S3_REGION", "sa-east-1"),
		Bucket:          getEnv("S3_BUCKET", ""),
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		PublicBaseURL:   getEnv("S3_PUBLIC_BASE_URL", ""),
	}

	cfg.Admin = AdminConfig{
		Username:     getEnv("ADMIN_USERNAME", "admin"),
		PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
	}

	cfg.Shop = ShopConfig{
		WhatsAppBaseURL: getEnv("WHATSAPP_BASE_URL", "https://wa.me/91173680952"),
	}

	cfg.Analytics = AnalyticsConfig{
		BaseURL: getEnv("PLAUSIBLE_URL", "https://plausible.io"),
		SiteID:  getEnv("PLAUSIBLE_SITE_ID", "lodenachocarniceria.com"),
		APIKey:  getEnv("PLAUSIBLE_API_KEY", ""),
	}

	cfg.Repository.SerializeWrites = getEnvBool("REPOSITORY_SERIALIZE_WRITES", true)

	// Durations
	var err error
	if cfg.Repository.Timeout, err = parseDurationEnv("REPOSITORY_TIMEOUT", "15s"); err != nil {
		return nil, fmt.Errorf("invalid REPOSITORY_TIMEOUT: %w", err)
	}
	if cfg.Notify.DedupWindow, err = parseDurationEnv("NOTIFY_DEDUP_WINDOW", "2s"); err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_DEDUP_WINDOW: %w", err)
	}
	if cfg.Worker.SyncInterval, err = parseDurationEnv("SYNC_INTERVAL", "5m"); err != nil {
		return nil, fmt.Errorf("invalid SYNC_INTERVAL: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DocStore.Driver {
	case "jsonbin":
		if c.DocStore.URL == "" {
			return errors.New("DOCSTORE_URL must be set for the jsonbin driver")
		}
	case "postgres":
		if c.DB.Host == "" || c.DB.User == "" || c.DB.Name == "" {
			return errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown DOCSTORE_DRIVER %q", c.DocStore.Driver)
	}

	switch c.Images.Host {
	case "imgbb", "s3":
	default:
		return fmt.Errorf("unknown IMAGE_HOST %q", c.Images.Host)
	}
	if c.Images.Host == "s3" && c.S3.Bucket == "" {
		return errors.New("S3_BUCKET must be set when IMAGE_HOST=s3")
	}

	if c.Admin.PasswordHash == "" {
		return errors.New("ADMIN_PASSWORD_HASH must be set for the admin panel")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// getEnvBool returns the value of an environment variable as a bool or a default if empty/invalid.
func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
