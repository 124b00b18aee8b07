package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Shopify   ShopifyConfig
	Instagram InstagramConfig
	CORS      CORSConfig
	S3        S3Config
	Redis     RedisConfig
	Security  SecurityConfig
	Billing   BillingConfig
	Scheduler SchedulerConfig
	Upload    UploadConfig
	Widget    WidgetConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type ShopifyConfig struct {
	APIKey      string
	APISecret   string
	AppURL      string // public URL of this service, used for OAuth redirects
	Scopes      []string
	APIVersion  string
	VerifyProxy bool // verify app proxy signatures on widget routes
}

type InstagramConfig struct {
	AppID        string
	AppSecret    string
	GraphBaseURL string
	DialogURL    string
	TokenTTL     time.Duration // lifetime assumed for page tokens
}

type CORSConfig struct {
	AllowedOrigins []string
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	CacheTTL time.Duration // widget feed cache
}

type SecurityConfig struct {
	// EncryptionKey seals access tokens at rest; 32 bytes, hex or base64 encoded
	EncryptionKey string
}

type BillingConfig struct {
	DefaultPlan string
	TestCharges bool
}

type SchedulerConfig struct {
	ChannelSyncSpec string
	Enabled         bool
}

type UploadConfig struct {
	MaxFileSize  int64
	PresignedTTL time.Duration
}

type WidgetConfig struct {
	ScriptURL string // storefront loader referenced by embed snippets
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "ugcfy"),
			Password: getEnv("DB_PASSWORD", "ugcfy"),
			DBName:   getEnv("DB_NAME", "ugcfy"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxIdleConns:    parseInt(getEnv("DB_MAX_IDLE_CONNS", "10"), 10),
			MaxOpenConns:    parseInt(getEnv("DB_MAX_OPEN_CONNS", "50"), 50),
			ConnMaxLifetime: parseDuration(getEnv("DB_CONN_MAX_LIFETIME", "30m"), 30*time.Minute),
		},
		Shopify: ShopifyConfig{
			APIKey:      getEnv("SHOPIFY_API_KEY", ""),
			APISecret:   getEnv("SHOPIFY_API_SECRET", ""),
			AppURL:      strings.TrimRight(getEnv("SHOPIFY_APP_URL", "http://localhost:8080"), "/"),
			Scopes:      parseSlice(getEnv("SCOPES", "read_products,write_files")),
			APIVersion:  getEnv("SHOPIFY_API_VERSION", "2025-10"),
			VerifyProxy: parseBool(getEnv("SHOPIFY_VERIFY_PROXY", "true")),
		},
		Instagram: InstagramConfig{
			AppID:        getEnv("INSTAGRAM_APP_ID", ""),
			AppSecret:    getEnv("INSTAGRAM_APP_SECRET", ""),
			GraphBaseURL: getEnv("INSTAGRAM_GRAPH_URL", "https://graph.facebook.com/v18.0"),
			DialogURL:    getEnv("INSTAGRAM_DIALOG_URL", "https://www.facebook.com/v18.0/dialog/oauth"),
			TokenTTL:     parseDuration(getEnv("INSTAGRAM_TOKEN_TTL", "1440h"), 60*24*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "https://admin.shopify.com")),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", "ugcfy-media"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
			Enabled:  parseBool(getEnv("REDIS_ENABLED", "true")),
			CacheTTL: parseDuration(getEnv("WIDGET_CACHE_TTL", "5m"), 5*time.Minute),
		},
		Security: SecurityConfig{
			EncryptionKey: getEnv("TOKEN_ENCRYPTION_KEY", ""),
		},
		Billing: BillingConfig{
			DefaultPlan: strings.ToLower(getEnv("BILLING_DEFAULT_PLAN", "pro")),
			TestCharges: parseBool(getEnv("BILLING_TEST_CHARGES", "true")),
		},
		Scheduler: SchedulerConfig{
			ChannelSyncSpec: getEnv("CHANNEL_SYNC_CRON", "0 * * * *"),
			Enabled:         parseBool(getEnv("SCHEDULER_ENABLED", "true")),
		},
		Upload: UploadConfig{
			MaxFileSize:  int64(parseInt(getEnv("UPLOAD_MAX_FILE_SIZE_MB", "50"), 50)) << 20,
			PresignedTTL: parseDuration(getEnv("UPLOAD_PRESIGNED_TTL", "15m"), 15*time.Minute),
		},
		Widget: WidgetConfig{
			ScriptURL: getEnv("WIDGET_SCRIPT_URL", "https://cdn.ugcfy.com/widget.js"),
		},
	}

	if config.Server.Environment == "production" {
		if config.Shopify.APIKey == "" || config.Shopify.APISecret == "" {
			return nil, fmt.Errorf("SHOPIFY_API_KEY and SHOPIFY_API_SECRET are required in production")
		}
		if config.Security.EncryptionKey == "" {
			return nil, fmt.Errorf("TOKEN_ENCRYPTION_KEY is required in production")
		}
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s application_name=ugcfy",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		log.Printf("Invalid boolean %q, using false", s)
		return false
	}
	return b
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %q, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %q, using default %s", s, fallback)
		return fallback
	}
	return d
}

func parseSlice(s string) []string {
	result := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
