package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port          string
	Env           string
	PublicBaseURL string

	// CORS
	AllowedOrigins []string

	// Dataset
	DatasetSource string // embedded, file, postgres
	DatasetPath   string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Storage
	StorageDriver    string // local, s3, r2
	StorageLocalPath string
	StorageBaseURL   string

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string

	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2BucketName      string
	R2PublicURL       string

	// QR sharing
	QRDefaultSize int
	QRCacheTTL    time.Duration

	// Thumbnails
	ThumbWidth    int
	ThumbHeight   int
	ThumbCacheTTL time.Duration

	// Viewer
	ViewerIdleTTL     time.Duration
	AssetLoadTimeout  time.Duration
	ViewerMaxMounted  int
	ViewerMountLimit  int
	ViewerMountWindow time.Duration

	// Logging
	LogLevel string
}

func Load() *Config {
	// Load .env file in development
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		// Server
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),

		// CORS
		AllowedOrigins: parseStringSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:8080")),

		// Dataset
		DatasetSource: getEnv("DATASET_SOURCE", "embedded"),
		DatasetPath:   getEnv("DATASET_PATH", ""),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Storage
		StorageDriver:    getEnv("STORAGE_DRIVER", "local"),
		StorageLocalPath: getEnv("STORAGE_LOCAL_PATH", "./public"),
		StorageBaseURL:   getEnv("STORAGE_BASE_URL", "/assets"),

		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Bucket:    getEnv("S3_BUCKET", "heritage-models"),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),

		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2AccessKeySecret: getEnv("R2_ACCESS_KEY_SECRET", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", "heritage-models"),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),

		// QR sharing
		QRDefaultSize: parseInt(getEnv("QR_DEFAULT_SIZE", "200"), 200),
		QRCacheTTL:    parseDuration(getEnv("QR_CACHE_TTL", "1h"), time.Hour),

		// Thumbnails
		ThumbWidth:    parseInt(getEnv("THUMB_WIDTH", "600"), 600),
		ThumbHeight:   parseInt(getEnv("THUMB_HEIGHT", "400"), 400),
		ThumbCacheTTL: parseDuration(getEnv("THUMB_CACHE_TTL", "24h"), 24*time.Hour),

		// Viewer
		ViewerIdleTTL:     parseDuration(getEnv("VIEWER_IDLE_TTL", "30m"), 30*time.Minute),
		AssetLoadTimeout:  parseDuration(getEnv("ASSET_LOAD_TIMEOUT", "20s"), 20*time.Second),
		ViewerMaxMounted:  parseInt(getEnv("VIEWER_MAX_MOUNTED", "500"), 500),
		ViewerMountLimit:  parseInt(getEnv("VIEWER_MOUNT_LIMIT", "20"), 20),
		ViewerMountWindow: parseDuration(getEnv("VIEWER_MOUNT_WINDOW", "1m"), time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultValue
	}
	return d
}

func parseInt(s string, defaultValue int) int {
	value, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseStringSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
