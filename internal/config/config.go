// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Storage     StorageConfig
	Wiki        WikiConfig
	AI          AIConfig
	Images      ImagesConfig
	Search      SearchConfig
	I18n        I18nConfig
	Log         LogConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	PublicURL    string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

// JWTConfig holds the shared secret of the external auth provider.
type JWTConfig struct {
	SecretKey string
}

type StorageConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Endpoint        string // S3-compatible endpoint; empty for AWS
	PublicBaseURL   string // CDN or public bucket URL
	ForcePathStyle  bool
	LocalPath       string
	LocalURLPrefix  string
}

type WikiConfig struct {
	BaseURL          string
	UserAgent        string
	BrowserUserAgent string
	SearchTimeoutMS  int
	PageTimeoutMS    int
	ImageTimeoutMS   int
	DownloadTimeoutS int
	SearchLimit      int
	RequestsPerSec   float64
	Burst            int
}

type AIConfig struct {
	BaseURL         string
	APIKey          string
	Model           string
	TimeoutS        int
	LookupAttempts  int
	RetryBackoffMS  int
	ImageMaxTokens  int
	LookupMaxTokens int
}

type ImagesConfig struct {
	ProxyURL          string
	DefaultSize       int
	CachePrefix       string
	PhotoPrefix       string
	OwnStorageMarkers []string
	WikiHosts         []string
	MaxUploadMB       int
}

type SearchConfig struct {
	DebounceMS     int
	MinQueryLength int
}

type I18nConfig struct {
	DefaultLocale string
	LocalesPath   string
}

type LogConfig struct {
	Level  string
	Format string
}

type RateLimitConfig struct {
	GeneralPerSec    float64
	GeneralBurst     int
	IdentifyPerMin   int
	IdentifyBurst    int
	UploadPerMin     int
	UploadBurst      int
	CleanupInterval  int
	VisitorRetention int
}

type CORSConfig struct {
	AllowedOrigins []string
	MaxAgeHours    int
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			PublicURL:    getEnv("SERVER_PUBLIC_URL", "http://localhost:8080"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 90),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "beycollection"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", defaultJWTSecret),
		},
		Storage: StorageConfig{
			Region:          getEnv("STORAGE_REGION", "us-east-1"),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("STORAGE_SECRET_ACCESS_KEY", ""),
			Bucket:          getEnv("STORAGE_BUCKET", "beyblade-images"),
			Endpoint:        getEnv("STORAGE_ENDPOINT", ""),
			PublicBaseURL:   getEnv("STORAGE_PUBLIC_URL", ""),
			ForcePathStyle:  getEnvAsBool("STORAGE_FORCE_PATH_STYLE", false),
			LocalPath:       getEnv("STORAGE_LOCAL_PATH", "./uploads"),
			LocalURLPrefix:  getEnv("STORAGE_LOCAL_URL_PREFIX", "/uploads"),
		},
		Wiki: WikiConfig{
			BaseURL:          getEnv("WIKI_BASE_URL", "https://beyblade.fandom.com"),
			UserAgent:        getEnv("WIKI_USER_AGENT", "BeyCollection/1.0"),
			BrowserUserAgent: getEnv("WIKI_BROWSER_USER_AGENT", ""),
			SearchTimeoutMS:  getEnvAsInt("WIKI_SEARCH_TIMEOUT_MS", 5000),
			PageTimeoutMS:    getEnvAsInt("WIKI_PAGE_TIMEOUT_MS", 8000),
			ImageTimeoutMS:   getEnvAsInt("WIKI_IMAGE_TIMEOUT_MS", 5000),
			DownloadTimeoutS: getEnvAsInt("WIKI_DOWNLOAD_TIMEOUT", 10),
			SearchLimit:      getEnvAsInt("WIKI_SEARCH_LIMIT", 15),
			RequestsPerSec:   getEnvAsFloat("WIKI_REQUESTS_PER_SEC", 5),
			Burst:            getEnvAsInt("WIKI_BURST", 10),
		},
		AI: AIConfig{
			BaseURL:         getEnv("AI_GATEWAY_URL", "https://ai.gateway.lovable.dev/v1"),
			APIKey:          getEnv("AI_API_KEY", ""),
			Model:           getEnv("AI_MODEL", "google/gemini-2.5-flash"),
			TimeoutS:        getEnvAsInt("AI_TIMEOUT", 60),
			LookupAttempts:  getEnvAsInt("AI_LOOKUP_ATTEMPTS", 2),
			RetryBackoffMS:  getEnvAsInt("AI_RETRY_BACKOFF_MS", 1000),
			ImageMaxTokens:  getEnvAsInt("AI_IMAGE_MAX_TOKENS", 0),
			LookupMaxTokens: getEnvAsInt("AI_LOOKUP_MAX_TOKENS", 0),
		},
		Images: ImagesConfig{
			ProxyURL:          getEnv("IMAGE_PROXY_URL", "http://localhost:8080/v1/images/wiki"),
			DefaultSize:       getEnvAsInt("IMAGE_DEFAULT_SIZE", 400),
			CachePrefix:       getEnv("IMAGE_CACHE_PREFIX", "wiki-cache"),
			PhotoPrefix:       getEnv("IMAGE_PHOTO_PREFIX", "photos"),
			OwnStorageMarkers: getEnvAsSlice("IMAGE_OWN_STORAGE_MARKERS", []string{"/storage/v1/object/public/beyblade-images/", "/uploads/"}),
			WikiHosts:         getEnvAsSlice("IMAGE_WIKI_HOSTS", []string{"static.wikia.nocookie.net", "vignette.wikia.nocookie.net"}),
			MaxUploadMB:       getEnvAsInt("IMAGE_MAX_UPLOAD_MB", 10),
		},
		Search: SearchConfig{
			DebounceMS:     getEnvAsInt("SEARCH_DEBOUNCE_MS", 300),
			MinQueryLength: getEnvAsInt("SEARCH_MIN_QUERY_LENGTH", 2),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
			LocalesPath:   getEnv("LOCALES_PATH", "./internal/i18n/locales"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", ""),
		},
		RateLimit: RateLimitConfig{
			GeneralPerSec:    getEnvAsFloat("RATE_LIMIT_GENERAL_PER_SEC", 10),
			GeneralBurst:     getEnvAsInt("RATE_LIMIT_GENERAL_BURST", 20),
			IdentifyPerMin:   getEnvAsInt("RATE_LIMIT_IDENTIFY_PER_MIN", 10),
			IdentifyBurst:    getEnvAsInt("RATE_LIMIT_IDENTIFY_BURST", 5),
			UploadPerMin:     getEnvAsInt("RATE_LIMIT_UPLOAD_PER_MIN", 20),
			UploadBurst:      getEnvAsInt("RATE_LIMIT_UPLOAD_BURST", 10),
			CleanupInterval:  getEnvAsInt("RATE_LIMIT_CLEANUP_INTERVAL", 60),
			VisitorRetention: getEnvAsInt("RATE_LIMIT_VISITOR_RETENTION", 180),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:8080"}),
			MaxAgeHours:    getEnvAsInt("CORS_MAX_AGE_HOURS", 12),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.IsProduction() {
		if c.JWT.SecretKey == defaultJWTSecret {
			return fmt.Errorf("JWT secret key must be changed in production")
		}

		if c.Database.Password == "" {
			return fmt.Errorf("database password is required in production")
		}

		if c.AI.APIKey == "" {
			return fmt.Errorf("AI API key is required in production")
		}
	}

	if c.AI.LookupAttempts < 1 {
		return fmt.Errorf("AI_LOOKUP_ATTEMPTS must be at least 1")
	}

	if c.Search.MinQueryLength < 1 {
		return fmt.Errorf("SEARCH_MIN_QUERY_LENGTH must be at least 1")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (w WikiConfig) SearchTimeout() time.Duration {
	return time.Duration(w.SearchTimeoutMS) * time.Millisecond
}

func (w WikiConfig) PageTimeout() time.Duration {
	return time.Duration(w.PageTimeoutMS) * time.Millisecond
}

func (w WikiConfig) ImageTimeout() time.Duration {
	return time.Duration(w.ImageTimeoutMS) * time.Millisecond
}

func (w WikiConfig) DownloadTimeout() time.Duration {
	return time.Duration(w.DownloadTimeoutS) * time.Second
}

func (a AIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutS) * time.Second
}

func (a AIConfig) RetryBackoff() time.Duration {
	return time.Duration(a.RetryBackoffMS) * time.Millisecond
}

func (s SearchConfig) Debounce() time.Duration {
	return time.Duration(s.DebounceMS) * time.Millisecond
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsSlice splits a comma-separated value, dropping empty items.
func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
