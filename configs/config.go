package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Log        LogConfig
	RateLimit  RateLimitConfig
	Storage    StorageConfig
	AI         AIConfig
	TempAssets TempAssetConfig
	Auth       AuthConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	TLSCertFile  string
	TLSKeyFile   string
	// PublicURL overrides the request-derived base URL used in temporary asset links.
	PublicURL      string
	BodyLimit      string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	DSN      string
	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	// Pool and timeout settings
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
	IdleTimeout  time.Duration
	CachePrefix  string
	AccountTTL   time.Duration
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

type RateLimitConfig struct {
	DefaultRequestsPerMinute int
	BurstMultiplier          float64
	Window                   time.Duration
	KeyPrefix                string
}

// StorageConfig describes the S3 compatible bucket. An empty Endpoint or Bucket
// disables object storage and uploads fall back to the in-memory temp store.
type StorageConfig struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
}

// Configured reports whether both endpoint and bucket are set.
func (s StorageConfig) Configured() bool {
	return s.Endpoint != "" && s.Bucket != ""
}

type AIConfig struct {
	APIKey            string
	BaseURL           string
	ModelBaseURL      string
	VoiceModel        string
	VisionModel       string
	Temperature       float64
	Timeout           time.Duration
	RequestsPerMinute int
	ASRMaxAttempts    int
	ASRRetryDelay     time.Duration
}

type TempAssetConfig struct {
	AudioTTL time.Duration
	ImageTTL time.Duration
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// Enabled reports whether bearer authentication is required on the API.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != ""
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnv("SERVER_PORT", "8080"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:    getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
			TLSCertFile:    getEnv("TLS_CERT_FILE", ""),
			TLSKeyFile:     getEnv("TLS_KEY_FILE", ""),
			PublicURL:      strings.TrimRight(getEnv("PUBLIC_URL", ""), "/"),
			BodyLimit:      getEnv("SERVER_BODY_LIMIT", "20M"),
			AllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "ledger"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getDurationEnv("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			MigrationsPath:  getEnv("DB_MIGRATIONS_PATH", "./migrations"),
		},
		Redis: RedisConfig{
			Enabled:      getBoolEnv("REDIS_ENABLED", true),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getIntEnv("REDIS_DB", 0),
			PoolSize:     getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  getDurationEnv("REDIS_POOL_TIMEOUT", 4*time.Second),
			IdleTimeout:  getDurationEnv("REDIS_IDLE_TIMEOUT", 5*time.Minute),
			CachePrefix:  getEnv("REDIS_CACHE_PREFIX", "ledger"),
			AccountTTL:   getDurationEnv("REDIS_ACCOUNT_TTL", 5*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		RateLimit: RateLimitConfig{
			DefaultRequestsPerMinute: getIntEnv("RATE_LIMIT_RPM", 30),
			BurstMultiplier:          getFloatEnv("RATE_LIMIT_BURST", 2.0),
			Window:                   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
			KeyPrefix:                getEnv("RATE_LIMIT_KEY_PREFIX", "ratelimit:client"),
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("BUCKET_ENDPOINT_URL", ""),
			Bucket:    getEnv("BUCKET_NAME", ""),
			AccessKey: getEnv("BUCKET_ACCESS_KEY", ""),
			SecretKey: getEnv("BUCKET_SECRET_KEY", ""),
			Region:    getEnv("BUCKET_REGION", "cn-beijing"),
		},
		AI: AIConfig{
			APIKey:            strings.TrimSpace(getEnv("AI_API_KEY", "")),
			BaseURL:           strings.TrimRight(getEnv("AI_BASE_URL", "https://api.coze.com"), "/"),
			ModelBaseURL:      strings.TrimRight(getEnv("AI_MODEL_BASE_URL", "https://model.coze.com"), "/"),
			VoiceModel:        getEnv("AI_VOICE_MODEL", "doubao-seed-2-0-lite-260215"),
			VisionModel:       getEnv("AI_VISION_MODEL", "doubao-seed-1-6-vision-250815"),
			Temperature:       getFloatEnv("AI_TEMPERATURE", 0.2),
			Timeout:           getDurationEnv("AI_TIMEOUT", 60*time.Second),
			RequestsPerMinute: getIntEnv("AI_REQUESTS_PER_MINUTE", 60),
			ASRMaxAttempts:    getIntEnv("ASR_MAX_ATTEMPTS", 3),
			ASRRetryDelay:     getDurationEnv("ASR_RETRY_DELAY", 2*time.Second),
		},
		TempAssets: TempAssetConfig{
			AudioTTL: getDurationEnv("TEMP_AUDIO_TTL", 5*time.Minute),
			ImageTTL: getDurationEnv("TEMP_IMAGE_TTL", 30*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
			TokenTTL:  getDurationEnv("AUTH_TOKEN_TTL", 30*24*time.Hour),
		},
	}

	// Build database DSN
	cfg.Database.DSN = getEnv("DATABASE_URL", fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.DBName,
		cfg.Database.SSLMode,
	))

	if cfg.TempAssets.AudioTTL <= 0 || cfg.TempAssets.ImageTTL <= 0 {
		return nil, fmt.Errorf("temp asset TTLs must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
