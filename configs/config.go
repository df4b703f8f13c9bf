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
	Server    ServerConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	Log       LogConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Inference InferenceConfig
	Admin     AdminConfig
	Alert     AlertConfig
}

type ServerConfig struct {
	Host           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	TLSCertFile    string
	TLSKeyFile     string
	AllowedOrigins []string
	MaxUploadBytes int64
}

type RedisConfig struct {
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
}

// DatabaseConfig configures the optional usage audit trail. The trail is
// enabled only when Host is set.
type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	BlockDuration     time.Duration
	KeyPrefix         string
}

type CacheConfig struct {
	TTL       time.Duration
	KeyPrefix string
	// Local enables the in-process read-through layer.
	Local        bool
	LocalTTL     time.Duration
	PreviewLimit int
}

type InferenceConfig struct {
	URL         string
	Timeout     time.Duration
	MaxRetries  int
	BackoffBase time.Duration
}

type AdminConfig struct {
	// APIKeyHash is a bcrypt hash of the static admin key.
	APIKeyHash string
	// JWTSecret enables bearer-token admin auth when set.
	JWTSecret string
	// UsageLimit bounds the admin usage listing.
	UsageLimit int
}

type AlertConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
	OperatorEmail  string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnv("SERVER_PORT", "8080"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),
			IdleTimeout:    getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
			TLSCertFile:    getEnv("TLS_CERT_FILE", ""),
			TLSKeyFile:     getEnv("TLS_KEY_FILE", ""),
			AllowedOrigins: getSliceEnv("ALLOWED_ORIGINS"),
			MaxUploadBytes: getInt64Env("MAX_UPLOAD_BYTES", 10<<20),
		},
		Redis: RedisConfig{
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
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", ""),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "analysis_db"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: getIntEnv("RATE_LIMIT_REQUESTS", 60),
			Window:            getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
			BlockDuration:     getDurationEnv("RATE_LIMIT_BLOCK_DURATION", 5*time.Minute),
			KeyPrefix:         getEnv("RATE_LIMIT_KEY_PREFIX", "ratelimit"),
		},
		Cache: CacheConfig{
			TTL:          getDurationEnv("CACHE_TTL", 24*time.Hour),
			KeyPrefix:    getEnv("CACHE_KEY_PREFIX", "imgcache"),
			Local:        getBoolEnv("CACHE_LOCAL_ENABLED", false),
			LocalTTL:     getDurationEnv("CACHE_LOCAL_TTL", 5*time.Minute),
			PreviewLimit: getIntEnv("CACHE_PREVIEW_LIMIT", 20),
		},
		Inference: InferenceConfig{
			URL:         getEnvRequired("INFERENCE_URL"),
			Timeout:     getDurationEnv("INFERENCE_TIMEOUT", 60*time.Second),
			MaxRetries:  getIntEnv("INFERENCE_MAX_RETRIES", 2),
			BackoffBase: getDurationEnv("INFERENCE_BACKOFF_BASE", 500*time.Millisecond),
		},
		Admin: AdminConfig{
			APIKeyHash: getEnv("ADMIN_API_KEY_HASH", ""),
			JWTSecret:  getEnv("ADMIN_JWT_SECRET", ""),
			UsageLimit: getIntEnv("ADMIN_USAGE_LIMIT", 50),
		},
		Alert: AlertConfig{
			SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
			FromEmail:      getEnv("ALERT_FROM_EMAIL", "alerts@example.com"),
			FromName:       getEnv("ALERT_FROM_NAME", "Analysis API"),
			OperatorEmail:  getEnv("ALERT_OPERATOR_EMAIL", ""),
		},
	}

	cfg.Database.Enabled = cfg.Database.Host != ""
	if cfg.Database.Enabled {
		cfg.Database.DSN = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.DBName,
			cfg.Database.SSLMode,
		)
	}

	if cfg.Admin.APIKeyHash == "" && cfg.Admin.JWTSecret == "" {
		return nil, fmt.Errorf("either ADMIN_API_KEY_HASH or ADMIN_JWT_SECRET must be set")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvRequired(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("Required environment variable %s is not set", key))
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
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

func getSliceEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
