package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Environment string
	Server      struct {
		Port           string
		AllowedOrigins []string
		RateLimitRPS   int
	}
	Database struct {
		URL string
	}
	Redis struct {
		URL string
	}
	Storage struct {
		Endpoint   string
		AccessKey  string
		SecretKey  string
		UseSSL     bool
		Bucket     string
		CDNBaseURL string
	}
	JWT struct {
		Secret     string
		SessionTTL time.Duration
	}
	RefData struct {
		Path string
	}
	Media struct {
		PreviewTimeout time.Duration
	}
}

var AppConfig *Config

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	cfg := &Config{}

	cfg.Environment = getEnv("APP_ENV", "development")

	// Server
	cfg.Server.Port = getEnv("PORT", "8000")
	cfg.Server.AllowedOrigins = getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"})
	cfg.Server.RateLimitRPS = getEnvInt("RATE_LIMIT_RPS", 50)

	// Database
	postgresUser := getEnv("POSTGRES_USER", "curator")
	postgresPass := getEnv("POSTGRES_PASSWORD", "curator_secure_password")
	postgresHost := getEnv("POSTGRES_HOST", "localhost")
	postgresPort := getEnv("POSTGRES_PORT", "5432")
	postgresDB := getEnv("POSTGRES_DB", "curator")
	postgresSSL := getEnv("POSTGRES_SSLMODE", "disable")
	cfg.Database.URL = getEnv("DATABASE_URL", "postgres://"+postgresUser+":"+postgresPass+"@"+postgresHost+":"+postgresPort+"/"+postgresDB+"?sslmode="+postgresSSL)

	// Redis
	redisHost := getEnv("REDIS_HOST", "localhost")
	redisPort := getEnv("REDIS_PORT", "6379")
	cfg.Redis.URL = getEnv("REDIS_URL", "redis://"+redisHost+":"+redisPort)

	// Storage
	cfg.Storage.Endpoint = getEnv("MINIO_ENDPOINT", "localhost:9000")
	cfg.Storage.AccessKey = getEnv("MINIO_ACCESS_KEY", "curator_minio")
	cfg.Storage.SecretKey = getEnv("MINIO_SECRET_KEY", "curator_minio_secret")
	cfg.Storage.UseSSL = getEnvBool("MINIO_USE_SSL", false)
	cfg.Storage.Bucket = getEnv("MINIO_BUCKET_EVIDENCE", "evidence")
	cfg.Storage.CDNBaseURL = getEnv("CDN_BASE_URL", "http://localhost:9000")

	// JWT
	cfg.JWT.Secret = getEnv("JWT_SECRET", "your-super-secret-jwt-key-change-in-production")
	cfg.JWT.SessionTTL = getEnvDuration("JWT_SESSION_EXPIRY", 12*time.Hour)

	// Reference data (modes, groups, operators, risk weights, message catalog)
	cfg.RefData.Path = getEnv("REFDATA_PATH", "")

	// Media
	cfg.Media.PreviewTimeout = getEnvDuration("MEDIA_PREVIEW_TIMEOUT", 3*time.Second)

	AppConfig = cfg
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, v := range strings.Split(value, ",") {
			if v = strings.TrimSpace(v); v != "" {
				result = append(result, v)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
