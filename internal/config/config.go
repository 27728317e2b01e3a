package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds shared runtime configuration for the API and worker services.
type Config struct {
	Env                string
	HTTPPort           string
	MetricsAddr        string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	LogLevel           string
	LogFormat          string
	InputDir           string
	OutputDir          string
	QueueKey           string
	ResultTTL          time.Duration
	WorkerPollInterval time.Duration
	MaxUploadBytes     int64
	RateLimitCapacity  int // 0 disables submission throttling
	RateLimitRefill    float64
}

// Load reads configuration from environment variables with sane defaults for
// local development. A .env file in the working directory is applied first if
// present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:                getEnv("APP_ENV", "dev"),
		HTTPPort:           getEnv("HTTP_PORT", "8001"),
		MetricsAddr:        getEnv("METRICS_ADDR", ":9090"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "console"),
		InputDir:           getEnv("INPUT_DIR", "./data/input_pdfs"),
		OutputDir:          getEnv("OUTPUT_DIR", "./data/output"),
		QueueKey:           getEnv("QUEUE_KEY", "tasks:queue"),
		ResultTTL:          getEnvDuration("RESULT_TTL", 24*time.Hour),
		WorkerPollInterval: getEnvDuration("WORKER_POLL_INTERVAL", time.Second),
		MaxUploadBytes:     getEnvInt64("MAX_UPLOAD_BYTES", 200*1024*1024),
		RateLimitCapacity:  getEnvInt("RATE_LIMIT_CAPACITY", 50),
		RateLimitRefill:    getEnvFloat("RATE_LIMIT_REFILL_PER_SEC", 20),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
