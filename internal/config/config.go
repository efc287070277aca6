package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string
	// Basic Auth for the read API; both empty disables it
	BasicAuthUser string
	BasicAuthPass string

	PostgresDSN string
	RedisAddr   string

	SitesConfig   string
	WorkDir       string
	StopwordsFile string

	LogLevel string
	LogDev   bool

	FetchTimeout     time.Duration
	FetchConcurrency int
	UserAgent        string
}

// Load reads configuration from the environment, after merging an optional
// .env file from the working directory.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppPort:          getEnv("APP_PORT", "9000"),
		BasicAuthUser:    os.Getenv("APP_BASIC_USER"),
		BasicAuthPass:    os.Getenv("APP_BASIC_PASS"),
		PostgresDSN:      getEnv("POSTGRES_DSN", "host=localhost user=newsetl password=newsetl dbname=newsetl port=5432 sslmode=disable TimeZone=UTC"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		SitesConfig:      getEnv("SITES_CONFIG", "config.yaml"),
		WorkDir:          getEnv("WORK_DIR", "data"),
		StopwordsFile:    getEnv("STOPWORDS_FILE", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogDev:           getEnvBool("LOG_DEV", false),
		FetchTimeout:     getEnvDuration("FETCH_TIMEOUT", 10*time.Second),
		FetchConcurrency: getEnvInt("FETCH_CONCURRENCY", 1),
		UserAgent:        getEnv("USER_AGENT", "NewsETLBot/1.0"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return def
}
