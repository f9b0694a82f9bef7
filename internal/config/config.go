package config

import (
	"os"
	"os/user"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds application-level settings. LLM provider settings live in
// the llm package and are resolved separately.
type Config struct {
	DBPath    string
	LogLevel  string
	LogFormat string
	LogFile   string

	RedisURL       string
	ExplanationTTL time.Duration

	UserID   string
	PoolFile string

	PageSize              int
	InitialUnboundedBatch int
	SubmitRetry           RetryConfig
}

// RetryConfig bounds the automatic retry of a failed submission.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// Load reads configuration from the environment, loading a .env file first
// when one is present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}

	return &Config{
		DBPath:    getEnv("MOCKPREP_DB", ""),
		LogLevel:  getEnv("MOCKPREP_LOG_LEVEL", "info"),
		LogFormat: getEnv("MOCKPREP_LOG_FORMAT", "pretty"),
		LogFile:   getEnv("MOCKPREP_LOG_FILE", ""),

		RedisURL:       getEnv("MOCKPREP_REDIS_URL", ""),
		ExplanationTTL: getEnvDuration("MOCKPREP_EXPLANATION_TTL", 24*time.Hour),

		UserID:   getEnv("MOCKPREP_USER", defaultUserID()),
		PoolFile: getEnv("MOCKPREP_POOL_FILE", ""),

		PageSize:              getEnvInt("MOCKPREP_PAGE_SIZE", 10),
		InitialUnboundedBatch: getEnvInt("MOCKPREP_INITIAL_BATCH", 20),
		SubmitRetry: RetryConfig{
			MaxAttempts: getEnvInt("MOCKPREP_SUBMIT_RETRIES", 3),
			InitialWait: getEnvDuration("MOCKPREP_SUBMIT_RETRY_WAIT", 500*time.Millisecond),
			MaxWait:     5 * time.Second,
			Multiplier:  2.0,
		},
	}
}

func defaultUserID() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "student"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid integer, using default")
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid duration, using default")
		return fallback
	}
	return d
}
